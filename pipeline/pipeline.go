package pipeline

import (
	"context"
	"sync"

	"github.com/fwojciec/harvest"
	"golang.org/x/sync/errgroup"
)

type step struct {
	harvester harvest.Harvester
	urls      []string
}

// Pipeline queues scrape steps and a formatter chain, then executes them.
type Pipeline struct {
	registry *Registry

	mu         sync.Mutex
	steps      []step
	formatters []harvest.Formatter
}

// New returns a Pipeline drawing from registry.
func New(registry *Registry) *Pipeline {
	return &Pipeline{registry: registry}
}

// Scrape queues the named harvester to run on urls.
func (p *Pipeline) Scrape(name string, urls ...string) error {
	h, err := p.registry.Harvester(name)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, step{harvester: h, urls: append([]string(nil), urls...)})
	return nil
}

// Format sets the formatters applied to every document, in order.
func (p *Pipeline) Format(names ...string) error {
	formatters := make([]harvest.Formatter, 0, len(names))
	for _, name := range names {
		f, err := p.registry.Formatter(name)
		if err != nil {
			return err
		}
		formatters = append(formatters, f)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.formatters = formatters
	return nil
}

// Exec runs every queued step concurrently and returns the formatted
// documents in queue order. The queue is cleared only on success.
func (p *Pipeline) Exec(ctx context.Context) ([]*harvest.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.steps) == 0 {
		return nil, harvest.Errorf(harvest.EINVALID, "nothing to execute")
	}

	var jobs []job
	for _, s := range p.steps {
		for _, u := range s.urls {
			jobs = append(jobs, job{harvester: s.harvester, url: u})
		}
	}

	results := make([][]*harvest.Document, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			docs, err := j.harvester.Harvest(gctx, j.url)
			if err != nil {
				return err
			}
			for k, doc := range docs {
				if docs[k], err = harvest.ApplyFormatters(gctx, doc, p.formatters...); err != nil {
					return err
				}
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := []*harvest.Document{}
	for _, docs := range results {
		out = append(out, docs...)
	}
	p.steps = nil
	p.formatters = nil
	return out, nil
}

type job struct {
	harvester harvest.Harvester
	url       string
}
