package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/fs"
	"github.com/fwojciec/harvest/pipeline"
)

// Run executes the scrape command.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	return harvestURLs(deps, c.Recipe, c.URLs, c.Output)
}

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	if deps.Set.Controller(c.Name) == nil {
		fmt.Fprintf(deps.Stderr, "error: unknown crawl %q. Use 'harvest list' to see available crawls.\n", c.Name)
		return harvest.Errorf(harvest.EINVALID, "unknown crawl %q", c.Name)
	}
	return harvestURLs(deps, c.Name, []string{c.URL}, c.Output)
}

func harvestURLs(deps *Dependencies, name string, urls []string, out Output) error {
	p := pipeline.New(deps.Registry)
	if err := p.Scrape(name, urls...); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}
	if len(deps.Formats) > 0 {
		if err := p.Format(deps.Formats...); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
			return err
		}
	}

	docs, err := p.Exec(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s (%s)\n", harvest.ErrorMessage(err), harvest.ErrorCode(err))
		return err
	}

	if err := writeDocuments(deps, name, urls[0], docs, out); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}
	return nil
}

func writeDocuments(deps *Dependencies, name, seed string, docs []*harvest.Document, out Output) error {
	if out.Save {
		crawl := &harvest.Crawl{Harvester: name, SeedURL: seed}
		if err := deps.Store.CreateCrawl(deps.Ctx, crawl); err != nil {
			return err
		}
		if err := deps.Store.SaveDocuments(deps.Ctx, crawl.ID, docs); err != nil {
			return err
		}
		fmt.Fprintf(deps.Stderr, "saved crawl %s (%d documents)\n", crawl.ID, len(docs))
	}

	if out.MarkdownDir != "" {
		if err := os.MkdirAll(out.MarkdownDir, 0755); err != nil {
			return err
		}
		w := fs.NewMarkdownWriter(out.MarkdownDir, outputName(name))
		if err := w.WriteAll(deps.Ctx, docs); err != nil {
			_ = w.Abort()
			return err
		}
		if err := w.Commit(); err != nil {
			return err
		}
		fmt.Fprintf(deps.Stderr, "wrote %d markdown files to %s\n", len(docs),
			filepath.Join(out.MarkdownDir, outputName(name)))
	}

	if out.Out != "" {
		return fs.SaveJSON(out.Out, docs)
	}
	return fs.WriteJSON(deps.Stdout, docs)
}

// outputName turns a harvester name into a directory name.
func outputName(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' {
			return '-'
		}
		return r
	}, name)
}
