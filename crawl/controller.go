// Package crawl provides bounded recursive crawling. A Controller starts
// at an index page, follows the links its extractors discover, and
// dispatches every followed link to the extractor whose route matches it.
package crawl

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/bloom"
	"github.com/fwojciec/harvest/goquery"
	"golang.org/x/sync/errgroup"
)

// IndexRoute is the name of the route crawls start from.
const IndexRoute = "index"

// Dedupe sizing for per-crawl visited sets.
const (
	dedupeExpectedURLs      = 10000
	dedupeFalsePositiveRate = 0.01
)

var _ harvest.Harvester = (*Controller)(nil)

// Route binds a URL pattern to the extractor handling matching pages.
type Route struct {
	Name      string
	Pattern   *regexp.Regexp
	Extractor *goquery.Extractor
}

// Controller performs bounded recursive crawls. Routes are registered during
// setup; crawls on one Controller run one at a time.
type Controller struct {
	name     string
	routes   []Route
	linkRule goquery.Rule

	maxDepth     int
	maxPages     int
	concurrency  int
	skipUnrouted bool
	dedupe       bool
	limiter      harvest.DomainLimiter
	filters      []harvest.LinkFilter
	progress     ProgressFunc

	mu sync.Mutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxDepth stops following links from pages at depth n-1. Zero means
// unbounded.
func WithMaxDepth(n int) Option {
	return func(c *Controller) { c.maxDepth = n }
}

// WithMaxPages bounds the number of pages fetched per crawl. Zero means
// unbounded.
func WithMaxPages(n int) Option {
	return func(c *Controller) { c.maxPages = n }
}

// WithConcurrency bounds the number of pages fetched at once. Zero means
// every scheduled link is fetched immediately.
func WithConcurrency(n int) Option {
	return func(c *Controller) { c.concurrency = n }
}

// WithLinkRule replaces the rule attached to every registered extractor to
// discover links. Defaults to goquery.LinkRule.
func WithLinkRule(r goquery.Rule) Option {
	return func(c *Controller) { c.linkRule = r }
}

// WithSkipUnrouted drops links that match no route instead of failing the
// crawl with ENOROUTE.
func WithSkipUnrouted() Option {
	return func(c *Controller) { c.skipUnrouted = true }
}

// WithDedupe skips links already visited during the same crawl.
func WithDedupe() Option {
	return func(c *Controller) { c.dedupe = true }
}

// WithLimiter waits on l before every fetch, keyed by host.
func WithLimiter(l harvest.DomainLimiter) Option {
	return func(c *Controller) { c.limiter = l }
}

// WithLinkFilter drops links f does not allow. Filters run in the order added.
func WithLinkFilter(f harvest.LinkFilter) Option {
	return func(c *Controller) { c.filters = append(c.filters, f) }
}

// WithProgress reports crawl events to fn. fn may be called concurrently.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Controller) { c.progress = fn }
}

// NewController returns a Controller named name.
func NewController(name string, opts ...Option) *Controller {
	c := &Controller{
		name:     name,
		linkRule: goquery.LinkRule(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddRoute registers e for URLs matching pattern. A route named IndexRoute
// becomes the crawl's starting extractor. The link rule is attached to a
// copy of e; e itself is not modified.
func (c *Controller) AddRoute(name, pattern string, e *goquery.Extractor) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return harvest.Errorf(harvest.EINVALID, "invalid route pattern %q: %v", pattern, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes = append(c.routes, Route{
		Name:      name,
		Pattern:   re,
		Extractor: e.Extend(c.linkRule),
	})
	return nil
}

// Routes returns the registered routes in precedence order.
func (c *Controller) Routes() []Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Route(nil), c.routes...)
}

// Name returns the controller's name.
func (c *Controller) Name() string {
	return c.name
}

// Harvest implements harvest.Harvester by crawling from rawURL.
func (c *Controller) Harvest(ctx context.Context, rawURL string) ([]*harvest.Document, error) {
	return c.Crawl(ctx, rawURL)
}

// Crawl scrapes rawURL with the index extractor and recursively follows
// discovered links. Documents are returned in discovery pre-order: a page
// precedes the pages reached through it, and sibling subtrees keep the
// order their links appeared in. Any failure aborts the whole crawl.
func (c *Controller) Crawl(ctx context.Context, rawURL string) ([]*harvest.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := c.index()
	if index == nil {
		return nil, harvest.Errorf(harvest.ENOINDEX, "no index scraper registered for %q", c.name)
	}

	r := &run{Controller: c}
	if c.dedupe {
		r.seen = bloom.NewFilter(dedupeExpectedURLs, dedupeFalsePositiveRate)
		r.seen.Visit(harvest.PrefixScheme(rawURL))
	}
	if c.concurrency > 0 {
		r.slots = make(chan struct{}, c.concurrency)
	}
	r.reserve()

	c.emit(ProgressEvent{Type: ProgressStarted, URL: rawURL})
	docs, err := r.scrape(ctx, index, rawURL, 0)
	if err != nil {
		return nil, err
	}
	c.emit(ProgressEvent{Type: ProgressFinished, URL: rawURL, Visited: r.visited()})
	return docs, nil
}

func (c *Controller) index() *goquery.Extractor {
	for _, route := range c.routes {
		if route.Name == IndexRoute {
			return route.Extractor
		}
	}
	return nil
}

// route returns the first extractor, in registration order, whose pattern
// matches rawURL.
func (c *Controller) route(rawURL string) *goquery.Extractor {
	for _, route := range c.routes {
		if route.Pattern.MatchString(rawURL) {
			return route.Extractor
		}
	}
	return nil
}

func (c *Controller) emit(ev ProgressEvent) {
	if c.progress != nil {
		c.progress(ev)
	}
}

// run is the state of one crawl.
type run struct {
	*Controller

	mu       sync.Mutex
	reserved int
	seen     *bloom.Filter
	slots    chan struct{}
}

// reserve claims one page of the crawl budget, reporting false when the
// budget is spent.
func (r *run) reserve() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxPages > 0 && r.reserved >= r.maxPages {
		return false
	}
	r.reserved++
	return true
}

func (r *run) visited() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reserved
}

func (r *run) exhausted() bool {
	return r.maxPages > 0 && r.visited() >= r.maxPages
}

func (r *run) scrape(ctx context.Context, e *goquery.Extractor, rawURL string, depth int) ([]*harvest.Document, error) {
	doc, err := r.fetch(ctx, e, rawURL)
	if err != nil {
		r.emit(ProgressEvent{Type: ProgressFailed, URL: rawURL, Depth: depth, Visited: r.visited(), Error: err})
		return nil, err
	}
	r.emit(ProgressEvent{Type: ProgressCompleted, URL: rawURL, Depth: depth, Visited: r.visited()})

	docs := []*harvest.Document{doc}
	if (r.maxDepth > 0 && depth+1 >= r.maxDepth) || r.exhausted() {
		return docs, nil
	}

	type target struct {
		url       string
		extractor *goquery.Extractor
	}
	var targets []target
	for _, link := range r.links(ctx, doc) {
		// Links past the page budget are never scheduled, routed or not.
		if r.exhausted() {
			break
		}
		next := r.route(link)
		if next == nil {
			if r.skipUnrouted {
				continue
			}
			err := harvest.Errorf(harvest.ENOROUTE, "no scraper for page %s", link)
			r.emit(ProgressEvent{Type: ProgressFailed, URL: link, Depth: depth + 1, Visited: r.visited(), Error: err})
			return nil, err
		}
		if !r.reserve() {
			break
		}
		targets = append(targets, target{url: link, extractor: next})
	}

	subtrees := make([][]*harvest.Document, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			sub, err := r.scrape(gctx, t.extractor, t.url, depth+1)
			if err != nil {
				return err
			}
			subtrees[i] = sub
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, sub := range subtrees {
		docs = append(docs, sub...)
	}
	return docs, nil
}

// fetch scrapes one page, holding a concurrency slot only while the
// page and its pagination are fetched.
func (r *run) fetch(ctx context.Context, e *goquery.Extractor, rawURL string) (*harvest.Document, error) {
	if r.slots != nil {
		select {
		case r.slots <- struct{}{}:
			defer func() { <-r.slots }()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx, goquery.Host(rawURL)); err != nil {
			return nil, err
		}
	}
	return e.CrawlPages(ctx, rawURL)
}

// links returns the crawlable links of doc in document order, resolved
// against the page URL and passed through the dedupe set and link filters.
func (r *run) links(ctx context.Context, doc *harvest.Document) []string {
	base, _ := url.Parse(doc.URL)
	var out []string
	for _, href := range doc.Links() {
		link, ok := resolve(base, href)
		if !ok {
			continue
		}
		if !r.allow(ctx, link) {
			continue
		}
		out = append(out, link)
	}
	return out
}

func (r *run) allow(ctx context.Context, link string) bool {
	for _, f := range r.filters {
		if !f.Allow(ctx, link) {
			return false
		}
	}
	if r.seen != nil && !r.seen.Visit(link) {
		return false
	}
	return true
}

// resolve joins href to base and keeps only http(s) results.
func resolve(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	switch ref.Scheme {
	case "http", "https":
		return ref.String(), true
	case "":
		if strings.HasPrefix(href, "//") {
			return "http:" + ref.String(), true
		}
	}
	return "", false
}
