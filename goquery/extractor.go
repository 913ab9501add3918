package goquery

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/harvest"
)

// DefaultRoot is the node traversal starts from unless configured otherwise.
const DefaultRoot = "body"

// Ensure Extractor implements harvest.Harvester at compile time.
var _ harvest.Harvester = (*Extractor)(nil)

// NextPageFunc locates the URL of the page following p. Relative URLs are
// resolved against p.URL.
type NextPageFunc func(p *Page) (string, bool)

// HookFunc derives a block from page metadata before traversal.
type HookFunc func(info PageInfo) (harvest.Block, bool)

// Extractor maps one page's markup to an ordered list of content blocks by
// walking the tree depth-first and applying rules to each node.
//
// An Extractor is immutable once built and safe for concurrent use.
type Extractor struct {
	name string

	fetcher   harvest.Fetcher
	renderer  harvest.Renderer
	render    bool
	fetchOpts harvest.FetchOptions
	delay     time.Duration

	defaults  bool
	custom    []Selector
	selectors []Selector
	pages     *PageFetcher

	root     string
	excluded []string
	final    []string
	excludeM matcher
	finalM   matcher

	rules    []Rule
	fallback *Extractor
	nextPage NextPageFunc
	hook     HookFunc
	traverse bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRoot sets the node traversal starts from. Defaults to "body".
func WithRoot(selector string) Option {
	return func(e *Extractor) {
		e.root = selector
	}
}

// WithExcluded sets selectors for nodes skipped along with their subtree.
func WithExcluded(selectors ...string) Option {
	return func(e *Extractor) {
		e.excluded = append(e.excluded, selectors...)
	}
}

// WithFinal sets selectors for nodes whose children are never visited.
func WithFinal(selectors ...string) Option {
	return func(e *Extractor) {
		e.final = append(e.final, selectors...)
	}
}

// WithRules appends rules. Rules run in the order they are added.
func WithRules(rules ...Rule) Option {
	return func(e *Extractor) {
		e.rules = append(e.rules, rules...)
	}
}

// WithSelectors appends field selectors evaluated after the defaults.
func WithSelectors(selectors ...Selector) Option {
	return func(e *Extractor) {
		e.custom = append(e.custom, selectors...)
	}
}

// WithoutDefaultSelectors disables the default metadata selectors.
func WithoutDefaultSelectors() Option {
	return func(e *Extractor) {
		e.defaults = false
	}
}

// WithFallback sets the extractor whose rules apply to nodes that no rule
// of this extractor matches.
func WithFallback(fallback *Extractor) Option {
	return func(e *Extractor) {
		e.fallback = fallback
	}
}

// WithNextPage enables pagination.
func WithNextPage(fn NextPageFunc) Option {
	return func(e *Extractor) {
		e.nextPage = fn
	}
}

// WithHook sets a function whose block, if any, is placed first.
func WithHook(fn HookFunc) Option {
	return func(e *Extractor) {
		e.hook = fn
	}
}

// WithoutTraversal disables the tree walk; content then comes from the
// hook alone.
func WithoutTraversal() Option {
	return func(e *Extractor) {
		e.traverse = false
	}
}

// WithRenderer renders pages in a headless browser instead of fetching them.
func WithRenderer(r harvest.Renderer) Option {
	return func(e *Extractor) {
		e.renderer = r
		e.render = r != nil
	}
}

// WithFetchOptions sets per-extractor fetch bounds merged over the defaults.
func WithFetchOptions(opts harvest.FetchOptions) Option {
	return func(e *Extractor) {
		e.fetchOpts = opts
	}
}

// WithDelay waits d before every fetch.
func WithDelay(d time.Duration) Option {
	return func(e *Extractor) {
		e.delay = d
	}
}

// NewExtractor returns an Extractor named name. fetcher may be nil for
// extractors that only serve as a fallback rule set.
func NewExtractor(name string, fetcher harvest.Fetcher, opts ...Option) *Extractor {
	e := &Extractor{
		name:     name,
		fetcher:  fetcher,
		root:     DefaultRoot,
		defaults: true,
		traverse: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.build()
	return e
}

func (e *Extractor) build() {
	e.selectors = nil
	if e.defaults {
		e.selectors = append(e.selectors, DefaultSelectors()...)
	}
	e.selectors = append(e.selectors, e.custom...)
	e.excludeM = compile(e.excluded)
	e.finalM = compile(e.final)
	e.pages = NewPageFetcher(e.fetcher, e.renderer, e.selectors, e.fetchOpts)
}

// Name returns the extractor's name.
func (e *Extractor) Name() string {
	return e.name
}

// Rules returns the extractor's rules in evaluation order.
func (e *Extractor) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Paginated reports whether the extractor follows next-page links.
func (e *Extractor) Paginated() bool {
	return e.nextPage != nil
}

// Extend returns a copy of e with rules appended. e is not modified.
func (e *Extractor) Extend(rules ...Rule) *Extractor {
	c := *e
	c.rules = append(append([]Rule(nil), e.rules...), rules...)
	return &c
}

// Fetch retrieves and parses rawURL, rendering it first when configured.
func (e *Extractor) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.render {
		return e.pages.Render(ctx, rawURL)
	}
	return e.pages.Fetch(ctx, rawURL)
}

// Parse extracts a document from a fetched page. It never modifies the page.
func (e *Extractor) Parse(p *Page) *harvest.Document {
	doc := &harvest.Document{
		URL:         p.URL,
		Fields:      p.Fields.Clone(),
		ContentType: p.ContentType,
		Size:        p.SizeKB,
		Content:     []harvest.Block{},
	}
	info := p.Info()

	if e.hook != nil {
		if b, ok := e.hook(info); ok {
			doc.Content = append(doc.Content, b)
		}
	}

	if e.traverse && p.Doc != nil {
		root := p.Doc.Find(e.root).First()
		if root.Length() > 0 {
			e.walk(root, info, &doc.Content)
		}
	}
	return doc
}

func (e *Extractor) walk(node *goquery.Selection, info PageInfo, out *[]harvest.Block) {
	if e.excludeM.matches(node) {
		return
	}

	rules := e.matching(node)
	if len(rules) == 0 && e.fallback != nil {
		rules = e.fallback.matching(node)
	}
	for _, r := range rules {
		if b, ok := r.Apply(node, info); ok {
			*out = append(*out, b)
		}
	}

	if e.finalM.matches(node) {
		return
	}
	node.Children().Each(func(_ int, child *goquery.Selection) {
		e.walk(child, info, out)
	})
}

func (e *Extractor) matching(node *goquery.Selection) []Rule {
	var rules []Rule
	for _, r := range e.rules {
		if r.Matches(node) {
			rules = append(rules, r)
		}
	}
	return rules
}

// Scrape fetches and parses a single page.
func (e *Extractor) Scrape(ctx context.Context, rawURL string) (*harvest.Document, error) {
	p, err := e.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return e.Parse(p), nil
}

// CrawlPages scrapes rawURL and every following page, concatenating their
// content in page order. Any failure aborts the whole sequence.
func (e *Extractor) CrawlPages(ctx context.Context, rawURL string) (*harvest.Document, error) {
	p, err := e.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc := e.Parse(p)
	if e.nextPage == nil {
		return doc, nil
	}

	seen := map[string]bool{p.URL: true}
	for {
		next, ok := e.nextPage(p)
		if !ok || strings.TrimSpace(next) == "" {
			return doc, nil
		}
		next = resolveAgainst(p.URL, strings.TrimSpace(next))
		if seen[next] {
			return doc, nil
		}
		seen[next] = true

		if p, err = e.Fetch(ctx, next); err != nil {
			return nil, err
		}
		doc.Content = append(doc.Content, e.Parse(p).Content...)
	}
}

// Harvest implements harvest.Harvester.
func (e *Extractor) Harvest(ctx context.Context, rawURL string) ([]*harvest.Document, error) {
	doc, err := e.CrawlPages(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return []*harvest.Document{doc}, nil
}

// NextPageSelector returns a NextPageFunc yielding the href of the first
// node matching selector.
func NextPageSelector(selector string) NextPageFunc {
	return func(p *Page) (string, bool) {
		href, ok := p.Doc.Find(selector).First().Attr("href")
		href = strings.TrimSpace(href)
		return href, ok && href != ""
	}
}
