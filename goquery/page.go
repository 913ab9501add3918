package goquery

import (
	"bytes"
	"context"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/harvest"
)

// Page is a fetched page with its parsed markup and evaluated selectors.
type Page struct {
	// URL is the resolved URL after redirects.
	URL         string
	ContentType string
	SizeKB      int

	Doc        *goquery.Document
	Framework  Framework
	Navigation bool
	Fields     harvest.Fields
	Nodes      map[string]*goquery.Selection
}

// Info returns the rule context for p.
func (p *Page) Info() PageInfo {
	return PageInfo{URL: p.URL, Fields: p.Fields, Doc: p.Doc, Framework: p.Framework, Navigation: p.Navigation}
}

// NewPage parses raw and evaluates selectors against it.
func NewPage(raw *harvest.Page, selectors []Selector) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Body))
	if err != nil {
		return nil, harvest.Errorf(harvest.EUNKNOWN, "failed to parse HTML: %v", err)
	}
	resolved := raw.ResolvedURL
	if resolved == "" {
		resolved = raw.URL
	}
	res := Select(doc.Selection, selectors)
	fw := Detect(doc)
	return &Page{
		URL:         resolved,
		ContentType: raw.ContentType,
		SizeKB:      raw.SizeKB(),
		Doc:         doc,
		Framework:   fw,
		Navigation:  doc.Find(fw.containers()).Length() > 0,
		Fields:      res.Fields,
		Nodes:       res.Nodes,
	}, nil
}

// PageFetcher fetches pages and evaluates a fixed selector set on them.
type PageFetcher struct {
	fetcher   harvest.Fetcher
	renderer  harvest.Renderer
	selectors []Selector
	opts      harvest.FetchOptions
}

// NewPageFetcher returns a PageFetcher. renderer may be nil when pages are
// never rendered.
func NewPageFetcher(fetcher harvest.Fetcher, renderer harvest.Renderer, selectors []Selector, opts harvest.FetchOptions) *PageFetcher {
	return &PageFetcher{
		fetcher:   fetcher,
		renderer:  renderer,
		selectors: selectors,
		opts:      harvest.DefaultFetchOptions().Merge(opts),
	}
}

// Fetch retrieves rawURL over the network and parses it.
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if f.fetcher == nil {
		return nil, harvest.Errorf(harvest.EINTERNAL, "no fetcher configured")
	}
	u, err := checkURL(rawURL)
	if err != nil {
		return nil, err
	}
	raw, err := f.fetcher.Fetch(ctx, u, f.opts)
	if err != nil {
		return nil, err
	}
	return NewPage(raw, f.selectors)
}

// Render retrieves rawURL through the headless renderer and parses it.
func (f *PageFetcher) Render(ctx context.Context, rawURL string) (*Page, error) {
	if f.renderer == nil {
		return nil, harvest.Errorf(harvest.EINTERNAL, "no renderer configured")
	}
	u, err := checkURL(rawURL)
	if err != nil {
		return nil, err
	}
	html, err := f.renderer.Render(ctx, u)
	if err != nil {
		return nil, err
	}
	return NewPage(&harvest.Page{
		URL:         u,
		ResolvedURL: u,
		ContentType: "text/html",
		Body:        []byte(html),
		Rendered:    true,
	}, f.selectors)
}

func checkURL(rawURL string) (string, error) {
	s := harvest.PrefixScheme(rawURL)
	u, err := url.Parse(s)
	if s == "" || err != nil || u.Host == "" {
		return "", harvest.Errorf(harvest.EUNKNOWN, "invalid url %q", rawURL)
	}
	return s, nil
}
