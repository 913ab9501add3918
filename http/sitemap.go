package http

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/harvest"
	"github.com/temoto/robotstxt"
)

var _ harvest.SitemapSource = (*SitemapSource)(nil)

// maxSitemapBytes caps a single sitemap document.
const maxSitemapBytes = 50 << 20

// SitemapSource discovers URLs from sitemaps over HTTP.
type SitemapSource struct {
	client    *http.Client
	userAgent string
}

// NewSitemapSource returns a SitemapSource. A nil client uses http.DefaultClient.
func NewSitemapSource(client *http.Client) *SitemapSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapSource{client: client, userAgent: DefaultUserAgent}
}

// DiscoverURLs implements harvest.SitemapSource. URLs are deduplicated and
// returned in sitemap order. A site without sitemaps yields an empty slice.
func (s *SitemapSource) DiscoverURLs(ctx context.Context, siteURL string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(harvest.PrefixScheme(siteURL))
	if err != nil || base.Host == "" {
		return nil, harvest.Errorf(harvest.EINVALID, "invalid site url %q", siteURL)
	}
	prefix := strings.TrimSuffix(base.Path, "/")

	root := &url.URL{Scheme: base.Scheme, Host: base.Host}
	sitemaps, err := s.locate(ctx, root)
	if err != nil {
		return nil, err
	}

	urls := []string{}
	seenSitemaps := make(map[string]bool)
	seenURLs := make(map[string]bool)
	for _, sm := range sitemaps {
		found, err := s.read(ctx, sm, seenSitemaps)
		if err != nil {
			return nil, err
		}
		for _, u := range found {
			if seenURLs[u] || !underPath(u, prefix) {
				continue
			}
			seenURLs[u] = true
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// underPath reports whether rawURL's path is prefix or lies below it.
// /docs matches /docs and /docs/intro but not /documentation.
func underPath(rawURL, prefix string) bool {
	if prefix == "" {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Path == prefix || strings.HasPrefix(u.Path, prefix+"/")
}

// locate returns the sitemaps declared in robots.txt, or /sitemap.xml when
// robots.txt declares none and it exists.
func (s *SitemapSource) locate(ctx context.Context, root *url.URL) ([]string, error) {
	if sitemaps := s.fromRobots(ctx, root.JoinPath("robots.txt").String()); len(sitemaps) > 0 {
		return sitemaps, nil
	}

	fallback := root.JoinPath("sitemap.xml").String()
	ok, err := s.exists(ctx, fallback)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	if ok {
		return []string{fallback}, nil
	}
	return nil, nil
}

func (s *SitemapSource) fromRobots(ctx context.Context, robotsURL string) []string {
	resp, err := s.get(ctx, robotsURL)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data.Sitemaps
}

// read fetches one sitemap and returns its URLs, descending into
// sitemap indexes.
func (s *SitemapSource) read(ctx context.Context, sitemapURL string, seen map[string]bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seen[sitemapURL] {
		return nil, nil
	}
	seen[sitemapURL] = true

	resp, err := s.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, harvest.Errorf(harvest.ENOTFOUND, "sitemap %s not found", sitemapURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, harvest.Errorf(harvest.EUNKNOWN, "sitemap %s: HTTP %d", sitemapURL, resp.StatusCode)
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(io.LimitReader(resp.Body, maxSitemapBytes)); err != nil {
		return nil, harvest.Errorf(harvest.EUNKNOWN, "failed to parse sitemap %s: %v", sitemapURL, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, harvest.Errorf(harvest.EUNKNOWN, "empty sitemap %s", sitemapURL)
	}

	if root.Tag != "sitemapindex" {
		return locs(root, "url"), nil
	}
	var urls []string
	for _, child := range locs(root, "sitemap") {
		found, err := s.read(ctx, child, seen)
		if err != nil {
			return nil, err
		}
		urls = append(urls, found...)
	}
	return urls, nil
}

// locs returns the trimmed <loc> text of every tag child of root.
func locs(root *etree.Element, tag string) []string {
	var out []string
	for _, el := range root.SelectElements(tag) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if u := strings.TrimSpace(loc.Text()); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func (s *SitemapSource) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, harvest.Errorf(harvest.EINVALID, "invalid url %q", target)
	}
	req.Header.Set("User-Agent", s.userAgent)
	return s.client.Do(req)
}

func (s *SitemapSource) exists(ctx context.Context, target string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}
