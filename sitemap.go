package harvest

import (
	"context"
	"regexp"
)

// SitemapSource discovers page URLs from a site's sitemaps.
type SitemapSource interface {
	// DiscoverURLs returns the URLs listed by the sitemaps of siteURL's host.
	// Sitemaps are found through robots.txt, then /sitemap.xml. Sitemap
	// indexes are resolved recursively. When siteURL has a path, only URLs
	// under that path are returned.
	DiscoverURLs(ctx context.Context, siteURL string) ([]string, error)
}

var _ LinkFilter = (*PatternFilter)(nil)

// PatternFilter allows URLs by regular expression.
type PatternFilter struct {
	// Include patterns - if set, only URLs matching at least one pattern are allowed.
	Include []*regexp.Regexp

	// Exclude patterns - URLs matching any pattern are rejected.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp
}

// NewPatternFilter compiles include and exclude patterns. Invalid patterns
// return EINVALID.
func NewPatternFilter(include, exclude []string) (*PatternFilter, error) {
	f := &PatternFilter{}
	var err error
	if f.Include, err = compilePatterns(include); err != nil {
		return nil, err
	}
	if f.Exclude, err = compilePatterns(exclude); err != nil {
		return nil, err
	}
	return f, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid pattern %q: %v", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Allow implements LinkFilter. A nil filter allows everything.
func (f *PatternFilter) Allow(_ context.Context, url string) bool {
	return f.Match(url)
}

// Match reports whether url passes the filter.
func (f *PatternFilter) Match(url string) bool {
	if f == nil {
		return true
	}
	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(url) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, re := range f.Exclude {
		if re.MatchString(url) {
			return false
		}
	}
	return true
}

// FilterURLs returns the urls f allows, in order.
func (f *PatternFilter) FilterURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if f.Match(u) {
			out = append(out, u)
		}
	}
	return out
}
