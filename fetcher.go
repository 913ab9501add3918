package harvest

import (
	"context"
	"strings"
	"time"
)

// Fetch limits.
const (
	DefaultFetchTimeout = 30 * time.Second
	MaxFetchTimeout     = 30 * time.Second

	DefaultMaxRedirects = 5
	MaxRedirects        = 10

	// NoRedirects as FetchOptions.MaxRedirects refuses every redirect. Zero
	// cannot say this, since zero inherits.
	NoRedirects = -1

	DefaultMaxSizeKB = 1000
	MaxSizeKB        = 4000
)

// FetchOptions bounds a single fetch. The zero value of a field means
// "inherit", so a per-request value can be merged over a base.
type FetchOptions struct {
	Timeout      time.Duration
	MaxRedirects int
	MaxSizeKB    int
	// ContentTypes lists allowed MIME types or group names.
	// Empty, or containing ContentTypeAll, disables filtering.
	ContentTypes []string
}

// DefaultFetchOptions returns the base fetch configuration.
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		Timeout:      DefaultFetchTimeout,
		MaxRedirects: DefaultMaxRedirects,
		MaxSizeKB:    DefaultMaxSizeKB,
		ContentTypes: []string{ContentTypeAll},
	}
}

// Merge returns a copy of o with every non-zero field of override applied,
// clamped to the fetch maxima. Neither o nor override is modified.
func (o FetchOptions) Merge(override FetchOptions) FetchOptions {
	out := o
	if override.Timeout > 0 {
		out.Timeout = override.Timeout
	}
	if override.MaxRedirects != 0 {
		out.MaxRedirects = max(override.MaxRedirects, NoRedirects)
	}
	if override.MaxSizeKB > 0 {
		out.MaxSizeKB = override.MaxSizeKB
	}
	if len(override.ContentTypes) > 0 {
		out.ContentTypes = override.ContentTypes
	}
	out.ContentTypes = append([]string(nil), out.ContentTypes...)

	out.Timeout = min(out.Timeout, MaxFetchTimeout)
	out.MaxRedirects = min(out.MaxRedirects, MaxRedirects)
	out.MaxSizeKB = min(out.MaxSizeKB, MaxSizeKB)
	return out
}

// Redirects returns how many redirects a fetch with o may follow.
// NoRedirects survives repeated merging and reads as zero here.
func (o FetchOptions) Redirects() int {
	return max(o.MaxRedirects, 0)
}

// Page is the raw result of fetching or rendering a URL.
type Page struct {
	// URL is the URL that was requested.
	URL string

	// ResolvedURL is the final URL after redirects.
	ResolvedURL string

	ContentType string

	// Body is the raw response body.
	Body []byte

	// Rendered is true when the body came from a headless browser.
	Rendered bool
}

// SizeKB returns the body size in kilobytes, rounded.
func (p *Page) SizeKB() int {
	return (len(p.Body) + 512) / 1024
}

// Fetcher retrieves pages over the network within the given bounds.
type Fetcher interface {
	// Fetch retrieves url. Failures are reported with the fetch error
	// codes: ETIMEOUT, ETOOLARGE, ENOTFOUND, EMISMATCH or EUNKNOWN.
	Fetch(ctx context.Context, url string, opts FetchOptions) (*Page, error)
}

// Renderer retrieves pages through a headless browser so that scripts run
// before the markup is captured.
type Renderer interface {
	// Render navigates to url and returns the rendered HTML.
	Render(ctx context.Context, url string) (html string, err error)

	// Close releases browser resources.
	// Must be called when the Renderer is no longer needed.
	Close() error
}

// PrefixScheme trims url and prefixes it with http when it has no scheme.
// Protocol-relative URLs ("//host/path") become "http://host/path".
func PrefixScheme(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return url
	}
	if strings.HasPrefix(url, "//") {
		return "http:" + url
	}
	return "http://" + url
}
