// Package http provides an HTTP-based implementation of harvest.Fetcher
// for pages that don't require JavaScript rendering.
package http

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/fwojciec/harvest"
)

// Default request headers, shaped like a desktop browser.
const (
	DefaultUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/46.0.2490.86 Safari/537.36"
	DefaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	DefaultAcceptLanguage = "en-US,en;q=0.8"
)

// Ensure Fetcher implements harvest.Fetcher at compile time.
var _ harvest.Fetcher = (*Fetcher)(nil)

var errTooManyRedirects = errors.New("too many redirects")

// Fetcher retrieves pages with plain HTTP GET requests, enforcing the
// timeout, redirect, size and content-type bounds of each request.
type Fetcher struct {
	client  *http.Client
	headers http.Header
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the underlying HTTP client. Its CheckRedirect is
// replaced per request to enforce the redirect limit.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithHeader sets a request header, replacing the default value if any.
func WithHeader(key, value string) Option {
	return func(f *Fetcher) {
		f.headers.Set(key, value)
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  &http.Client{},
		headers: DefaultHeaders(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DefaultHeaders returns the headers sent with every request.
func DefaultHeaders() http.Header {
	h := make(http.Header)
	h.Set("Pragma", "no-cache")
	h.Set("Cache-Control", "no-cache")
	h.Set("Accept", DefaultAccept)
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("User-Agent", DefaultUserAgent)
	h.Set("Accept-Language", DefaultAcceptLanguage)
	h.Set("Accept-Encoding", "gzip, deflate, br")
	return h
}

// Fetch retrieves url within the bounds of opts, merged over the defaults.
func (f *Fetcher) Fetch(ctx context.Context, url string, opts harvest.FetchOptions) (*harvest.Page, error) {
	opts = harvest.DefaultFetchOptions().Merge(opts)
	url = harvest.PrefixScheme(url)

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, harvest.Errorf(harvest.EUNKNOWN, "invalid url %q: %v", url, err)
	}
	req.Header = f.headers.Clone()

	client := *f.client
	client.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if len(via) > opts.Redirects() {
			return errTooManyRedirects
		}
		return nil
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, harvest.FetchError(harvest.ENOTFOUND)
	default:
		return nil, harvest.FetchError(harvest.EUNKNOWN)
	}

	contentType := resp.Header.Get("Content-Type")
	if !harvest.AcceptsContentType(opts.ContentTypes, contentType) {
		return nil, harvest.FetchError(harvest.EMISMATCH)
	}

	limit := int64(opts.MaxSizeKB) * 1024
	if resp.ContentLength > limit {
		return nil, harvest.FetchError(harvest.ETOOLARGE)
	}
	body, err := readBody(resp, limit)
	if err != nil {
		return nil, classify(ctx, err)
	}

	resolved := url
	if resp.Request != nil && resp.Request.URL != nil {
		resolved = resp.Request.URL.String()
	}

	return &harvest.Page{
		URL:         url,
		ResolvedURL: resolved,
		ContentType: contentType,
		Body:        body,
	}, nil
}

var errTooLarge = errors.New("body exceeds size limit")

// readBody decodes the response body and reads at most limit bytes of it.
func readBody(resp *http.Response, limit int64) ([]byte, error) {
	var r io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		r = fl
	case "br":
		r = brotli.NewReader(resp.Body)
	}

	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, errTooLarge
	}
	return body, nil
}

// classify maps a transport error to a fetch error kind.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, errTooLarge) {
		return harvest.FetchError(harvest.ETOOLARGE)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return harvest.FetchError(harvest.ETIMEOUT)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return harvest.FetchError(harvest.ETIMEOUT)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return harvest.FetchError(harvest.EUNKNOWN)
}
