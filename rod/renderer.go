// Package rod renders pages in headless Chrome via github.com/go-rod/rod.
package rod

import (
	"context"
	"errors"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Renderer implements harvest.Renderer at compile time.
var _ harvest.Renderer = (*Renderer)(nil)

// Renderer returns the DOM of a page after its scripts have run.
// Renderer is safe for concurrent use by multiple goroutines.
type Renderer struct {
	browser *browser

	recycleAfter int
	timeout      time.Duration
	settle       time.Duration
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithRecycleAfter sets how many renders a browser process serves before
// it is replaced. Zero disables recycling.
func WithRecycleAfter(n int) Option {
	return func(r *Renderer) {
		r.recycleAfter = n
	}
}

// WithTimeout bounds a single render. Defaults to harvest.DefaultFetchTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		r.timeout = d
	}
}

// WithSettle waits d after the load event so late scripts can finish.
func WithSettle(d time.Duration) Option {
	return func(r *Renderer) {
		r.settle = d
	}
}

// NewRenderer launches a headless Chrome browser.
// Close must be called when the Renderer is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewRenderer(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		recycleAfter: DefaultRecycleAfter,
		timeout:      harvest.DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	b, err := newBrowser(r.recycleAfter)
	if err != nil {
		return nil, err
	}
	r.browser = b
	return r, nil
}

// Render navigates to url and returns the rendered HTML.
func (r *Renderer) Render(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	b, err := r.browser.acquire()
	if err != nil {
		return "", harvest.Errorf(harvest.EINTERNAL, "%v", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", harvest.Errorf(harvest.EINTERNAL, "opening page: %v", err)
	}
	defer page.Close()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	page = page.Context(ctx)

	if err := page.Navigate(harvest.PrefixScheme(url)); err != nil {
		return "", classify(ctx, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", classify(ctx, err)
	}
	if r.settle > 0 {
		select {
		case <-time.After(r.settle):
		case <-ctx.Done():
			return "", classify(ctx, ctx.Err())
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", classify(ctx, err)
	}
	return html, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (r *Renderer) Close() error {
	return r.browser.close()
}

// LauncherPID returns the process ID of the current browser launcher.
func (r *Renderer) LauncherPID() int {
	return r.browser.pid()
}

func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return harvest.FetchError(harvest.ETIMEOUT)
	case errors.Is(err, context.Canceled):
		return err
	}
	return harvest.FetchError(harvest.EUNKNOWN)
}
