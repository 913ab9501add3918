// Package chromedp implements harvest.Renderer on top of
// github.com/chromedp/chromedp, driving one shared Chrome process with a
// tab per render.
package chromedp

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/fwojciec/harvest"
)

var _ harvest.Renderer = (*Renderer)(nil)

// DefaultSessions is the number of tabs rendering concurrently.
const DefaultSessions = 2

// Renderer renders pages in tabs of a shared headless Chrome.
type Renderer struct {
	sessions     int
	timeout      time.Duration
	waitSelector string
	settle       time.Duration
	userAgent    string

	semaphore     chan struct{}
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	closeOnce     sync.Once
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSessions bounds the number of concurrent tabs.
func WithSessions(n int) Option {
	return func(r *Renderer) { r.sessions = n }
}

// WithTimeout bounds a single render.
func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) { r.timeout = d }
}

// WithWaitSelector waits for selector to be ready before capturing.
func WithWaitSelector(selector string) Option {
	return func(r *Renderer) { r.waitSelector = selector }
}

// WithSettle sleeps d before capturing the DOM.
func WithSettle(d time.Duration) Option {
	return func(r *Renderer) { r.settle = d }
}

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) Option {
	return func(r *Renderer) { r.userAgent = ua }
}

// NewRenderer starts a headless Chrome. Close must be called when done.
func NewRenderer(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		sessions:     DefaultSessions,
		timeout:      harvest.DefaultFetchTimeout,
		waitSelector: "body",
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sessions <= 0 {
		r.sessions = 1
	}
	r.semaphore = make(chan struct{}, r.sessions)

	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.userAgent != "" {
		execOpts = append(execOpts, chromedp.UserAgent(r.userAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), execOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so launch failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, harvest.Errorf(harvest.EINTERNAL, "launching chrome: %v", err)
	}

	r.allocCancel = allocCancel
	r.browserCtx = browserCtx
	r.browserCancel = browserCancel
	return r, nil
}

// Render opens url in a new tab and returns the document's outer HTML.
func (r *Renderer) Render(ctx context.Context, url string) (string, error) {
	select {
	case r.semaphore <- struct{}{}:
		defer func() { <-r.semaphore }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTimeout()

	// Propagate caller cancellation into the tab, whose context derives
	// from the browser rather than from ctx.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	actions := []chromedp.Action{chromedp.Navigate(harvest.PrefixScheme(url))}
	if r.waitSelector != "" {
		actions = append(actions, chromedp.WaitReady(r.waitSelector, chromedp.ByQuery))
	}
	if r.settle > 0 {
		actions = append(actions, chromedp.Sleep(r.settle))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(tabCtx.Err(), context.DeadlineExceeded) {
			return "", harvest.FetchError(harvest.ETIMEOUT)
		}
		return "", harvest.FetchError(harvest.EUNKNOWN)
	}
	return html, nil
}

// Close shuts down Chrome. Close is safe to call multiple times.
func (r *Renderer) Close() error {
	r.closeOnce.Do(func() {
		r.browserCancel()
		r.allocCancel()
	})
	return nil
}
