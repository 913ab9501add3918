package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of harvest.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string, opts harvest.FetchOptions) (*harvest.Page, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string, opts harvest.FetchOptions) (*harvest.Page, error) {
	return f.FetchFn(ctx, url, opts)
}

var _ harvest.Renderer = (*Renderer)(nil)

// Renderer is a mock implementation of harvest.Renderer.
type Renderer struct {
	RenderFn func(ctx context.Context, url string) (string, error)
	CloseFn  func() error
}

func (r *Renderer) Render(ctx context.Context, url string) (string, error) {
	return r.RenderFn(ctx, url)
}

func (r *Renderer) Close() error {
	return r.CloseFn()
}
