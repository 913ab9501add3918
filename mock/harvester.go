package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.Harvester = (*Harvester)(nil)

// Harvester is a mock implementation of harvest.Harvester.
type Harvester struct {
	NameFn    func() string
	HarvestFn func(ctx context.Context, url string) ([]*harvest.Document, error)
}

func (h *Harvester) Name() string {
	return h.NameFn()
}

func (h *Harvester) Harvest(ctx context.Context, url string) ([]*harvest.Document, error) {
	return h.HarvestFn(ctx, url)
}

var _ harvest.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of harvest.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}

var _ harvest.LinkFilter = (*LinkFilter)(nil)

// LinkFilter is a mock implementation of harvest.LinkFilter.
type LinkFilter struct {
	AllowFn func(ctx context.Context, url string) bool
}

func (f *LinkFilter) Allow(ctx context.Context, url string) bool {
	return f.AllowFn(ctx, url)
}
