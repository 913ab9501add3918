package crawl

import (
	"context"
	"net"
	"strings"
	"sync"

	"github.com/fwojciec/harvest"
	"golang.org/x/time/rate"
)

var _ harvest.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter spaces requests per domain with one token bucket each.
// Domains differing only in case, a "www." prefix or a port share a bucket.
type DomainLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// LimiterOption configures a DomainLimiter.
type LimiterOption func(*DomainLimiter)

// WithBurst lets n requests to a domain through back to back. Default 1.
func WithBurst(n int) LimiterOption {
	return func(d *DomainLimiter) {
		if n > 0 {
			d.burst = n
		}
	}
}

// NewDomainLimiter allows rps requests per second to each domain.
// A non-positive rps disables limiting.
func NewDomainLimiter(rps float64, opts ...LimiterOption) *DomainLimiter {
	d := &DomainLimiter{
		limit:   rate.Inf,
		burst:   1,
		buckets: map[string]*rate.Limiter{},
	}
	if rps > 0 {
		d.limit = rate.Limit(rps)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Wait blocks until a request to domain is allowed or ctx is done.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return d.bucket(domainKey(domain)).Wait(ctx)
}

func (d *DomainLimiter) bucket(key string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buckets[key]
	if !ok {
		b = rate.NewLimiter(d.limit, d.burst)
		d.buckets[key] = b
	}
	return b
}

func domainKey(domain string) string {
	if host, _, err := net.SplitHostPort(domain); err == nil {
		domain = host
	}
	return strings.TrimPrefix(strings.ToLower(domain), "www.")
}
