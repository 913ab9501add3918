// Package bloom remembers visited URLs in a Bloom filter so long crawls
// skip pages they have already fetched without keeping every URL in memory.
package bloom

import (
	"context"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/fwojciec/harvest"
)

var _ harvest.LinkFilter = (*Filter)(nil)

// Filter is a concurrency-safe visited set. URLs differing only by
// fragment are treated as the same page.
type Filter struct {
	mu sync.Mutex
	f  *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected URLs
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Visit marks url as visited and reports whether it was new.
// False positives are possible, so a new URL is occasionally reported as seen.
func (f *Filter) Visit(url string) bool {
	key := stripFragment(url)
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.f.TestAndAddString(key)
}

// Seen reports whether url might have been visited.
func (f *Filter) Seen(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.TestString(stripFragment(url))
}

// Allow implements harvest.LinkFilter: a link is allowed the first time it
// is offered.
func (f *Filter) Allow(_ context.Context, url string) bool {
	return f.Visit(url)
}

// EstimatedCount returns the approximate number of URLs visited.
func (f *Filter) EstimatedCount() uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint(f.f.ApproximatedSize())
}

func stripFragment(url string) string {
	if i := strings.IndexByte(url, '#'); i != -1 {
		return url[:i]
	}
	return url
}
