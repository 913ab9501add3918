package goquery

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/fwojciec/harvest"
)

var _ harvest.Harvester = (*Registry)(nil)

// Registry routes URLs to extractors by domain. A URL's host, with any
// leading "www." removed, is matched against each registered pattern in
// registration order. URLs no pattern claims go to the fallback.
type Registry struct {
	mu       sync.RWMutex
	entries  []registryEntry
	fallback *Extractor
}

type registryEntry struct {
	pattern   *regexp.Regexp
	extractor *Extractor
}

// NewRegistry creates a Registry with the given fallback extractor.
func NewRegistry(fallback *Extractor) *Registry {
	return &Registry{fallback: fallback}
}

// Register adds an extractor for hosts matching pattern.
func (r *Registry) Register(pattern string, e *Extractor) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return harvest.Errorf(harvest.EINVALID, "invalid domain pattern %q: %v", pattern, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, registryEntry{pattern: re, extractor: e})
	return nil
}

// Get returns the extractor for rawURL, falling back when no pattern matches.
func (r *Registry) Get(rawURL string) *Extractor {
	host := Host(rawURL)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.entries {
		if host != "" && entry.pattern.MatchString(host) {
			return entry.extractor
		}
	}
	return r.fallback
}

// List returns the names of registered extractors in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		names = append(names, entry.extractor.Name())
	}
	return names
}

// Name returns "registry".
func (r *Registry) Name() string {
	return "registry"
}

// Harvest scrapes rawURL with the extractor registered for its domain.
func (r *Registry) Harvest(ctx context.Context, rawURL string) ([]*harvest.Document, error) {
	e := r.Get(rawURL)
	if e == nil {
		return nil, harvest.Errorf(harvest.EINTERNAL, "no extractor for %q", rawURL)
	}
	return e.Harvest(ctx, rawURL)
}

// Host returns the host of rawURL without a leading "www.", or "" when the
// URL cannot be parsed.
func Host(rawURL string) string {
	u, err := url.Parse(harvest.PrefixScheme(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
