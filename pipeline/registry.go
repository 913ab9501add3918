// Package pipeline runs queued scrape steps against named harvesters and
// passes every resulting document through a chain of formatters.
package pipeline

import (
	"sort"
	"sync"

	"github.com/fwojciec/harvest"
)

// Registry holds the named harvesters and formatters a Pipeline may use.
// It is populated during setup and becomes read-only once frozen.
type Registry struct {
	mu         sync.RWMutex
	frozen     bool
	harvesters map[string]harvest.Harvester
	formatters map[string]harvest.Formatter
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		harvesters: make(map[string]harvest.Harvester),
		formatters: make(map[string]harvest.Formatter),
	}
}

// AddHarvester registers h under its name.
func (r *Registry) AddHarvester(h harvest.Harvester) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return harvest.Errorf(harvest.EINTERNAL, "registry is frozen")
	}
	if _, ok := r.harvesters[h.Name()]; ok {
		return harvest.Errorf(harvest.EINVALID, "harvester %q already registered", h.Name())
	}
	r.harvesters[h.Name()] = h
	return nil
}

// AddFormatter registers f under its name.
func (r *Registry) AddFormatter(f harvest.Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return harvest.Errorf(harvest.EINTERNAL, "registry is frozen")
	}
	if _, ok := r.formatters[f.Name()]; ok {
		return harvest.Errorf(harvest.EINVALID, "formatter %q already registered", f.Name())
	}
	r.formatters[f.Name()] = f
	return nil
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Harvester returns the harvester registered under name.
func (r *Registry) Harvester(name string) (harvest.Harvester, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.harvesters[name]
	if !ok {
		return nil, harvest.Errorf(harvest.EINVALID, "unknown harvester %q", name)
	}
	return h, nil
}

// Formatter returns the formatter registered under name.
func (r *Registry) Formatter(name string) (harvest.Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formatters[name]
	if !ok {
		return nil, harvest.Errorf(harvest.EINVALID, "unknown formatter %q", name)
	}
	return f, nil
}

// Harvesters returns the registered harvester names, sorted.
func (r *Registry) Harvesters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.harvesters))
	for name := range r.harvesters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Formatters returns the registered formatter names, sorted.
func (r *Registry) Formatters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
