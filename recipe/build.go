package recipe

import (
	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/crawl"
	hq "github.com/fwojciec/harvest/goquery"
	"github.com/fwojciec/harvest/readability"
	"github.com/fwojciec/harvest/trafilatura"
)

// Deps are the services shared by every harvester built from a catalog.
type Deps struct {
	Fetcher  harvest.Fetcher
	Renderer harvest.Renderer
	Limiter  harvest.DomainLimiter
	Filters  []harvest.LinkFilter
	Progress crawl.ProgressFunc
}

// Set is the harvesters built from a catalog.
type Set struct {
	// Extractors holds one extractor per recipe, in catalog order.
	Extractors []*hq.Extractor

	// Registry routes URLs to recipes by domain, and to the fallback
	// recipe otherwise.
	Registry *hq.Registry

	Controllers []*crawl.Controller
}

// Harvesters returns every harvester of the set: the fallback, the recipe
// extractors, the registry and the crawl controllers.
func (s *Set) Harvesters() []harvest.Harvester {
	var out []harvest.Harvester
	for _, e := range s.Extractors {
		out = append(out, e)
	}
	out = append(out, s.Registry)
	for _, c := range s.Controllers {
		out = append(out, c)
	}
	return out
}

// Controller returns the crawl controller named name, or nil.
func (s *Set) Controller(name string) *crawl.Controller {
	for _, c := range s.Controllers {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// Build constructs the harvesters described by c. The generic fallback
// extractor is always included under goquery.FallbackName unless a recipe
// claims that name.
func (c *Catalog) Build(deps Deps) (*Set, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	base := c.Fetch.Options()
	fallback := hq.NewFallback(deps.Fetcher, hq.WithFetchOptions(base))

	set := &Set{}
	byName := make(map[string]*hq.Extractor)
	for _, r := range c.Recipes {
		e, err := r.build(deps, base, fallback)
		if err != nil {
			return nil, err
		}
		byName[r.Name] = e
		set.Extractors = append(set.Extractors, e)
	}
	if _, ok := byName[hq.FallbackName]; !ok {
		byName[hq.FallbackName] = fallback
		set.Extractors = append([]*hq.Extractor{fallback}, set.Extractors...)
	}

	set.Registry = hq.NewRegistry(byName[hq.FallbackName])
	for _, r := range c.Recipes {
		for _, pattern := range r.Domains {
			if err := set.Registry.Register(pattern, byName[r.Name]); err != nil {
				return nil, err
			}
		}
	}

	for _, cr := range c.Crawls {
		ctrl, err := cr.build(deps, byName)
		if err != nil {
			return nil, err
		}
		set.Controllers = append(set.Controllers, ctrl)
	}
	return set, nil
}

func (r Recipe) build(deps Deps, base harvest.FetchOptions, fallback *hq.Extractor) (*hq.Extractor, error) {
	opts := []hq.Option{hq.WithFetchOptions(base.Merge(r.Fetch.Options()))}
	if r.Render {
		if deps.Renderer == nil {
			return nil, harvest.Errorf(harvest.EINVALID, "recipe %q renders pages but no renderer is configured", r.Name)
		}
		opts = append(opts, hq.WithRenderer(deps.Renderer))
	}
	if r.Root != "" {
		opts = append(opts, hq.WithRoot(r.Root))
	}
	if len(r.Exclude) > 0 {
		opts = append(opts, hq.WithExcluded(r.Exclude...))
	}
	if len(r.Final) > 0 {
		opts = append(opts, hq.WithFinal(r.Final...))
	}
	if r.Delay > 0 {
		opts = append(opts, hq.WithDelay(r.Delay))
	}
	if r.NextPage != "" {
		opts = append(opts, hq.WithNextPage(hq.NextPageSelector(r.NextPage)))
	}
	if r.Fallback {
		opts = append(opts, hq.WithFallback(fallback))
	}
	if r.Traverse != nil && !*r.Traverse {
		opts = append(opts, hq.WithoutTraversal())
	}
	if r.Defaults != nil && !*r.Defaults {
		opts = append(opts, hq.WithoutDefaultSelectors())
	}

	selectors := make([]hq.Selector, 0, len(r.Selectors))
	for _, s := range r.Selectors {
		sel, err := s.build()
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, sel)
	}
	if len(selectors) > 0 {
		opts = append(opts, hq.WithSelectors(selectors...))
	}

	rules := make([]hq.Rule, 0, len(r.Rules))
	for _, rule := range r.Rules {
		built, err := rule.build()
		if err != nil {
			return nil, err
		}
		rules = append(rules, built)
	}
	if len(rules) > 0 {
		opts = append(opts, hq.WithRules(rules...))
	}

	switch r.Main {
	case MainTrafilatura:
		return trafilatura.NewExtractor(r.Name, deps.Fetcher, opts...), nil
	case MainReadability:
		return readability.NewExtractor(r.Name, deps.Fetcher, opts...), nil
	}
	return hq.NewExtractor(r.Name, deps.Fetcher, opts...), nil
}

func (cr Crawl) build(deps Deps, extractors map[string]*hq.Extractor) (*crawl.Controller, error) {
	opts := []crawl.Option{
		crawl.WithMaxDepth(cr.MaxDepth),
		crawl.WithMaxPages(cr.MaxPages),
		crawl.WithConcurrency(cr.Concurrency),
	}
	if cr.SkipUnrouted {
		opts = append(opts, crawl.WithSkipUnrouted())
	}
	if cr.Dedupe {
		opts = append(opts, crawl.WithDedupe())
	}
	if cr.Links == LinksNavigation {
		opts = append(opts, crawl.WithLinkRule(hq.NavigationRule()))
	}
	if deps.Limiter != nil {
		opts = append(opts, crawl.WithLimiter(deps.Limiter))
	}
	for _, f := range deps.Filters {
		opts = append(opts, crawl.WithLinkFilter(f))
	}
	if deps.Progress != nil {
		opts = append(opts, crawl.WithProgress(deps.Progress))
	}

	ctrl := crawl.NewController(cr.Name, opts...)
	for _, route := range cr.Routes {
		if err := ctrl.AddRoute(route.Name, route.Pattern, extractors[route.Recipe]); err != nil {
			return nil, err
		}
	}
	return ctrl, nil
}
