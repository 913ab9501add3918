// Package recipe loads declarative extractor and crawl definitions from YAML
// and builds the corresponding harvesters.
package recipe

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fwojciec/harvest"
	hq "github.com/fwojciec/harvest/goquery"
	"gopkg.in/yaml.v3"
)

// Main-content engines a recipe may use.
const (
	MainTrafilatura = "trafilatura"
	MainReadability = "readability"
)

// Link modes of a crawl.
const (
	LinksAll        = "all"
	LinksNavigation = "navigation"
)

// Catalog is the root of a recipe file.
type Catalog struct {
	Fetch   Fetch    `yaml:"fetch"`
	Recipes []Recipe `yaml:"recipes"`
	Crawls  []Crawl  `yaml:"crawls"`
}

// Fetch mirrors harvest.FetchOptions. An explicit maxRedirects of 0 refuses
// redirects; leaving it out inherits.
type Fetch struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxRedirects *int          `yaml:"maxRedirects"`
	MaxSizeKB    int           `yaml:"maxSizeKB"`
	ContentTypes []string      `yaml:"contentTypes"`
}

// Options converts f to harvest.FetchOptions.
func (f Fetch) Options() harvest.FetchOptions {
	opts := harvest.FetchOptions{
		Timeout:      f.Timeout,
		MaxSizeKB:    f.MaxSizeKB,
		ContentTypes: f.ContentTypes,
	}
	if f.MaxRedirects != nil {
		opts.MaxRedirects = *f.MaxRedirects
		if opts.MaxRedirects <= 0 {
			opts.MaxRedirects = harvest.NoRedirects
		}
	}
	return opts
}

// Recipe describes one extractor.
type Recipe struct {
	Name string `yaml:"name"`

	// Domains are host patterns routing scrapes through the domain registry.
	Domains []string `yaml:"domains"`

	Root     string        `yaml:"root"`
	Exclude  []string      `yaml:"exclude"`
	Final    []string      `yaml:"final"`
	Render   bool          `yaml:"render"`
	Delay    time.Duration `yaml:"delay"`
	NextPage string        `yaml:"nextPage"`
	Fallback bool          `yaml:"fallback"`
	Main     string        `yaml:"main"`
	Traverse *bool         `yaml:"traverse"`
	Defaults *bool         `yaml:"defaultSelectors"`
	Fetch    Fetch         `yaml:"fetch"`

	Selectors []Selector `yaml:"selectors"`
	Rules     []Rule     `yaml:"rules"`
}

// Selector describes a named field. A selector with Attribute set is a meta
// selector reading its Keys; otherwise Query holds CSS queries.
type Selector struct {
	Name      string   `yaml:"name"`
	Query     []string `yaml:"query"`
	Return    string   `yaml:"return"`
	Attribute string   `yaml:"attribute"`
	Keys      []Key    `yaml:"keys"`
}

// Key is one sub-field of a meta selector.
type Key struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
}

// Rule maps matching nodes to blocks. Extract is one of "text", "html",
// "image", "link" or "link:<attr>", the last reading a link from the named
// attribute.
type Rule struct {
	Match   []string `yaml:"match"`
	Extract string   `yaml:"extract"`
}

// Crawl describes a crawl controller.
type Crawl struct {
	Name         string  `yaml:"name"`
	MaxDepth     int     `yaml:"maxDepth"`
	MaxPages     int     `yaml:"maxPages"`
	Concurrency  int     `yaml:"concurrency"`
	SkipUnrouted bool    `yaml:"skipUnrouted"`
	Dedupe       bool    `yaml:"dedupe"`
	Links        string  `yaml:"links"`
	Routes       []Route `yaml:"routes"`
}

// Route binds a URL pattern to a recipe.
type Route struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Recipe  string `yaml:"recipe"`
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, harvest.Errorf(harvest.ENOTFOUND, "recipe file %q not found", path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read recipe file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads and validates a catalog.
func Decode(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, harvest.Errorf(harvest.EINVALID, "failed to parse recipes: %v", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks names, selectors, and references.
func (c *Catalog) Validate() error {
	names := make(map[string]bool)
	for _, r := range c.Recipes {
		if r.Name == "" {
			return harvest.Errorf(harvest.EINVALID, "recipe name required")
		}
		if names[r.Name] {
			return harvest.Errorf(harvest.EINVALID, "duplicate recipe %q", r.Name)
		}
		names[r.Name] = true
		if err := r.validate(); err != nil {
			return err
		}
	}

	crawls := make(map[string]bool)
	for _, cr := range c.Crawls {
		if cr.Name == "" {
			return harvest.Errorf(harvest.EINVALID, "crawl name required")
		}
		if names[cr.Name] || crawls[cr.Name] {
			return harvest.Errorf(harvest.EINVALID, "duplicate name %q", cr.Name)
		}
		crawls[cr.Name] = true
		switch cr.Links {
		case "", LinksAll, LinksNavigation:
		default:
			return harvest.Errorf(harvest.EINVALID, "crawl %q: unknown links mode %q", cr.Name, cr.Links)
		}
		for _, route := range cr.Routes {
			if !names[route.Recipe] {
				return harvest.Errorf(harvest.EINVALID, "crawl %q: route %q uses unknown recipe %q", cr.Name, route.Name, route.Recipe)
			}
		}
	}
	return nil
}

func (r Recipe) validate() error {
	wrap := func(err error) error {
		return harvest.Errorf(harvest.EINVALID, "recipe %q: %s", r.Name, harvest.ErrorMessage(err))
	}
	switch r.Main {
	case "", MainTrafilatura, MainReadability:
	default:
		return harvest.Errorf(harvest.EINVALID, "recipe %q: unknown main-content engine %q", r.Name, r.Main)
	}
	if err := hq.ValidateSelectors(r.Exclude...); err != nil {
		return wrap(err)
	}
	if err := hq.ValidateSelectors(r.Final...); err != nil {
		return wrap(err)
	}
	if r.Root != "" {
		if err := hq.ValidateSelectors(r.Root); err != nil {
			return wrap(err)
		}
	}
	for _, s := range r.Selectors {
		if _, err := s.build(); err != nil {
			return wrap(err)
		}
	}
	for _, rule := range r.Rules {
		if _, err := rule.build(); err != nil {
			return wrap(err)
		}
	}
	return nil
}

func (s Selector) build() (hq.Selector, error) {
	if s.Name == "" {
		return hq.Selector{}, harvest.Errorf(harvest.EINVALID, "selector name required")
	}
	if s.Attribute != "" {
		keys := make([]hq.MetaKey, 0, len(s.Keys))
		for _, k := range s.Keys {
			keys = append(keys, hq.Key(k.Name, k.Values...))
		}
		return hq.NewMetaSelector(s.Name, s.Attribute, keys...), nil
	}
	if len(s.Query) == 0 {
		return hq.Selector{}, harvest.Errorf(harvest.EINVALID, "selector %q has no query", s.Name)
	}
	if err := hq.ValidateSelectors(s.Query...); err != nil {
		return hq.Selector{}, err
	}
	ret, err := hq.ParseReturn(s.Return)
	if err != nil {
		return hq.Selector{}, err
	}
	return hq.NewSelector(s.Name, ret, s.Query...), nil
}

func (r Rule) build() (hq.Rule, error) {
	if len(r.Match) == 0 {
		return hq.Rule{}, harvest.Errorf(harvest.EINVALID, "rule has no match selectors")
	}
	if err := hq.ValidateSelectors(r.Match...); err != nil {
		return hq.Rule{}, err
	}
	var fn hq.ExtractFunc
	switch r.Extract {
	case "", "text":
		fn = hq.ExtractText
	case "html":
		fn = hq.ExtractHTML
	case "image":
		fn = hq.ExtractImage
	case "link":
		fn = hq.ExtractLink
	default:
		attr, ok := strings.CutPrefix(r.Extract, "link:")
		if !ok || attr == "" {
			return hq.Rule{}, harvest.Errorf(harvest.EINVALID, "invalid extract %q", r.Extract)
		}
		fn = hq.ExtractLinkAttr(attr)
	}
	return hq.NewRule(r.Match, fn), nil
}
