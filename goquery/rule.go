package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/harvest"
)

// PageInfo is the page context handed to rules and hooks.
type PageInfo struct {
	// URL is the resolved URL of the page being traversed.
	URL       string
	Fields    harvest.Fields
	Doc       *goquery.Document
	Framework Framework

	// Navigation reports whether the page has any navigation container of
	// its framework.
	Navigation bool
}

// ExtractFunc turns a matched node into at most one block.
// Returning false skips the node.
type ExtractFunc func(node *goquery.Selection, info PageInfo) (harvest.Block, bool)

// Rule pairs node-matching selectors with an extraction function.
type Rule struct {
	selectors []string
	match     matcher
	extract   ExtractFunc
}

// NewRule returns a rule applying extract to nodes matching any of selectors.
func NewRule(selectors []string, extract ExtractFunc) Rule {
	return Rule{
		selectors: append([]string(nil), selectors...),
		match:     compile(selectors),
		extract:   extract,
	}
}

// Selectors returns the selectors the rule matches on.
func (r Rule) Selectors() []string {
	return append([]string(nil), r.selectors...)
}

// Matches reports whether the rule applies to node.
func (r Rule) Matches(node *goquery.Selection) bool {
	return r.match.matches(node)
}

// Apply runs the rule's extraction function on node.
func (r Rule) Apply(node *goquery.Selection, info PageInfo) (harvest.Block, bool) {
	if r.extract == nil {
		return harvest.Block{}, false
	}
	return r.extract(node, info)
}

// LinkRule returns the default link discovery rule: every anchor with a
// non-empty href becomes a link marker.
func LinkRule() Rule {
	return NewRule([]string{"a"}, ExtractLink)
}

// ExtractText returns the trimmed text of node.
func ExtractText(node *goquery.Selection, _ PageInfo) (harvest.Block, bool) {
	text := strings.TrimSpace(node.Text())
	if text == "" {
		return harvest.Block{}, false
	}
	return harvest.Text(text), true
}

// ExtractHTML returns the outer HTML of node.
func ExtractHTML(node *goquery.Selection, _ PageInfo) (harvest.Block, bool) {
	html, err := goquery.OuterHtml(node)
	if err != nil || strings.TrimSpace(html) == "" {
		return harvest.Block{}, false
	}
	return harvest.HTML(html), true
}

// ExtractImage returns the src (or data-src) of node resolved against the page URL.
func ExtractImage(node *goquery.Selection, info PageInfo) (harvest.Block, bool) {
	src := imageSource(node)
	if src == "" {
		return harvest.Block{}, false
	}
	return harvest.Image(resolveAgainst(info.URL, src)), true
}

// ExtractLink returns the trimmed href of node as a link marker.
func ExtractLink(node *goquery.Selection, _ PageInfo) (harvest.Block, bool) {
	href, _ := node.Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		return harvest.Block{}, false
	}
	return harvest.Link(href), true
}

// ExtractLinkAttr returns a rule function emitting the named attribute as a
// link marker, for recipes that discover links outside anchors.
func ExtractLinkAttr(attr string) ExtractFunc {
	return func(node *goquery.Selection, _ PageInfo) (harvest.Block, bool) {
		v, _ := node.Attr(attr)
		v = strings.TrimSpace(v)
		if v == "" {
			return harvest.Block{}, false
		}
		return harvest.Link(v), true
	}
}

func imageSource(node *goquery.Selection) string {
	if src, _ := node.Attr("src"); strings.TrimSpace(src) != "" {
		return strings.TrimSpace(src)
	}
	src, _ := node.Attr("data-src")
	return strings.TrimSpace(src)
}

// resolveAgainst resolves ref against base. Protocol-relative results get
// an http scheme. Unparseable input is returned unchanged.
func resolveAgainst(base, ref string) string {
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if base != "" && !r.IsAbs() {
		if b, err := url.Parse(base); err == nil {
			r = b.ResolveReference(r)
		}
	}
	s := r.String()
	if strings.HasPrefix(s, "//") {
		s = "http:" + s
	}
	return s
}
