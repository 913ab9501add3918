// Package goquery implements selector evaluation and rule-driven content
// extraction on top of github.com/PuerkitoBio/goquery.
package goquery

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/harvest"
)

// Kind distinguishes general selectors from meta-tag selectors.
type Kind int

const (
	General Kind = iota
	Meta
)

type returnKind int

const (
	returnText returnKind = iota
	returnHTML
	returnAttr
	returnNode
)

// Return describes what a general selector extracts from each matched node.
type Return struct {
	kind returnKind
	attr string
}

// Return specs.
var (
	ReturnText = Return{kind: returnText}
	ReturnHTML = Return{kind: returnHTML}
	ReturnNode = Return{kind: returnNode}
)

// ReturnAttr extracts the named attribute.
func ReturnAttr(name string) Return {
	return Return{kind: returnAttr, attr: name}
}

// ParseReturn parses "text", "html", "node" or "attr:<name>".
func ParseReturn(s string) (Return, error) {
	switch s {
	case "", "text":
		return ReturnText, nil
	case "html":
		return ReturnHTML, nil
	case "node":
		return ReturnNode, nil
	}
	if name, ok := strings.CutPrefix(s, "attr:"); ok && name != "" {
		return ReturnAttr(name), nil
	}
	return Return{}, harvest.Errorf(harvest.EINVALID, "invalid return type %q", s)
}

func (r Return) String() string {
	switch r.kind {
	case returnHTML:
		return "html"
	case returnNode:
		return "node"
	case returnAttr:
		return "attr:" + r.attr
	default:
		return "text"
	}
}

// MetaKey is one sub-field of a meta selector. Values are the attribute
// values that identify the tag, tried in order.
type MetaKey struct {
	Name   string
	Values []string
}

// Key returns a MetaKey.
func Key(name string, values ...string) MetaKey {
	return MetaKey{Name: name, Values: values}
}

// Selector describes how to locate and extract one named field.
type Selector struct {
	Name string
	Kind Kind

	// Locators are CSS queries for a general selector, tried in order.
	Locators []string
	Return   Return

	// Attribute is the meta tag attribute holding the key, e.g. "property".
	Attribute string
	Keys      []MetaKey
}

// NewSelector returns a general selector.
func NewSelector(name string, ret Return, locators ...string) Selector {
	return Selector{Name: name, Kind: General, Locators: locators, Return: ret}
}

// NewMetaSelector returns a meta selector reading the content attribute of
// meta tags whose attribute equals one of each key's values.
func NewMetaSelector(name, attribute string, keys ...MetaKey) Selector {
	return Selector{Name: name, Kind: Meta, Attribute: attribute, Keys: keys}
}

// Locator is a structured alternative to a raw CSS query.
type Locator struct {
	Tag   string
	ID    string
	Class string
	Attrs []AttrMatch
}

// AttrMatch matches an attribute, by presence when Value is empty.
type AttrMatch struct {
	Name  string
	Value string
}

// Queries builds the CSS queries for l, one per attribute.
func (l Locator) Queries() []string {
	base := l.Tag
	if l.ID != "" {
		base += "#" + l.ID
	}
	if classes := strings.Fields(l.Class); len(classes) > 0 {
		base += "." + strings.Join(classes, ".")
	}
	if len(l.Attrs) == 0 {
		if base == "" {
			return nil
		}
		return []string{base}
	}
	queries := make([]string, 0, len(l.Attrs))
	for _, a := range l.Attrs {
		if a.Value == "" {
			queries = append(queries, fmt.Sprintf("%s[%s]", base, a.Name))
			continue
		}
		queries = append(queries, fmt.Sprintf("%s[%s=%q]", base, a.Name, a.Value))
	}
	return queries
}

// DefaultSelectors returns the metadata selectors applied to every page.
// Order matters: earlier selectors win on name collisions.
func DefaultSelectors() []Selector {
	return []Selector{
		NewMetaSelector("og", "property",
			Key("description", "og:description"),
			Key("title", "og:title"),
			Key("image", "og:image"),
			Key("url", "og:url"),
			Key("site_name", "og:site_name"),
			Key("locale", "og:locale"),
			Key("updated_time", "og:updated_time"),
		),
		NewMetaSelector("twitter", "name",
			Key("description", "twitter:description"),
			Key("title", "twitter:title"),
			Key("image", "twitter:image", "twitter:image:src"),
			Key("url", "twitter:url"),
			Key("site", "twitter:site"),
			Key("creator", "twitter:creator"),
		),
		NewMetaSelector("general", "name",
			Key("description", "description"),
			Key("image", "image"),
			Key("url", "url"),
			Key("keywords", "keywords"),
		),
		NewMetaSelector("article", "property",
			Key("section", "article:section"),
			Key("published_time", "article:published_time"),
			Key("modified_time", "article:modified_time"),
		),
		NewMetaSelector("image", "itemprop",
			Key("image", "image"),
		),
		NewSelector("title", ReturnText, "title"),
		NewSelector("lang", ReturnAttr("lang"), "html"),
	}
}

// Result holds the values produced by evaluating selectors.
type Result struct {
	Fields harvest.Fields

	// Nodes holds the matches of selectors returning raw nodes.
	Nodes map[string]*goquery.Selection
}

// Select evaluates selectors against root.
func Select(root *goquery.Selection, selectors []Selector) Result {
	res := Result{
		Fields: make(harvest.Fields),
		Nodes:  make(map[string]*goquery.Selection),
	}
	for _, s := range selectors {
		switch s.Kind {
		case Meta:
			selectMeta(root, s, res.Fields)
		default:
			selectGeneral(root, s, res)
		}
	}
	return res
}

func selectGeneral(root *goquery.Selection, s Selector, res Result) {
	if _, ok := res.Fields[s.Name]; ok {
		return
	}
	if _, ok := res.Nodes[s.Name]; ok {
		return
	}
	for _, loc := range s.Locators {
		matched := root.Find(loc)
		if matched.Length() == 0 {
			continue
		}
		if s.Return.kind == returnNode {
			res.Nodes[s.Name] = matched
			return
		}
		var values harvest.Field
		matched.Each(func(_ int, node *goquery.Selection) {
			if v, ok := extractValue(node, s.Return); ok {
				values = append(values, v)
			}
		})
		if len(values) > 0 {
			res.Fields[s.Name] = values
			return
		}
	}
}

func selectMeta(root *goquery.Selection, s Selector, fields harvest.Fields) {
	for _, key := range s.Keys {
		name := s.Name + ":" + key.Name
		if _, ok := fields[name]; ok {
			continue
		}
		for _, value := range key.Values {
			query := fmt.Sprintf("meta[%s=%q]", s.Attribute, value)
			content, _ := root.Find(query).First().Attr("content")
			if content = strings.TrimSpace(content); content != "" {
				fields[name] = harvest.Field{content}
				break
			}
		}
	}
}

func extractValue(node *goquery.Selection, ret Return) (string, bool) {
	var v string
	switch ret.kind {
	case returnHTML:
		html, err := node.Html()
		if err != nil {
			return "", false
		}
		v = html
	case returnAttr:
		v, _ = node.Attr(ret.attr)
		v = strings.TrimSpace(v)
	default:
		v = strings.TrimSpace(node.Text())
	}
	return v, v != ""
}
