package goquery

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/harvest"
)

// matcher is a precompiled set of CSS selectors. A node matches when any
// selector in the set matches it. Invalid selectors never match.
type matcher []cascadia.Selector

func compile(selectors []string) matcher {
	m := make(matcher, 0, len(selectors))
	for _, s := range selectors {
		cs, err := cascadia.Compile(s)
		if err != nil {
			continue
		}
		m = append(m, cs)
	}
	return m
}

func (m matcher) matches(node *goquery.Selection) bool {
	if len(node.Nodes) == 0 {
		return false
	}
	n := node.Nodes[0]
	for _, cs := range m {
		if cs.Match(n) {
			return true
		}
	}
	return false
}

// ValidateSelectors returns EINVALID for the first selector that does not
// compile.
func ValidateSelectors(selectors ...string) error {
	for _, s := range selectors {
		if _, err := cascadia.Compile(s); err != nil {
			return harvest.Errorf(harvest.EINVALID, "invalid selector %q: %v", s, err)
		}
	}
	return nil
}
