package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/harvest"
)

// Framework identifies the documentation generator that produced a page.
type Framework string

// Known frameworks.
const (
	FrameworkUnknown    Framework = ""
	FrameworkDocusaurus Framework = "docusaurus"
	FrameworkMkDocs     Framework = "mkdocs"
	FrameworkSphinx     Framework = "sphinx"
	FrameworkVuePress   Framework = "vuepress"
	FrameworkVitePress  Framework = "vitepress"
	FrameworkGitBook    Framework = "gitbook"
	FrameworkNextra     Framework = "nextra"
)

// navigation lists the containers holding a framework's table of contents
// and sidebar, highest priority first.
var navigation = map[Framework][]string{
	FrameworkDocusaurus: {".table-of-contents", ".theme-doc-sidebar-container", "nav.navbar"},
	FrameworkMkDocs:     {".md-sidebar--secondary", "[data-md-component='toc']", ".md-nav--primary", "[data-md-component='navigation']"},
	FrameworkSphinx:     {".toctree-wrapper", "#localtoc", ".wy-nav-side", ".wy-menu-vertical", ".sphinxsidebar"},
	FrameworkVuePress:   {".sidebar-links", ".sidebar"},
	FrameworkVitePress:  {".VPDocAsideOutline", ".VPSidebar", ".VPNav"},
	FrameworkGitBook:    {"[data-testid='page.desktopTableOfContents']", "[data-testid='space.sidebar']", "[data-testid='space.header']"},
	FrameworkNextra:     {".nextra-toc", ".nextra-sidebar", ".nextra-navbar"},
}

var genericNavigation = []string{".toc", ".table-of-contents", ".sidebar", "aside", "nav", "[role='navigation']", ".menu", ".navbar"}

// Navigation returns the navigation containers for f. Unknown frameworks
// get a generic set.
func (f Framework) Navigation() []string {
	if n, ok := navigation[f]; ok {
		return n
	}
	return genericNavigation
}

// Detect identifies the framework of doc from its generator meta tag or,
// failing that, from markers unique to each generator.
func Detect(doc *goquery.Document) Framework {
	if doc == nil {
		return FrameworkUnknown
	}
	if f := detectGenerator(doc); f != FrameworkUnknown {
		return f
	}

	has := func(selector string) bool {
		return doc.Find(selector).Length() > 0
	}

	switch {
	case has("#__docusaurus_skipToContent_fallback"),
		has(".theme-doc-sidebar-container"),
		has("[data-rh]") && has("[data-theme]"):
		return FrameworkDocusaurus
	case has("[data-md-color-scheme]"), has("[data-md-component]"), has(".md-nav--primary"):
		return FrameworkMkDocs
	case has(".toctree-wrapper"), has(".wy-nav-side"), has(".wy-menu-vertical"), has(".sphinxsidebar"):
		return FrameworkSphinx
	// VitePress before VuePress, its predecessor.
	case has("#VPContent"), has(".VPDoc"), has(".VPDocAsideOutline"):
		return FrameworkVitePress
	case has(".theme-default-content"), has(".sidebar-links"), has(".vuepress-navbar"):
		return FrameworkVuePress
	case has("[data-testid='space.sidebar']"), has("[data-testid='page.desktopTableOfContents']"), gitBookClasses(doc):
		return FrameworkGitBook
	case has(".nextra-navbar"), has(".nextra-sidebar"), has(".nextra-toc"):
		return FrameworkNextra
	}
	return FrameworkUnknown
}

func detectGenerator(doc *goquery.Document) Framework {
	generator := ""
	doc.Find("meta[name='generator']").Each(func(_ int, s *goquery.Selection) {
		if content, ok := s.Attr("content"); ok {
			generator = strings.ToLower(content)
		}
	})
	if generator == "" {
		return FrameworkUnknown
	}

	for _, f := range []Framework{
		FrameworkSphinx,
		FrameworkGitBook,
		FrameworkDocusaurus,
		FrameworkMkDocs,
		FrameworkVitePress,
		FrameworkVuePress,
		FrameworkNextra,
	} {
		if strings.Contains(generator, string(f)) {
			return f
		}
	}
	return FrameworkUnknown
}

// gitBookClasses reports whether the html element carries at least two of
// GitBook's theme classes.
func gitBookClasses(doc *goquery.Document) bool {
	class, _ := doc.Find("html").First().Attr("class")
	count := 0
	for _, c := range []string{"circular-corners", "theme-clean", "tint"} {
		if strings.Contains(class, c) {
			count++
		}
	}
	return count >= 2
}

// containers returns the navigation selectors of f as one selector group.
func (f Framework) containers() string {
	return strings.Join(f.Navigation(), ", ")
}

// NavigationRule returns a link rule that only follows anchors inside the
// detected framework's navigation containers. Pages without any such
// container fall back to every anchor.
func NavigationRule() Rule {
	return NewRule([]string{"a[href]"}, func(node *goquery.Selection, info PageInfo) (harvest.Block, bool) {
		if info.Navigation && node.Closest(info.Framework.containers()).Length() == 0 {
			return harvest.Block{}, false
		}
		return ExtractLink(node, info)
	})
}
