package htmltomarkdown

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/fwojciec/harvest"
)

var (
	headingRe   = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.+?)(?:[ \t]+#+)?[ \t]*$`)
	codeFenceRe = regexp.MustCompile("(?s)```.*?```")
)

// Section is one heading of a markdown document.
type Section struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// Sections returns the ATX headings of markdown in order. Headings inside
// fenced code blocks are ignored. Repeated anchors get a numeric suffix.
func Sections(markdown string) []Section {
	matches := headingRe.FindAllStringSubmatch(codeFenceRe.ReplaceAllString(markdown, ""), -1)
	if len(matches) == 0 {
		return nil
	}

	sections := make([]Section, 0, len(matches))
	seen := make(map[string]int)
	for _, m := range matches {
		title := strings.TrimSpace(m[2])
		anchor := Anchor(title)
		if n, ok := seen[anchor]; ok {
			seen[anchor] = n + 1
			anchor += "-" + strconv.Itoa(n)
		} else {
			seen[anchor] = 1
		}
		sections = append(sections, Section{Level: len(m[1]), Title: title, Anchor: anchor})
	}
	return sections
}

// Anchor returns the URL fragment for a heading title: lowercase letters
// and digits, with whitespace runs and hyphens collapsed to one hyphen.
func Anchor(title string) string {
	var sb strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			hyphen = false
		case (unicode.IsSpace(r) || r == '-') && !hyphen && sb.Len() > 0:
			sb.WriteRune('-')
			hyphen = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

var _ harvest.Formatter = (*TOCFormatter)(nil)

// TOCFieldName is the field the TOC formatter writes.
const TOCFieldName = "toc"

// TOCFormatter records a markdown table of contents of a document's text
// blocks in its "toc" field, one list item per heading. Run it after the
// markdown formatter.
type TOCFormatter struct{}

// NewTOCFormatter returns a TOCFormatter.
func NewTOCFormatter() *TOCFormatter {
	return &TOCFormatter{}
}

// Name returns "toc".
func (f *TOCFormatter) Name() string {
	return "toc"
}

// Format returns a copy of doc with the toc field set. Documents without
// headings are returned unchanged.
func (f *TOCFormatter) Format(_ context.Context, doc *harvest.Document) (*harvest.Document, error) {
	var texts []string
	for _, b := range doc.Content {
		if b.Type == harvest.BlockText {
			texts = append(texts, b.Content)
		}
	}
	sections := Sections(strings.Join(texts, "\n\n"))
	if len(sections) == 0 {
		return doc, nil
	}

	toc := make(harvest.Field, 0, len(sections))
	for _, s := range sections {
		toc = append(toc, strings.Repeat("  ", s.Level-1)+"- ["+s.Title+"](#"+s.Anchor+")")
	}
	out := *doc
	out.Fields = doc.Fields.Clone()
	if out.Fields == nil {
		out.Fields = harvest.Fields{}
	}
	out.Fields[TOCFieldName] = toc
	return &out, nil
}
