// Package trafilatura finds the main content of a page with go-trafilatura.
package trafilatura

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/fwojciec/harvest"
	hq "github.com/fwojciec/harvest/goquery"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Result is the main content found in a page.
type Result struct {
	Title       string
	ContentHTML string
}

// Extract processes raw HTML and returns its main content. pageURL may be
// empty; when set it is used to resolve relative links.
func Extract(rawHTML, pageURL string) (*Result, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, harvest.Errorf(harvest.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{EnableFallback: true}
	if u, err := url.Parse(pageURL); err == nil && u.IsAbs() {
		opts.OriginalURL = u
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, harvest.Errorf(harvest.EUNKNOWN, "failed to extract content: %v", err)
	}

	var content string
	if result.ContentNode != nil {
		var buf bytes.Buffer
		if err := html.Render(&buf, result.ContentNode); err != nil {
			return nil, harvest.Errorf(harvest.EUNKNOWN, "failed to render content: %v", err)
		}
		content = buf.String()
	}

	return &Result{Title: result.Metadata.Title, ContentHTML: content}, nil
}

// Hook returns an extractor hook emitting the page's main content as a
// single HTML block. Pages without recognizable content emit nothing.
func Hook() hq.HookFunc {
	return func(info hq.PageInfo) (harvest.Block, bool) {
		if info.Doc == nil {
			return harvest.Block{}, false
		}
		raw, err := info.Doc.Html()
		if err != nil {
			return harvest.Block{}, false
		}
		res, err := Extract(raw, info.URL)
		if err != nil || strings.TrimSpace(res.ContentHTML) == "" {
			return harvest.Block{}, false
		}
		return harvest.HTML(res.ContentHTML), true
	}
}

// NewExtractor returns an extractor whose content is the main-content block
// found by Hook. Rules given in opts still run during traversal, so links
// can be discovered alongside.
func NewExtractor(name string, fetcher harvest.Fetcher, opts ...hq.Option) *hq.Extractor {
	return hq.NewExtractor(name, fetcher, append([]hq.Option{hq.WithHook(Hook())}, opts...)...)
}
