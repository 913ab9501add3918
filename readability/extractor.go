// Package readability finds the article content of a page with go-readability.
package readability

import (
	"net/url"
	"strings"

	"github.com/fwojciec/harvest"
	hq "github.com/fwojciec/harvest/goquery"
	"github.com/go-shiori/go-readability"
)

// Article is the readable content of a page.
type Article struct {
	Title       string
	Byline      string
	ContentHTML string
	Text        string
}

// Extract processes raw HTML and returns its article content.
func Extract(rawHTML, pageURL string) (*Article, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, harvest.Errorf(harvest.EINVALID, "empty HTML input")
	}

	var base *url.URL
	if u, err := url.Parse(pageURL); err == nil && u.IsAbs() {
		base = u
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), base)
	if err != nil {
		return nil, harvest.Errorf(harvest.EUNKNOWN, "failed to extract article: %v", err)
	}

	return &Article{
		Title:       article.Title,
		Byline:      article.Byline,
		ContentHTML: article.Content,
		Text:        article.TextContent,
	}, nil
}

// Hook returns an extractor hook emitting the page's article as a single
// HTML block.
func Hook() hq.HookFunc {
	return func(info hq.PageInfo) (harvest.Block, bool) {
		if info.Doc == nil {
			return harvest.Block{}, false
		}
		raw, err := info.Doc.Html()
		if err != nil {
			return harvest.Block{}, false
		}
		article, err := Extract(raw, info.URL)
		if err != nil || strings.TrimSpace(article.Text) == "" {
			return harvest.Block{}, false
		}
		return harvest.HTML(article.ContentHTML), true
	}
}

// NewExtractor returns an extractor whose content is the article block
// found by Hook.
func NewExtractor(name string, fetcher harvest.Fetcher, opts ...hq.Option) *hq.Extractor {
	return hq.NewExtractor(name, fetcher, append([]hq.Option{hq.WithHook(Hook())}, opts...)...)
}
