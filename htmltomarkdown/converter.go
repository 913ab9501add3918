// Package htmltomarkdown converts extracted markup to Markdown.
package htmltomarkdown

import (
	"context"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/harvest"
)

// Converter wraps html-to-markdown to convert HTML to Markdown.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into Markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", harvest.Errorf(harvest.EINVALID, "empty HTML input")
	}
	md, err := c.conv.ConvertString(html)
	if err != nil {
		return "", harvest.Errorf(harvest.EUNKNOWN, "failed to convert HTML: %v", err)
	}
	return md, nil
}

var _ harvest.Formatter = (*Formatter)(nil)

// Formatter rewrites the markup of text and HTML blocks as Markdown text
// blocks. Embedded players, images, and markers are kept as they are.
type Formatter struct {
	conv *Converter
}

// NewFormatter creates a Formatter.
func NewFormatter() *Formatter {
	return &Formatter{conv: NewConverter()}
}

// Name returns "markdown".
func (f *Formatter) Name() string {
	return "markdown"
}

// Format returns a copy of doc with converted blocks. Blocks that convert
// to nothing are dropped.
func (f *Formatter) Format(ctx context.Context, doc *harvest.Document) (*harvest.Document, error) {
	out := *doc
	out.Content = make([]harvest.Block, 0, len(doc.Content))
	for _, b := range doc.Content {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !convertible(b) {
			out.Content = append(out.Content, b)
			continue
		}
		if strings.TrimSpace(b.Content) == "" {
			continue
		}
		md, err := f.conv.Convert(b.Content)
		if err != nil {
			return nil, err
		}
		if md = strings.TrimSpace(md); md != "" {
			out.Content = append(out.Content, harvest.Text(md))
		}
	}
	return &out, nil
}

func convertible(b harvest.Block) bool {
	switch b.Type {
	case harvest.BlockText:
		return true
	case harvest.BlockHTML:
		return b.Video == ""
	}
	return false
}
