package harvest

import "context"

// Formatter transforms a document. Formatters are chained, each one
// consuming the output of the previous.
type Formatter interface {
	Name() string
	Format(ctx context.Context, doc *Document) (*Document, error)
}

// FormatFunc is the transformation carried by a Formatter built with NewFormatter.
type FormatFunc func(ctx context.Context, doc *Document) (*Document, error)

type funcFormatter struct {
	name string
	fn   FormatFunc
}

func (f *funcFormatter) Name() string { return f.name }

func (f *funcFormatter) Format(ctx context.Context, doc *Document) (*Document, error) {
	return f.fn(ctx, doc)
}

// NewFormatter returns a named Formatter backed by fn.
func NewFormatter(name string, fn FormatFunc) Formatter {
	return &funcFormatter{name: name, fn: fn}
}

// StripLinks returns a formatter that removes link markers from the content.
// The input document is not modified.
func StripLinks() Formatter {
	return NewFormatter("strip-links", func(_ context.Context, doc *Document) (*Document, error) {
		out := *doc
		out.Content = make([]Block, 0, len(doc.Content))
		for _, b := range doc.Content {
			if !b.IsLink() {
				out.Content = append(out.Content, b)
			}
		}
		return &out, nil
	})
}

// ApplyFormatters runs formatters left to right over doc.
func ApplyFormatters(ctx context.Context, doc *Document, formatters ...Formatter) (*Document, error) {
	var err error
	for _, f := range formatters {
		if doc, err = f.Format(ctx, doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}
