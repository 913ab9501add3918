package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.Formatter = (*Formatter)(nil)

// Formatter is a mock implementation of harvest.Formatter.
type Formatter struct {
	NameFn   func() string
	FormatFn func(ctx context.Context, doc *harvest.Document) (*harvest.Document, error)
}

func (f *Formatter) Name() string {
	return f.NameFn()
}

func (f *Formatter) Format(ctx context.Context, doc *harvest.Document) (*harvest.Document, error) {
	return f.FormatFn(ctx, doc)
}
