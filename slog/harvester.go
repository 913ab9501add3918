package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
)

var _ harvest.Harvester = (*LoggingHarvester)(nil)

// LoggingHarvester wraps a Harvester with logging.
type LoggingHarvester struct {
	next   harvest.Harvester
	logger *slog.Logger
}

// NewLoggingHarvester creates a new LoggingHarvester.
func NewLoggingHarvester(next harvest.Harvester, logger *slog.Logger) *LoggingHarvester {
	return &LoggingHarvester{next: next, logger: logger}
}

// Name returns the wrapped harvester's name.
func (h *LoggingHarvester) Name() string {
	return h.next.Name()
}

// Harvest delegates to the wrapped harvester and logs the operation.
func (h *LoggingHarvester) Harvest(ctx context.Context, url string) (docs []*harvest.Document, err error) {
	defer func(begin time.Time) {
		h.logger.Info("harvest",
			"harvester", h.next.Name(),
			"url", url,
			"documents", len(docs),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return h.next.Harvest(ctx, url)
}

var _ harvest.Formatter = (*LoggingFormatter)(nil)

// LoggingFormatter wraps a Formatter with logging.
type LoggingFormatter struct {
	next   harvest.Formatter
	logger *slog.Logger
}

// NewLoggingFormatter creates a new LoggingFormatter.
func NewLoggingFormatter(next harvest.Formatter, logger *slog.Logger) *LoggingFormatter {
	return &LoggingFormatter{next: next, logger: logger}
}

// Name returns the wrapped formatter's name.
func (f *LoggingFormatter) Name() string {
	return f.next.Name()
}

// Format delegates to the wrapped formatter and logs the operation.
func (f *LoggingFormatter) Format(ctx context.Context, doc *harvest.Document) (out *harvest.Document, err error) {
	defer func(begin time.Time) {
		f.logger.Debug("format",
			"formatter", f.next.Name(),
			"url", doc.URL,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Format(ctx, doc)
}
