package crawl

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
)

var _ harvest.Fetcher = (*RetryFetcher)(nil)

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// RetryFetcher retries failed fetches with backoff. Only transient
// failures are retried: timeouts and unknown errors. Missing pages,
// oversized bodies and type mismatches fail immediately.
type RetryFetcher struct {
	next   harvest.Fetcher
	delays []time.Duration
	logger *slog.Logger
}

// NewRetryFetcher wraps next. One retry is made per delay, so nil delays
// disable retrying. logger may be nil.
func NewRetryFetcher(next harvest.Fetcher, delays []time.Duration, logger *slog.Logger) *RetryFetcher {
	return &RetryFetcher{next: next, delays: delays, logger: logger}
}

// Fetch implements harvest.Fetcher.
func (f *RetryFetcher) Fetch(ctx context.Context, url string, opts harvest.FetchOptions) (*harvest.Page, error) {
	for attempt := 0; ; attempt++ {
		page, err := f.next.Fetch(ctx, url, opts)
		if err == nil || attempt >= len(f.delays) || !Retryable(err) {
			return page, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if f.logger != nil {
			f.logger.Info("retry", "url", url, "attempt", attempt+2, "err", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delays[attempt]):
		}
	}
}

// Retryable reports whether a fetch failing with err may succeed if tried
// again.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch harvest.ErrorCode(err) {
	case harvest.ETIMEOUT, harvest.EUNKNOWN:
		return true
	}
	return false
}
