package crawl_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/crawl"
	"github.com/fwojciec/harvest/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flaky fails with errs in order, then succeeds.
func flaky(errs ...error) (*mock.Fetcher, *int) {
	calls := 0
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string, _ harvest.FetchOptions) (*harvest.Page, error) {
			calls++
			if calls <= len(errs) {
				return nil, errs[calls-1]
			}
			return &harvest.Page{URL: url}, nil
		},
	}, &calls
}

func TestRetryFetcher_Fetch(t *testing.T) {
	t.Parallel()

	delays := []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		t.Parallel()

		next, calls := flaky(harvest.FetchError(harvest.ETIMEOUT), harvest.FetchError(harvest.EUNKNOWN))

		page, err := crawl.NewRetryFetcher(next, delays, nil).Fetch(context.Background(), "https://example.com/", harvest.FetchOptions{})

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/", page.URL)
		assert.Equal(t, 3, *calls)
	})

	t.Run("gives up after the last delay", func(t *testing.T) {
		t.Parallel()

		fail := harvest.FetchError(harvest.ETIMEOUT)
		next, calls := flaky(fail, fail, fail, fail, fail)

		_, err := crawl.NewRetryFetcher(next, delays, nil).Fetch(context.Background(), "https://example.com/", harvest.FetchOptions{})

		assert.Equal(t, harvest.ETIMEOUT, harvest.ErrorCode(err))
		assert.Equal(t, 4, *calls)
	})

	t.Run("does not retry permanent failures", func(t *testing.T) {
		t.Parallel()

		for _, code := range []string{harvest.ENOTFOUND, harvest.ETOOLARGE, harvest.EMISMATCH} {
			next, calls := flaky(harvest.FetchError(code))

			_, err := crawl.NewRetryFetcher(next, delays, nil).Fetch(context.Background(), "https://example.com/", harvest.FetchOptions{})

			assert.Equal(t, code, harvest.ErrorCode(err))
			assert.Equal(t, 1, *calls, code)
		}
	})

	t.Run("nil delays disable retrying", func(t *testing.T) {
		t.Parallel()

		next, calls := flaky(harvest.FetchError(harvest.ETIMEOUT))

		_, err := crawl.NewRetryFetcher(next, nil, nil).Fetch(context.Background(), "https://example.com/", harvest.FetchOptions{})

		assert.Error(t, err)
		assert.Equal(t, 1, *calls)
	})

	t.Run("stops when context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		next := &mock.Fetcher{
			FetchFn: func(context.Context, string, harvest.FetchOptions) (*harvest.Page, error) {
				cancel()
				return nil, harvest.FetchError(harvest.EUNKNOWN)
			},
		}

		_, err := crawl.NewRetryFetcher(next, []time.Duration{time.Hour}, nil).Fetch(ctx, "https://example.com/", harvest.FetchOptions{})

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	assert.True(t, crawl.Retryable(harvest.FetchError(harvest.ETIMEOUT)))
	assert.True(t, crawl.Retryable(harvest.FetchError(harvest.EUNKNOWN)))
	assert.False(t, crawl.Retryable(harvest.FetchError(harvest.ENOTFOUND)))
	assert.False(t, crawl.Retryable(context.Canceled))
	assert.False(t, crawl.Retryable(harvest.Errorf(harvest.EINVALID, "bad")))
	assert.False(t, crawl.Retryable(errors.New("plain")))
}

func TestDefaultRetryDelays(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, crawl.DefaultRetryDelays())
}
