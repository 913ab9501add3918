package crawl_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/harvest/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// elapsed times fn.
func elapsed(fn func()) time.Duration {
	start := time.Now()
	fn()
	return time.Since(start)
}

func TestDomainLimiter_Wait(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("spaces requests to one domain", func(t *testing.T) {
		t.Parallel()

		l := crawl.NewDomainLimiter(10)

		assert.Less(t, elapsed(func() { require.NoError(t, l.Wait(ctx, "example.com")) }), 50*time.Millisecond)
		assert.GreaterOrEqual(t, elapsed(func() { require.NoError(t, l.Wait(ctx, "example.com")) }), 80*time.Millisecond)
	})

	t.Run("domains do not share a bucket", func(t *testing.T) {
		t.Parallel()

		l := crawl.NewDomainLimiter(1)
		require.NoError(t, l.Wait(ctx, "a.example"))

		assert.Less(t, elapsed(func() { require.NoError(t, l.Wait(ctx, "b.example")) }), 50*time.Millisecond)
	})

	t.Run("normalizes case, www and port", func(t *testing.T) {
		t.Parallel()

		for _, variant := range []string{"WWW.Example.com", "example.com:8080", "www.example.com:443"} {
			l := crawl.NewDomainLimiter(10)
			require.NoError(t, l.Wait(ctx, "example.com"))

			assert.GreaterOrEqual(t, elapsed(func() { require.NoError(t, l.Wait(ctx, variant)) }), 80*time.Millisecond, variant)
		}
	})

	t.Run("burst lets requests through together", func(t *testing.T) {
		t.Parallel()

		l := crawl.NewDomainLimiter(1, crawl.WithBurst(3))

		d := elapsed(func() {
			for range 3 {
				require.NoError(t, l.Wait(ctx, "example.com"))
			}
		})

		assert.Less(t, d, 50*time.Millisecond)
	})

	t.Run("zero rate is unlimited", func(t *testing.T) {
		t.Parallel()

		l := crawl.NewDomainLimiter(0)

		d := elapsed(func() {
			for range 20 {
				require.NoError(t, l.Wait(ctx, "example.com"))
			}
		})

		assert.Less(t, d, 50*time.Millisecond)
	})

	t.Run("canceled context stops waiting", func(t *testing.T) {
		t.Parallel()

		l := crawl.NewDomainLimiter(1)
		require.NoError(t, l.Wait(ctx, "example.com"))

		short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		assert.Error(t, l.Wait(short, "example.com"))
	})

	t.Run("safe for concurrent use", func(t *testing.T) {
		t.Parallel()

		l := crawl.NewDomainLimiter(200)

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- l.Wait(ctx, []string{"a.example", "b.example"}[i%2])
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}
	})
}
