//go:build integration

package rod_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	t.Run("returns rendered HTML", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<!DOCTYPE html>
<html><body>
<div id="content">Loading...</div>
<script>document.getElementById('content').textContent = 'JavaScript Rendered';</script>
</body></html>`))
		}))
		defer srv.Close()

		r, err := rod.NewRenderer()
		require.NoError(t, err)
		defer r.Close()

		html, err := r.Render(context.Background(), srv.URL)

		require.NoError(t, err)
		assert.Contains(t, html, "JavaScript Rendered")
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		r, err := rod.NewRenderer()
		require.NoError(t, err)
		defer r.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = r.Render(ctx, "http://example.com")

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("maps deadline to Timeout", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		r, err := rod.NewRenderer(rod.WithTimeout(200 * time.Millisecond))
		require.NoError(t, err)
		defer r.Close()

		_, err = r.Render(context.Background(), srv.URL)

		assert.Equal(t, harvest.ETIMEOUT, harvest.ErrorCode(err))
	})

	t.Run("recycles browser after render budget", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html><body>ok</body></html>`))
		}))
		defer srv.Close()

		r, err := rod.NewRenderer(rod.WithRecycleAfter(1))
		require.NoError(t, err)
		defer r.Close()

		_, err = r.Render(context.Background(), srv.URL)
		require.NoError(t, err)
		first := r.LauncherPID()

		_, err = r.Render(context.Background(), srv.URL)
		require.NoError(t, err)

		assert.NotEqual(t, first, r.LauncherPID())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		r, err := rod.NewRenderer()
		require.NoError(t, err)

		require.NoError(t, r.Close())
		assert.NoError(t, r.Close())
	})
}
