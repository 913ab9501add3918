package goquery_test

import (
	"context"
	"testing"

	"github.com/fwojciec/harvest"
	hq "github.com/fwojciec/harvest/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Get(t *testing.T) {
	t.Parallel()

	t.Run("matches host without www", func(t *testing.T) {
		t.Parallel()

		fallback := hq.NewFallback(nil)
		news := hq.NewExtractor("news", nil)
		r := hq.NewRegistry(fallback)
		require.NoError(t, r.Register(`^news\.example\.com$`, news))

		assert.Equal(t, "news", r.Get("https://www.news.example.com/a").Name())
		assert.Equal(t, "news", r.Get("news.example.com/b").Name())
	})

	t.Run("returns fallback for unmatched host", func(t *testing.T) {
		t.Parallel()

		r := hq.NewRegistry(hq.NewFallback(nil))
		require.NoError(t, r.Register(`^news\.example\.com$`, hq.NewExtractor("news", nil)))

		assert.Equal(t, hq.FallbackName, r.Get("https://other.org/").Name())
	})

	t.Run("first registered pattern wins", func(t *testing.T) {
		t.Parallel()

		r := hq.NewRegistry(nil)
		require.NoError(t, r.Register(`example\.com$`, hq.NewExtractor("first", nil)))
		require.NoError(t, r.Register(`^blog\.example\.com$`, hq.NewExtractor("second", nil)))

		assert.Equal(t, "first", r.Get("http://blog.example.com/").Name())
		assert.Equal(t, []string{"first", "second"}, r.List())
	})

	t.Run("rejects invalid pattern", func(t *testing.T) {
		t.Parallel()

		r := hq.NewRegistry(nil)

		err := r.Register(`(`, hq.NewExtractor("bad", nil))

		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})
}

func TestRegistry_Harvest(t *testing.T) {
	t.Parallel()

	f := pages(map[string]string{
		"http://example.com/": `<body><p>generic</p></body>`,
		"http://shop.test/":   `<body><p>ignored</p><h1>product</h1></body>`,
	})
	r := hq.NewRegistry(hq.NewFallback(f))
	require.NoError(t, r.Register(`^shop\.test$`, hq.NewExtractor("shop", f, hq.WithRules(textRule("h1")))))

	docs, err := r.Harvest(context.Background(), "http://shop.test/")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, []harvest.Block{harvest.Text("product")}, docs[0].Content)

	docs, err = r.Harvest(context.Background(), "http://example.com/")
	require.NoError(t, err)
	assert.Equal(t, []harvest.Block{harvest.Text("<p>generic</p>")}, docs[0].Content)
}

func TestHost(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "example.com", hq.Host("https://WWW.Example.com/path"))
	assert.Equal(t, "example.com", hq.Host("example.com"))
}
