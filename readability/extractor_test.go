package readability_test

import (
	"context"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/mock"
	"github.com/fwojciec/harvest/readability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Understanding Channels</title></head>
<body>
<nav><ul><li><a href="/">Home</a></li><li><a href="/blog">Blog</a></li></ul></nav>
<aside class="sidebar">Related posts and other sidebar content</aside>
<article>
<h1>Understanding Channels</h1>
<p>Channels are the pipes that connect concurrent goroutines. You can send values into channels from one goroutine and receive those values into another goroutine.</p>
<p>By default sends and receives block until both the sender and receiver are ready. This property allows goroutines to synchronize without explicit locks or condition variables.</p>
<ul><li>Unbuffered channels</li><li>Buffered channels</li></ul>
</article>
<footer>Copyright 2024 Example Blog</footer>
</body>
</html>`

func TestExtract(t *testing.T) {
	t.Parallel()

	t.Run("extracts title and article", func(t *testing.T) {
		t.Parallel()

		article, err := readability.Extract(articlePage, "https://example.com/blog/channels")

		require.NoError(t, err)
		assert.Equal(t, "Understanding Channels", article.Title)
		assert.Contains(t, article.ContentHTML, "pipes that connect concurrent goroutines")
		assert.Contains(t, article.ContentHTML, "<li>")
		assert.NotContains(t, article.ContentHTML, "Copyright 2024")
		assert.NotContains(t, article.Text, "Related posts")
	})

	t.Run("returns error for empty input", func(t *testing.T) {
		t.Parallel()

		_, err := readability.Extract("", "")

		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})
}

func TestNewExtractor(t *testing.T) {
	t.Parallel()

	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, url string, _ harvest.FetchOptions) (*harvest.Page, error) {
			return &harvest.Page{URL: url, ContentType: "text/html", Body: []byte(articlePage)}, nil
		},
	}
	e := readability.NewExtractor("article", fetcher)

	doc, err := e.Scrape(context.Background(), "https://example.com/blog/channels")

	require.NoError(t, err)
	require.Len(t, doc.Content, 1)
	assert.Equal(t, harvest.BlockHTML, doc.Content[0].Type)
	assert.Contains(t, doc.Content[0].Content, "Buffered channels")
}
