package goquery_test

import (
	"context"
	"testing"

	"github.com/fwojciec/harvest"
	hq "github.com/fwojciec/harvest/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback(t *testing.T) {
	t.Parallel()

	scrape := func(t *testing.T, body string) []harvest.Block {
		t.Helper()
		f := pages(map[string]string{"http://example.com/post": "<html><body>" + body + "</body></html>"})
		doc, err := hq.NewFallback(f).Scrape(context.Background(), "http://example.com/post")
		require.NoError(t, err)
		return doc.Content
	}

	t.Run("wraps top headings", func(t *testing.T) {
		t.Parallel()

		blocks := scrape(t, `<h1>Title</h1><h4>Small</h4>`)

		require.Len(t, blocks, 2)
		assert.Equal(t, harvest.Text("<h2>Title</h2>"), blocks[0])
		assert.Equal(t, harvest.Text("Small"), blocks[1])
	})

	t.Run("keeps allowed inline tags", func(t *testing.T) {
		t.Parallel()

		blocks := scrape(t, `<p>Hello <strong>bold</strong> <span>plain</span></p>`)

		require.Len(t, blocks, 1)
		assert.Equal(t, harvest.BlockText, blocks[0].Type)
		assert.Contains(t, blocks[0].Content, "<strong>bold</strong>")
		assert.NotContains(t, blocks[0].Content, "<span>")
	})

	t.Run("drops empty paragraphs", func(t *testing.T) {
		t.Parallel()

		blocks := scrape(t, `<p> <br> </p>`)

		assert.Empty(t, blocks)
	})

	t.Run("resolves images and skips banned sources", func(t *testing.T) {
		t.Parallel()

		blocks := scrape(t, `<img src="/a.png"><img src="data:image/png;base64,xx">`+
			`<img src="https://gravatar.com/u.png"><img src="https://pixel.example.com/t.gif">`)

		assert.Equal(t, []harvest.Block{harvest.Image("http://example.com/a.png")}, blocks)
	})

	t.Run("embeds iframes over https", func(t *testing.T) {
		t.Parallel()

		blocks := scrape(t, `<iframe src="http://www.youtube.com/embed/xyz"></iframe>`)

		require.Len(t, blocks, 1)
		assert.Equal(t, harvest.BlockHTML, blocks[0].Type)
		assert.Equal(t, "http://www.youtube.com/embed/xyz", blocks[0].Video)
		assert.Contains(t, blocks[0].Content, `src="https://www.youtube.com/embed/xyz"`)
		assert.Contains(t, blocks[0].Content, `width="100%"`)
	})

	t.Run("wraps plain blockquotes", func(t *testing.T) {
		t.Parallel()

		blocks := scrape(t, `<blockquote><p>quoted</p></blockquote>`)

		require.Len(t, blocks, 1)
		assert.Equal(t, harvest.Text("<blockquote><p>quoted</p></blockquote>"), blocks[0])
	})

	t.Run("keeps social embeds with script", func(t *testing.T) {
		t.Parallel()

		blocks := scrape(t, `<blockquote class="bf-tweet"><p>tweet</p></blockquote>`)

		require.Len(t, blocks, 1)
		assert.Equal(t, harvest.BlockHTML, blocks[0].Type)
		assert.Contains(t, blocks[0].Content, "twitter-tweet")
		assert.Contains(t, blocks[0].Content, "platform.twitter.com/widgets.js")
	})

	t.Run("keeps instagram embeds with their script", func(t *testing.T) {
		t.Parallel()

		blocks := scrape(t, `<blockquote class="instagram-media">post</blockquote>`)

		require.Len(t, blocks, 1)
		assert.Contains(t, blocks[0].Content, "platform.instagram.com/en_US/embeds.js")
	})

	t.Run("builds facebook embed", func(t *testing.T) {
		t.Parallel()

		blocks := scrape(t, `<div class="fb-post" data-href="https://facebook.com/p/1"></div>`)

		require.Len(t, blocks, 1)
		assert.Contains(t, blocks[0].Content, `data-href="https://facebook.com/p/1"`)
	})
}
