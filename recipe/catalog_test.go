package recipe_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/mock"
	"github.com/fwojciec/harvest/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
fetch:
  timeout: 10s
  contentTypes: [text]
recipes:
  - name: blog
    domains: ['^blog\.example\.com$']
    root: article
    exclude: [.ads]
    delay: 1ms
    nextPage: a.next
    selectors:
      - name: author
        query: [.byline]
      - name: cover
        query: [img.cover]
        return: attr:src
    rules:
      - match: [p]
        extract: text
      - match: [img]
        extract: image
  - name: docs
    fallback: true
    fetch:
      maxSizeKB: 200
crawls:
  - name: site
    maxDepth: 2
    maxPages: 10
    dedupe: true
    skipUnrouted: true
    routes:
      - name: index
        pattern: '^https://blog\.example\.com/$'
        recipe: blog
      - name: post
        pattern: '^https://blog\.example\.com/posts/'
        recipe: docs
`

func TestFetch_Options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		want int
	}{
		{"omitted inherits", "fetch: {timeout: 1s}", 0},
		{"explicit zero refuses redirects", "fetch: {maxRedirects: 0}", harvest.NoRedirects},
		{"positive limit", "fetch: {maxRedirects: 3}", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := recipe.Decode(strings.NewReader(tt.yaml))
			require.NoError(t, err)

			assert.Equal(t, tt.want, c.Fetch.Options().MaxRedirects)
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("parses catalog", func(t *testing.T) {
		t.Parallel()

		c, err := recipe.Decode(strings.NewReader(catalogYAML))

		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, c.Fetch.Timeout)
		require.Len(t, c.Recipes, 2)
		assert.Equal(t, "blog", c.Recipes[0].Name)
		assert.Equal(t, time.Millisecond, c.Recipes[0].Delay)
		assert.Equal(t, "attr:src", c.Recipes[0].Selectors[1].Return)
		assert.True(t, c.Recipes[1].Fallback)
		require.Len(t, c.Crawls, 1)
		assert.Equal(t, 2, c.Crawls[0].MaxDepth)
		assert.Len(t, c.Crawls[0].Routes, 2)
	})

	t.Run("accepts empty input", func(t *testing.T) {
		t.Parallel()

		c, err := recipe.Decode(strings.NewReader(""))

		require.NoError(t, err)
		assert.Empty(t, c.Recipes)
	})

	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown field", yaml: "recipes:\n  - name: a\n    colour: red\n"},
		{name: "missing recipe name", yaml: "recipes:\n  - root: body\n"},
		{name: "duplicate recipe", yaml: "recipes:\n  - name: a\n  - name: a\n"},
		{name: "invalid selector", yaml: "recipes:\n  - name: a\n    exclude: ['[[']\n"},
		{name: "invalid return", yaml: "recipes:\n  - name: a\n    selectors:\n      - name: x\n        query: [p]\n        return: bogus\n"},
		{name: "invalid extract", yaml: "recipes:\n  - name: a\n    rules:\n      - match: [p]\n        extract: bogus\n"},
		{name: "unknown main engine", yaml: "recipes:\n  - name: a\n    main: magic\n"},
		{name: "unknown route recipe", yaml: "crawls:\n  - name: c\n    routes:\n      - name: index\n        pattern: .*\n        recipe: missing\n"},
		{name: "unknown links mode", yaml: "crawls:\n  - name: c\n    links: some\n"},
		{name: "crawl name clash", yaml: "recipes:\n  - name: a\ncrawls:\n  - name: a\n"},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := recipe.Decode(strings.NewReader(tt.yaml))

			assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("reads file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "recipes.yaml")
		require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0644))

		c, err := recipe.Load(path)

		require.NoError(t, err)
		assert.Len(t, c.Recipes, 2)
	})

	t.Run("reports missing file", func(t *testing.T) {
		t.Parallel()

		_, err := recipe.Load(filepath.Join(t.TempDir(), "missing.yaml"))

		assert.Equal(t, harvest.ENOTFOUND, harvest.ErrorCode(err))
	})
}

const blogIndex = `<html><head><title>Blog</title></head><body>
<div class="ads"><p>Buy now</p></div>
<article>
<span class="byline">Ann</span>
<p>Welcome</p>
<img src="/a.png">
<a href="/posts/1">First</a>
</article>
<a class="next" href="/?page=2">Next</a>
</body></html>`

const blogIndex2 = `<html><body><article><p>Older</p></article></body></html>`

const blogPost = `<html><body><h1>Post</h1><p>Post body</p></body></html>`

func site() *mock.Fetcher {
	pages := map[string]string{
		"https://blog.example.com/":        blogIndex,
		"https://blog.example.com/?page=2": blogIndex2,
		"https://blog.example.com/posts/1": blogPost,
		"https://other.org/":               blogPost,
	}
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string, opts harvest.FetchOptions) (*harvest.Page, error) {
			html, ok := pages[url]
			if !ok {
				return nil, harvest.FetchError(harvest.ENOTFOUND)
			}
			return &harvest.Page{URL: url, ResolvedURL: url, ContentType: "text/html", Body: []byte(html)}, nil
		},
	}
}

func TestCatalog_Build(t *testing.T) {
	t.Parallel()

	c, err := recipe.Decode(strings.NewReader(catalogYAML))
	require.NoError(t, err)

	t.Run("builds recipe extractors", func(t *testing.T) {
		t.Parallel()

		set, err := c.Build(recipe.Deps{Fetcher: site()})
		require.NoError(t, err)

		names := make([]string, len(set.Extractors))
		for i, e := range set.Extractors {
			names[i] = e.Name()
		}
		assert.Equal(t, []string{"fallback", "blog", "docs"}, names)

		doc, err := set.Extractors[1].CrawlPages(context.Background(), "https://blog.example.com/")
		require.NoError(t, err)
		assert.Equal(t, "Ann", doc.Fields.Get("author"))
		assert.Equal(t, []harvest.Block{
			harvest.Text("Welcome"),
			harvest.Image("https://blog.example.com/a.png"),
			harvest.Text("Older"),
		}, doc.Content)
	})

	t.Run("routes registry by domain", func(t *testing.T) {
		t.Parallel()

		set, err := c.Build(recipe.Deps{Fetcher: site()})
		require.NoError(t, err)

		assert.Equal(t, "blog", set.Registry.Get("https://blog.example.com/").Name())
		assert.Equal(t, "fallback", set.Registry.Get("https://other.org/").Name())
	})

	t.Run("builds crawl controllers", func(t *testing.T) {
		t.Parallel()

		set, err := c.Build(recipe.Deps{Fetcher: site()})
		require.NoError(t, err)

		ctrl := set.Controller("site")
		require.NotNil(t, ctrl)
		docs, err := ctrl.Crawl(context.Background(), "https://blog.example.com/")

		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "https://blog.example.com/posts/1", docs[1].URL)
		assert.Contains(t, docs[1].Content, harvest.Text("<p>Post body</p>"))
	})

	t.Run("exposes every harvester", func(t *testing.T) {
		t.Parallel()

		set, err := c.Build(recipe.Deps{Fetcher: site()})
		require.NoError(t, err)

		var names []string
		for _, h := range set.Harvesters() {
			names = append(names, h.Name())
		}
		assert.Equal(t, []string{"fallback", "blog", "docs", "registry", "site"}, names)
	})

	t.Run("requires renderer for rendered recipes", func(t *testing.T) {
		t.Parallel()

		rc, err := recipe.Decode(strings.NewReader("recipes:\n  - name: spa\n    render: true\n"))
		require.NoError(t, err)

		_, err = rc.Build(recipe.Deps{Fetcher: site()})

		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})

	t.Run("renders pages when configured", func(t *testing.T) {
		t.Parallel()

		rc, err := recipe.Decode(strings.NewReader("recipes:\n  - name: spa\n    render: true\n    rules:\n      - match: [p]\n"))
		require.NoError(t, err)
		renderer := &mock.Renderer{
			RenderFn: func(context.Context, string) (string, error) {
				return "<html><body><p>rendered</p></body></html>", nil
			},
		}

		set, err := rc.Build(recipe.Deps{Fetcher: site(), Renderer: renderer})
		require.NoError(t, err)
		doc, err := set.Extractors[1].Scrape(context.Background(), "https://spa.example.com/")

		require.NoError(t, err)
		assert.Equal(t, []harvest.Block{harvest.Text("rendered")}, doc.Content)
	})
}
