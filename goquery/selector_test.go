package goquery_test

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/harvest"
	hq "github.com/fwojciec/harvest/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestSelect(t *testing.T) {
	t.Parallel()

	t.Run("reads meta tags by attribute", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<html><head>
<meta property="og:title" content=" Hello ">
<meta property="og:description" content="A page">
</head><body></body></html>`)

		res := hq.Select(doc.Selection, hq.DefaultSelectors())

		assert.Equal(t, "Hello", res.Fields.Get("og:title"))
		assert.Equal(t, "A page", res.Fields.Get("og:description"))
		_, ok := res.Fields["og:url"]
		assert.False(t, ok)
	})

	t.Run("tries meta key values in order", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<html><head>
<meta name="twitter:image:src" content="https://example.com/b.png">
</head></html>`)

		res := hq.Select(doc.Selection, hq.DefaultSelectors())

		assert.Equal(t, "https://example.com/b.png", res.Fields.Get("twitter:image"))
	})

	t.Run("uses first locator with a match", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<body><h2 class="headline">Second</h2><span class="byline">Jane</span></body>`)
		sel := hq.NewSelector("headline", hq.ReturnText, "h1.headline", "h2.headline")

		res := hq.Select(doc.Selection, []hq.Selector{sel})

		assert.Equal(t, harvest.Field{"Second"}, res.Fields["headline"])
	})

	t.Run("keeps every matched value", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<body><a class="tag" href="/a">a</a><a class="tag" href="/b">b</a></body>`)
		sel := hq.NewSelector("tags", hq.ReturnAttr("href"), "a.tag")

		res := hq.Select(doc.Selection, []hq.Selector{sel})

		assert.Equal(t, harvest.Field{"/a", "/b"}, res.Fields["tags"])
	})

	t.Run("earlier selectors win on name collisions", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<html><head><title>Page</title></head><body><h1>Heading</h1></body></html>`)
		custom := hq.NewSelector("title", hq.ReturnText, "h1")

		res := hq.Select(doc.Selection, append(hq.DefaultSelectors(), custom))

		assert.Equal(t, "Page", res.Fields.Get("title"))
	})

	t.Run("stores raw nodes outside fields", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<body><nav><a href="/x">x</a></nav></body>`)
		sel := hq.NewSelector("nav", hq.ReturnNode, "nav")

		res := hq.Select(doc.Selection, []hq.Selector{sel})

		_, ok := res.Fields["nav"]
		assert.False(t, ok)
		require.Contains(t, res.Nodes, "nav")
		assert.Equal(t, 1, res.Nodes["nav"].Length())
	})

	t.Run("returns inner html", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<body><div id="c"><b>bold</b></div></body>`)
		sel := hq.NewSelector("content", hq.ReturnHTML, "#c")

		res := hq.Select(doc.Selection, []hq.Selector{sel})

		assert.Equal(t, "<b>bold</b>", res.Fields.Get("content"))
	})

	t.Run("reads lang from html element", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<html lang="pl"><body></body></html>`)

		res := hq.Select(doc.Selection, hq.DefaultSelectors())

		assert.Equal(t, "pl", res.Fields.Get("lang"))
	})
}

func TestParseReturn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", "text"},
		{"text", "text"},
		{"html", "html"},
		{"node", "node"},
		{"attr:href", "attr:href"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := hq.ParseReturn(tt.in)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	t.Run("rejects unknown return type", func(t *testing.T) {
		t.Parallel()

		_, err := hq.ParseReturn("attr:")

		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})
}

func TestLocator_Queries(t *testing.T) {
	t.Parallel()

	t.Run("combines tag id and classes", func(t *testing.T) {
		t.Parallel()

		l := hq.Locator{Tag: "div", ID: "main", Class: "a b"}

		assert.Equal(t, []string{"div#main.a.b"}, l.Queries())
	})

	t.Run("emits one query per attribute", func(t *testing.T) {
		t.Parallel()

		l := hq.Locator{Tag: "meta", Attrs: []hq.AttrMatch{{Name: "name", Value: "author"}, {Name: "itemprop"}}}

		assert.Equal(t, []string{`meta[name="author"]`, "meta[itemprop]"}, l.Queries())
	})

	t.Run("empty locator has no queries", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, hq.Locator{}.Queries())
	})
}

func TestValidateSelectors(t *testing.T) {
	t.Parallel()

	require.NoError(t, hq.ValidateSelectors("p", "div.a > span", "a[href]"))
	assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(hq.ValidateSelectors("p", "div[")))
}
