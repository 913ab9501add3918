package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLToPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "simple path",
			url:  "https://example.com/docs/api/users",
			want: "example.com/docs/api/users.md",
		},
		{
			name: "trailing slash becomes index",
			url:  "https://example.com/docs/",
			want: "example.com/docs/index.md",
		},
		{
			name: "root path becomes index",
			url:  "https://example.com/",
			want: "example.com/index.md",
		},
		{
			name: "root without trailing slash",
			url:  "https://example.com",
			want: "example.com/index.md",
		},
		{
			name: "ignores query string and fragment",
			url:  "https://example.com/docs/api?version=2#section",
			want: "example.com/docs/api.md",
		},
		{
			name: "strips www and port",
			url:  "https://WWW.Example.com:8080/a",
			want: "example.com/a.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := fs.URLToPath(tt.url)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects malformed url", func(t *testing.T) {
		t.Parallel()

		_, err := fs.URLToPath("http://[::1")

		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})
}

func TestFormatDocument(t *testing.T) {
	t.Parallel()

	doc := &harvest.Document{
		URL:    "https://example.com/post",
		Fields: harvest.Fields{"title": {"A Post"}},
		Content: []harvest.Block{
			harvest.Text("First paragraph."),
			harvest.Link("https://example.com/other"),
			harvest.Image("https://example.com/a.png"),
			harvest.HTML("<blockquote>quoted</blockquote>"),
			harvest.Text("  "),
		},
	}

	got := fs.FormatDocument(doc, time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC))

	want := `---
source: https://example.com/post
title: A Post
crawled: 2025-01-08
---

First paragraph.

![](https://example.com/a.png)

<blockquote>quoted</blockquote>
`
	assert.Equal(t, want, got)
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes files on commit", func(t *testing.T) {
		t.Parallel()

		baseDir := t.TempDir()
		w := fs.NewMarkdownWriter(baseDir, "out")

		err := w.WriteAll(context.Background(), []*harvest.Document{
			{URL: "https://example.com/", Content: []harvest.Block{harvest.Text("home")}},
			{URL: "https://example.com/deeply/nested/doc", Content: []harvest.Block{harvest.Text("nested")}},
		})
		require.NoError(t, err)

		_, err = os.Stat(filepath.Join(baseDir, "out"))
		assert.True(t, os.IsNotExist(err))

		require.NoError(t, w.Commit())

		content, err := os.ReadFile(filepath.Join(baseDir, "out", "example.com", "deeply", "nested", "doc.md"))
		require.NoError(t, err)
		assert.Contains(t, string(content), "source: https://example.com/deeply/nested/doc")
		assert.Contains(t, string(content), "\nnested\n")
		_, err = os.Stat(filepath.Join(baseDir, "out", "example.com", "index.md"))
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(baseDir, "out.tmp"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("commit replaces previous output", func(t *testing.T) {
		t.Parallel()

		baseDir := t.TempDir()
		stale := filepath.Join(baseDir, "out", "stale.md")
		require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0755))
		require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

		w := fs.NewMarkdownWriter(baseDir, "out")
		require.NoError(t, w.Write(context.Background(), &harvest.Document{URL: "https://example.com/a"}))
		require.NoError(t, w.Commit())

		_, err := os.Stat(stale)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("abort discards written files", func(t *testing.T) {
		t.Parallel()

		baseDir := t.TempDir()
		w := fs.NewMarkdownWriter(baseDir, "out")
		require.NoError(t, w.Write(context.Background(), &harvest.Document{URL: "https://example.com/a"}))

		require.NoError(t, w.Abort())

		entries, err := os.ReadDir(baseDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := fs.NewMarkdownWriter(t.TempDir(), "out").Write(ctx, &harvest.Document{URL: "https://example.com/a"})

		assert.ErrorIs(t, err, context.Canceled)
	})
}
