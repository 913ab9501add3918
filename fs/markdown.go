// Package fs provides file-based output for harvested documents.
package fs

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/harvest"
)

// URLToPath converts a page URL to a relative markdown file path.
// Example: https://example.com/docs/api/users → example.com/docs/api/users.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", harvest.Errorf(harvest.EINVALID, "invalid url %q: %v", rawURL, err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.TrimPrefix(u.Path, "/")

	switch {
	case path == "":
		path = "index.md"
	case strings.HasSuffix(path, "/"):
		path += "index.md"
	default:
		path += ".md"
	}
	if host == "" {
		return path, nil
	}
	return host + "/" + path, nil
}

// FormatDocument renders doc as markdown with YAML frontmatter. Text and
// HTML blocks are written as-is, images as markdown images. Markers are
// omitted.
func FormatDocument(doc *harvest.Document, crawled time.Time) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("source: ")
	b.WriteString(doc.URL)
	b.WriteString("\ntitle: ")
	b.WriteString(doc.Title())
	b.WriteString("\ncrawled: ")
	b.WriteString(crawled.Format("2006-01-02"))
	b.WriteString("\n---\n")

	for _, block := range doc.Content {
		switch block.Type {
		case harvest.BlockText, harvest.BlockHTML:
			if strings.TrimSpace(block.Content) == "" {
				continue
			}
			b.WriteString("\n")
			b.WriteString(block.Content)
			b.WriteString("\n")
		case harvest.BlockImage:
			b.WriteString("\n![](")
			b.WriteString(block.URL)
			b.WriteString(")\n")
		}
	}
	return b.String()
}

// MarkdownWriter writes documents as markdown files. Files are written to
// baseDir/name.tmp and moved to baseDir/name on Commit, so a failed run
// never leaves a partial output directory behind.
type MarkdownWriter struct {
	baseDir string
	name    string
	now     func() time.Time
}

// NewMarkdownWriter creates a new MarkdownWriter.
func NewMarkdownWriter(baseDir, name string) *MarkdownWriter {
	return &MarkdownWriter{baseDir: baseDir, name: name, now: time.Now}
}

func (w *MarkdownWriter) tempDir() string {
	return filepath.Join(w.baseDir, w.name+".tmp")
}

func (w *MarkdownWriter) finalDir() string {
	return filepath.Join(w.baseDir, w.name)
}

// Write stores doc in the temporary directory.
func (w *MarkdownWriter) Write(ctx context.Context, doc *harvest.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	relPath, err := URLToPath(doc.URL)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(w.tempDir(), relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, []byte(FormatDocument(doc, w.now())), 0644)
}

// WriteAll writes docs in order, stopping at the first failure.
func (w *MarkdownWriter) WriteAll(ctx context.Context, docs []*harvest.Document) error {
	for _, doc := range docs {
		if err := w.Write(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// Commit replaces the output directory with the written files.
func (w *MarkdownWriter) Commit() error {
	if err := os.RemoveAll(w.finalDir()); err != nil {
		return err
	}
	return os.Rename(w.tempDir(), w.finalDir())
}

// Abort discards the written files.
func (w *MarkdownWriter) Abort() error {
	return os.RemoveAll(w.tempDir())
}
