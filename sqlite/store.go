package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ harvest.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements harvest.DocumentStore using SQLite.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// CreateCrawl records a new crawl, assigning its ID and creation time.
func (s *DocumentStore) CreateCrawl(ctx context.Context, crawl *harvest.Crawl) error {
	if crawl.Harvester == "" {
		return harvest.Errorf(harvest.EINVALID, "crawl harvester required")
	}
	if crawl.SeedURL == "" {
		return harvest.Errorf(harvest.EINVALID, "crawl seed url required")
	}

	crawl.ID = uuid.New().String()
	crawl.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO crawls (id, harvester, seed_url, created_at)
		VALUES (?, ?, ?, ?)
	`, crawl.ID, crawl.Harvester, crawl.SeedURL, crawl.CreatedAt)
	return err
}

// SaveDocuments appends docs to a crawl in one transaction. Positions
// continue after any documents already saved for the crawl.
func (s *DocumentStore) SaveDocuments(ctx context.Context, crawlID string, docs []*harvest.Document) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM crawls WHERE id = ?)`, crawlID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return harvest.Errorf(harvest.ENOTFOUND, "crawl not found")
	}

	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM documents WHERE crawl_id = ?`, crawlID).Scan(&next); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, crawl_id, url, title, content_type, size, fields, content, content_hash, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, doc := range docs {
		fields, err := json.Marshal(doc.Fields)
		if err != nil {
			return fmt.Errorf("failed to encode fields: %w", err)
		}
		content, err := json.Marshal(doc.Content)
		if err != nil {
			return fmt.Errorf("failed to encode content: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, uuid.New().String(), crawlID, doc.URL, doc.Title(),
			doc.ContentType, doc.Size, string(fields), string(content), hashContent(doc.Content), next+i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindDocuments returns the documents of a crawl in saved order.
func (s *DocumentStore) FindDocuments(ctx context.Context, crawlID string) ([]*harvest.Document, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM crawls WHERE id = ?)`, crawlID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, harvest.Errorf(harvest.ENOTFOUND, "crawl not found")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT url, content_type, size, fields, content
		FROM documents
		WHERE crawl_id = ?
		ORDER BY position ASC
	`, crawlID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []*harvest.Document{}
	for rows.Next() {
		var doc harvest.Document
		var fields, content string

		if err := rows.Scan(&doc.URL, &doc.ContentType, &doc.Size, &fields, &content); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(fields), &doc.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode fields: %w", err)
		}
		if err := json.Unmarshal([]byte(content), &doc.Content); err != nil {
			return nil, fmt.Errorf("failed to decode content: %w", err)
		}
		docs = append(docs, &doc)
	}

	return docs, rows.Err()
}

// FindCrawls returns all crawls, newest first.
func (s *DocumentStore) FindCrawls(ctx context.Context) ([]*harvest.Crawl, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, harvester, seed_url, created_at
		FROM crawls
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var crawls []*harvest.Crawl
	for rows.Next() {
		var c harvest.Crawl
		if err := rows.Scan(&c.ID, &c.Harvester, &c.SeedURL, &c.CreatedAt); err != nil {
			return nil, err
		}
		if err := checkTimestamp(c.CreatedAt, "created_at"); err != nil {
			return nil, err
		}
		crawls = append(crawls, &c)
	}

	return crawls, rows.Err()
}

// FindDuplicates returns the URLs of documents in other crawls whose content
// is identical to a document of crawlID.
func (s *DocumentStore) FindDuplicates(ctx context.Context, crawlID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT o.url
		FROM documents d
		JOIN documents o ON o.content_hash = d.content_hash AND o.crawl_id != d.crawl_id
		WHERE d.crawl_id = ?
		ORDER BY o.url
	`, crawlID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}
