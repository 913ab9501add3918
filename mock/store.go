package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is a mock implementation of harvest.DocumentStore.
type DocumentStore struct {
	CreateCrawlFn   func(ctx context.Context, crawl *harvest.Crawl) error
	SaveDocumentsFn func(ctx context.Context, crawlID string, docs []*harvest.Document) error
	FindDocumentsFn func(ctx context.Context, crawlID string) ([]*harvest.Document, error)
	FindCrawlsFn    func(ctx context.Context) ([]*harvest.Crawl, error)
}

func (s *DocumentStore) CreateCrawl(ctx context.Context, crawl *harvest.Crawl) error {
	return s.CreateCrawlFn(ctx, crawl)
}

func (s *DocumentStore) SaveDocuments(ctx context.Context, crawlID string, docs []*harvest.Document) error {
	return s.SaveDocumentsFn(ctx, crawlID, docs)
}

func (s *DocumentStore) FindDocuments(ctx context.Context, crawlID string) ([]*harvest.Document, error) {
	return s.FindDocumentsFn(ctx, crawlID)
}

func (s *DocumentStore) FindCrawls(ctx context.Context) ([]*harvest.Crawl, error) {
	return s.FindCrawlsFn(ctx)
}
