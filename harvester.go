package harvest

import "context"

// Harvester produces documents for a URL. Extractors return one document
// (pagination is concatenated), crawl controllers return one per visited
// page.
type Harvester interface {
	Name() string
	Harvest(ctx context.Context, url string) ([]*Document, error)
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}

// LinkFilter decides whether a discovered link may be followed.
type LinkFilter interface {
	Allow(ctx context.Context, url string) bool
}

// Crawl is a persisted run of one harvester over a seed URL.
type Crawl struct {
	ID        string `json:"id"`
	Harvester string `json:"harvester"`
	SeedURL   string `json:"seedUrl"`
	CreatedAt string `json:"createdAt"`
}

// DocumentStore persists extracted documents grouped by crawl.
type DocumentStore interface {
	// CreateCrawl records a new crawl and assigns its ID.
	CreateCrawl(ctx context.Context, crawl *Crawl) error

	// SaveDocuments stores docs for a crawl, preserving their order.
	// Returns ENOTFOUND if the crawl does not exist.
	SaveDocuments(ctx context.Context, crawlID string, docs []*Document) error

	// FindDocuments returns the documents of a crawl in saved order.
	// Returns ENOTFOUND if the crawl does not exist.
	FindDocuments(ctx context.Context, crawlID string) ([]*Document, error)

	// FindCrawls returns all crawls, newest first.
	FindCrawls(ctx context.Context) ([]*Crawl, error)
}
