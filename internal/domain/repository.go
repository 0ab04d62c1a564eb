package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogStore is the durable catalog. Records are partitioned by category.
type CatalogStore interface {
	Get(ctx context.Context, id string) (*CatalogEntry, error)
	ListByCategory(ctx context.Context, category Category) ([]CatalogEntry, error)
	ListMissingScore(ctx context.Context, category Category) ([]CatalogEntry, error)
	ListMissingReview(ctx context.Context, category Category) ([]CatalogEntry, error)

	// Insert creates a new entry together with its initial price history
	Insert(ctx context.Context, entry *CatalogEntry) error
	// UpdateDetails replaces the listing-derived descriptive fields
	UpdateDetails(ctx context.Context, entry *CatalogEntry) error
	// ApplyPrice sets the current price and, when point is non-nil, appends it to the
	// history unless an entry for point.Date exists. Both happen atomically.
	ApplyPrice(ctx context.Context, id string, price int64, point *PricePoint) error
	SetBenchmarkScore(ctx context.Context, id string, score int64) error
	SetReview(ctx context.Context, id string, review Review) error

	// DeleteCategoryExcept removes every entry of the category whose name is not in keep
	DeleteCategoryExcept(ctx context.Context, category Category, keep []string) (int, error)
}

// ListingSource is the crawl collaborator
type ListingSource interface {
	Fetch(ctx context.Context, category Category) ([]ScrapedListing, error)
}

// BenchmarkSource is the benchmark-score collaborator
type BenchmarkSource interface {
	Fetch(ctx context.Context, category Category) ([]BenchmarkObservation, error)
}

// ReviewGenerator is the text-generation collaborator
type ReviewGenerator interface {
	Generate(ctx context.Context, productName, specHint string) (*Review, error)
}
