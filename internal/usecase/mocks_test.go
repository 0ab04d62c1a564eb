package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pcsite/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string]interface{}
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockCatalogStore is an in-memory domain.CatalogStore with per-name failure injection
type MockCatalogStore struct {
	mu      sync.Mutex
	entries map[string]*domain.CatalogEntry

	listError   error
	deleteError error
	failInsert  map[string]error // by name
	failApply   map[string]error // by name
	failScore   map[string]error // by name

	insertCalls   int
	applyCalls    int
	deleteCalled  bool
	deletedKeep   []string
	scoreCalls    int
	reviewUpdates map[string]domain.Review
}

func NewMockCatalogStore(entries ...domain.CatalogEntry) *MockCatalogStore {
	m := &MockCatalogStore{
		entries:       make(map[string]*domain.CatalogEntry),
		failInsert:    make(map[string]error),
		failApply:     make(map[string]error),
		failScore:     make(map[string]error),
		reviewUpdates: make(map[string]domain.Review),
	}
	for i := range entries {
		e := entries[i]
		m.entries[e.ID] = &e
	}
	return m
}

func (m *MockCatalogStore) Get(ctx context.Context, id string) (*domain.CatalogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *e
	return &out, nil
}

func (m *MockCatalogStore) list(category domain.Category, keep func(*domain.CatalogEntry) bool) ([]domain.CatalogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listError != nil {
		return nil, m.listError
	}
	var out []domain.CatalogEntry
	for _, e := range m.entries {
		if e.Category == category && keep(e) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockCatalogStore) ListByCategory(ctx context.Context, category domain.Category) ([]domain.CatalogEntry, error) {
	return m.list(category, func(*domain.CatalogEntry) bool { return true })
}

func (m *MockCatalogStore) ListMissingScore(ctx context.Context, category domain.Category) ([]domain.CatalogEntry, error) {
	return m.list(category, func(e *domain.CatalogEntry) bool { return e.Benchmark == nil })
}

func (m *MockCatalogStore) ListMissingReview(ctx context.Context, category domain.Category) ([]domain.CatalogEntry, error) {
	return m.list(category, func(e *domain.CatalogEntry) bool { return e.Review == "" })
}

func (m *MockCatalogStore) Insert(ctx context.Context, entry *domain.CatalogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCalls++
	if err := m.failInsert[entry.Name]; err != nil {
		return err
	}
	e := *entry
	e.PriceHistory = append([]domain.PricePoint(nil), entry.PriceHistory...)
	m.entries[e.ID] = &e
	return nil
}

func (m *MockCatalogStore) UpdateDetails(ctx context.Context, entry *domain.CatalogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entry.ID]
	if !ok {
		return domain.ErrNotFound
	}
	e.SpecText = entry.SpecText
	e.Specs = entry.Specs
	e.Image = entry.Image
	return nil
}

func (m *MockCatalogStore) ApplyPrice(ctx context.Context, id string, price int64, point *domain.PricePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyCalls++
	e, ok := m.entries[id]
	if !ok {
		return domain.ErrNotFound
	}
	if err := m.failApply[e.Name]; err != nil {
		return err
	}
	e.Price = price
	if point != nil && !e.HasPriceOn(point.Date) {
		e.PriceHistory = append(e.PriceHistory, *point)
	}
	return nil
}

func (m *MockCatalogStore) SetBenchmarkScore(ctx context.Context, id string, score int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scoreCalls++
	e, ok := m.entries[id]
	if !ok {
		return domain.ErrNotFound
	}
	if err := m.failScore[e.Name]; err != nil {
		return err
	}
	e.Benchmark = &score
	return nil
}

func (m *MockCatalogStore) SetReview(ctx context.Context, id string, review domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Review = review.Review
	e.SpecSummary = review.SpecSummary
	m.reviewUpdates[id] = review
	return nil
}

func (m *MockCatalogStore) DeleteCategoryExcept(ctx context.Context, category domain.Category, keep []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalled = true
	m.deletedKeep = keep
	if m.deleteError != nil {
		return 0, m.deleteError
	}
	kept := make(map[string]bool, len(keep))
	for _, name := range keep {
		kept[name] = true
	}
	deleted := 0
	for id, e := range m.entries {
		if e.Category == category && !kept[e.Name] {
			delete(m.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

// byName returns a copy of the entry with the given name, or nil
func (m *MockCatalogStore) byName(name string) *domain.CatalogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Name == name {
			out := *e
			return &out
		}
	}
	return nil
}

func (m *MockCatalogStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// MockListingSource is a mock implementation of domain.ListingSource
type MockListingSource struct {
	listings []domain.ScrapedListing
	err      error
	calls    int
}

func (m *MockListingSource) Fetch(ctx context.Context, category domain.Category) ([]domain.ScrapedListing, error) {
	m.calls++
	return m.listings, m.err
}

// MockBenchmarkSource is a mock implementation of domain.BenchmarkSource
type MockBenchmarkSource struct {
	observations []domain.BenchmarkObservation
	err          error
}

func (m *MockBenchmarkSource) Fetch(ctx context.Context, category domain.Category) ([]domain.BenchmarkObservation, error) {
	return m.observations, m.err
}

// MockReviewGenerator is a mock implementation of domain.ReviewGenerator
type MockReviewGenerator struct {
	reviews map[string]*domain.Review // by product name
	err     error
	calls   []string
}

func NewMockReviewGenerator() *MockReviewGenerator {
	return &MockReviewGenerator{reviews: make(map[string]*domain.Review)}
}

func (m *MockReviewGenerator) Generate(ctx context.Context, productName, specHint string) (*domain.Review, error) {
	m.calls = append(m.calls, productName)
	if m.err != nil {
		return nil, m.err
	}
	if r, ok := m.reviews[productName]; ok {
		return r, nil
	}
	return &domain.Review{Review: productName + " review", SpecSummary: specHint}, nil
}

func int64Ptr(v int64) *int64 {
	return &v
}
