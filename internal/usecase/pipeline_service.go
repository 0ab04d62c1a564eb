package usecase

import (
	"context"
	"fmt"

	"github.com/pcsite/backend/internal/domain"
	"github.com/pcsite/backend/internal/logging"
)

// PipelineService drives one pass per category: fetch from the external collaborator,
// then hand the batch to the engine
type PipelineService struct {
	listings   domain.ListingSource
	benchmarks domain.BenchmarkSource
	store      domain.CatalogStore
	sync       *CatalogSyncService
	attacher   *BenchmarkService
	enrichment *EnrichmentService
}

// NewPipelineService creates a new pipeline service
func NewPipelineService(
	listings domain.ListingSource,
	benchmarks domain.BenchmarkSource,
	store domain.CatalogStore,
	sync *CatalogSyncService,
	attacher *BenchmarkService,
	enrichment *EnrichmentService,
) *PipelineService {
	return &PipelineService{
		listings:   listings,
		benchmarks: benchmarks,
		store:      store,
		sync:       sync,
		attacher:   attacher,
		enrichment: enrichment,
	}
}

// RunSync crawls a category, dedupes the listings and synchronizes the catalog.
// A crawl that fails without any listing aborts before the sync. A partial crawl is
// synchronized but never deletes, since absent listings may sit on a failed page.
func (p *PipelineService) RunSync(ctx context.Context, category domain.Category) (*domain.SyncResult, error) {
	log := logging.FromContext(ctx).With().Str("category", string(category)).Logger()

	listings, crawlErr := p.listings.Fetch(ctx, category)
	if crawlErr != nil {
		if len(listings) == 0 {
			return nil, fmt.Errorf("%w: crawl %s: %v", domain.ErrCollaboratorFailure, category, crawlErr)
		}
		log.Warn().Err(crawlErr).Int("listings", len(listings)).Msg("partial crawl")
	}

	deduped := DedupeListings(category, listings)
	log.Info().Int("fetched", len(listings)).Int("unique", len(deduped)).Msg("listings fetched")

	return p.sync.syncCategory(ctx, category, deduped, crawlErr == nil)
}

// RunBenchmarks fetches benchmark observations and attaches them to entries missing a score
func (p *PipelineService) RunBenchmarks(ctx context.Context, category domain.Category) (*domain.BenchmarkResult, error) {
	if !category.SupportsKeys() {
		return nil, fmt.Errorf("%w: no benchmark keys for %q", domain.ErrUnsupportedCategory, category)
	}
	log := logging.FromContext(ctx).With().Str("category", string(category)).Logger()

	observations, err := p.benchmarks.Fetch(ctx, category)
	if err != nil {
		if len(observations) == 0 {
			return nil, fmt.Errorf("%w: benchmarks %s: %v", domain.ErrCollaboratorFailure, category, err)
		}
		log.Warn().Err(err).Int("observations", len(observations)).Msg("partial benchmark fetch")
	}

	entries, err := p.store.ListMissingScore(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", category, err)
	}

	return p.attacher.AttachBenchmarks(ctx, category, entries, observations)
}

// RunEnrichment fills missing review text for a category
func (p *PipelineService) RunEnrichment(ctx context.Context, category domain.Category) (*domain.EnrichmentResult, error) {
	if p.enrichment == nil {
		return nil, fmt.Errorf("%w: review generation is not configured", domain.ErrInvalidRequest)
	}
	return p.enrichment.EnrichCategory(ctx, category)
}

// ReconcileOffers reconciles an external offer set onto the category's entries
func (p *PipelineService) ReconcileOffers(ctx context.Context, category domain.Category, offers []domain.Candidate) (*domain.OfferResult, error) {
	return p.sync.ReconcileOffers(ctx, category, offers)
}
