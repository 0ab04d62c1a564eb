package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pcsite/backend/internal/domain"
	"github.com/pcsite/backend/internal/logging"
)

// EnrichmentConfig holds configuration for review enrichment
type EnrichmentConfig struct {
	// Delay is the pause after every text-generation call
	Delay    time.Duration
	CacheTTL time.Duration
}

// EnrichmentService fills missing review and spec summary text
type EnrichmentService struct {
	store     domain.CatalogStore
	generator domain.ReviewGenerator
	cache     domain.CacheRepository
	delay     time.Duration
	cacheTTL  time.Duration
}

// NewEnrichmentService creates a new enrichment service
func NewEnrichmentService(
	store domain.CatalogStore,
	generator domain.ReviewGenerator,
	cache domain.CacheRepository,
	config EnrichmentConfig,
) *EnrichmentService {
	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &EnrichmentService{
		store:     store,
		generator: generator,
		cache:     cache,
		delay:     config.Delay,
		cacheTTL:  ttl,
	}
}

// EnrichCategory generates review text for every entry of the category that has none.
// Generation failures leave the entry blank and are counted; only store failures are
// returned, wrapped in domain.ErrPartialSync.
func (s *EnrichmentService) EnrichCategory(ctx context.Context, category domain.Category) (*domain.EnrichmentResult, error) {
	log := logging.FromContext(ctx).With().Str("category", string(category)).Logger()

	entries, err := s.store.ListMissingReview(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", category, err)
	}

	result := &domain.EnrichmentResult{Category: category, Pending: len(entries)}
	var failures []error

	for i := range entries {
		entry := &entries[i]
		if err := ctx.Err(); err != nil {
			return result, err
		}

		key := reviewCacheKey(category, entry.Name)
		review, cached := s.getFromCache(ctx, key)
		if !cached {
			generated, err := s.generator.Generate(ctx, entry.Name, entry.SpecText)
			if waitErr := s.wait(ctx); waitErr != nil && err == nil {
				err = waitErr
			}
			if err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				result.Failed++
				log.Warn().Err(err).Str("name", entry.Name).Msg("review generation failed")
				continue
			}
			review = generated
			if err := s.cache.Set(ctx, key, review, s.cacheTTL); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("failed to cache review")
			}
		}

		if err := s.store.SetReview(ctx, entry.ID, *review); err != nil {
			result.Failed++
			failures = append(failures, &domain.RecordError{EntryID: entry.ID, Name: entry.Name, Op: "set review", Err: err})
			logRecordFailure(&log, entry, err)
			continue
		}

		result.Enriched++
		if cached {
			result.Cached++
		}
	}

	log.Info().
		Int("pending", result.Pending).
		Int("enriched", result.Enriched).
		Int("cached", result.Cached).
		Int("failed", result.Failed).
		Msg("reviews enriched")

	if len(failures) > 0 {
		return result, fmt.Errorf("%w: %w", domain.ErrPartialSync, errors.Join(failures...))
	}
	return result, nil
}

// wait sleeps for the configured inter-item delay or until ctx is done
func (s *EnrichmentService) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func reviewCacheKey(category domain.Category, name string) string {
	return "review:" + string(category) + ":" + NormalizeFor(name, category)
}

// getFromCache retrieves a review from cache
func (s *EnrichmentService) getFromCache(ctx context.Context, key string) (*domain.Review, bool) {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	switch v := value.(type) {
	case *domain.Review:
		return v, true
	case domain.Review:
		return &v, true
	case map[string]interface{}:
		// JSON-backed caches return a generic map
		review := &domain.Review{}
		review.Review, _ = v["review"].(string)
		review.SpecSummary, _ = v["specSummary"].(string)
		if review.Review == "" {
			return nil, false
		}
		return review, true
	default:
		return nil, false
	}
}
