package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pcsite/backend/internal/domain"
	"github.com/pcsite/backend/internal/logging"
)

// SyncConfig holds configuration for catalog synchronization
type SyncConfig struct {
	// MinListingsForDeletion is the smallest listing batch that may delete delisted
	// entries. Smaller batches still insert and update but never delete.
	MinListingsForDeletion int
}

// CatalogSyncService refreshes one category of the catalog from a scraped batch
// and reconciles external price offers onto existing entries
type CatalogSyncService struct {
	store                  domain.CatalogStore
	matcher                *MatchingService
	reconciler             *PriceReconciler
	minListingsForDeletion int
	newID                  func() string
}

// NewCatalogSyncService creates a new catalog sync service
func NewCatalogSyncService(
	store domain.CatalogStore,
	matcher *MatchingService,
	reconciler *PriceReconciler,
	config SyncConfig,
) *CatalogSyncService {
	minListings := config.MinListingsForDeletion
	if minListings <= 0 {
		minListings = 1
	}

	return &CatalogSyncService{
		store:                  store,
		matcher:                matcher,
		reconciler:             reconciler,
		minListingsForDeletion: minListings,
		newID:                  uuid.NewString,
	}
}

// SyncCategory inserts or updates one catalog entry per listing, then deletes every
// entry of the category whose name is absent from the batch.
//
// Listings must already be deduplicated by normalized name. An existing entry is
// identified by its exact (trimmed) name. Deletion runs only after every listing was
// applied without error: any record failure returns the partial result with an error
// wrapping domain.ErrPartialSync, and a cancelled context returns the partial result
// with the context error. In both cases nothing is deleted.
func (s *CatalogSyncService) SyncCategory(
	ctx context.Context,
	category domain.Category,
	listings []domain.ScrapedListing,
) (*domain.SyncResult, error) {
	return s.syncCategory(ctx, category, listings, true)
}

// syncCategory is SyncCategory with deletion optionally disabled, for batches known
// to be incomplete
func (s *CatalogSyncService) syncCategory(
	ctx context.Context,
	category domain.Category,
	listings []domain.ScrapedListing,
	allowDelete bool,
) (*domain.SyncResult, error) {
	log := logging.FromContext(ctx).With().Str("category", string(category)).Logger()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	existing, err := s.store.ListByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", category, err)
	}

	byName := make(map[string]*domain.CatalogEntry, len(existing))
	for i := range existing {
		byName[strings.TrimSpace(existing[i].Name)] = &existing[i]
	}

	result := &domain.SyncResult{Category: category, Listings: len(listings)}
	seen := make(map[string]bool, len(listings))
	today := s.reconciler.Today()
	var failures []error

	for _, listing := range listings {
		if err := ctx.Err(); err != nil {
			result.DeletionSkipped = true
			log.Warn().Err(err).Int("processed", len(seen)).Msg("sync cancelled, deletion skipped")
			return result, err
		}

		name := strings.TrimSpace(listing.Name)
		if name == "" {
			continue
		}
		seen[name] = true

		if entry, ok := byName[name]; ok {
			appended, err := s.updateEntry(ctx, entry, listing, today)
			if err != nil {
				result.Failed++
				failures = append(failures, &domain.RecordError{EntryID: entry.ID, Name: name, Op: "update", Err: err})
				log.Warn().Err(err).Str("entry_id", entry.ID).Str("name", name).Msg("update failed")
				continue
			}
			result.Updated++
			if appended {
				result.HistoryAppended++
			}
			continue
		}

		entry, err := s.insertEntry(ctx, category, name, listing, today)
		if err != nil {
			result.Failed++
			failures = append(failures, &domain.RecordError{Name: name, Op: "insert", Err: err})
			log.Warn().Err(err).Str("name", name).Msg("insert failed")
			continue
		}
		byName[name] = entry
		result.Inserted++
		if len(entry.PriceHistory) > 0 {
			result.HistoryAppended++
		}
	}

	if len(failures) > 0 {
		result.DeletionSkipped = true
		log.Warn().Int("failed", result.Failed).Msg("record failures, deletion skipped")
		return result, fmt.Errorf("%w: %w", domain.ErrPartialSync, errors.Join(failures...))
	}

	if err := ctx.Err(); err != nil {
		result.DeletionSkipped = true
		return result, err
	}

	if !allowDelete {
		result.DeletionSkipped = true
		log.Warn().Msg("incomplete batch, deletion skipped")
		return result, nil
	}

	if len(seen) < s.minListingsForDeletion {
		result.DeletionSkipped = true
		log.Warn().
			Int("listings", len(seen)).
			Int("min_listings", s.minListingsForDeletion).
			Msg("batch too small, deletion skipped")
		return result, nil
	}

	keep := make([]string, 0, len(seen))
	for name := range seen {
		keep = append(keep, name)
	}
	sort.Strings(keep)

	deleted, err := s.store.DeleteCategoryExcept(ctx, category, keep)
	if err != nil {
		return result, fmt.Errorf("delete delisted %s: %w", category, err)
	}
	result.Deleted = deleted

	log.Info().
		Int("inserted", result.Inserted).
		Int("updated", result.Updated).
		Int("deleted", result.Deleted).
		Int("history_appended", result.HistoryAppended).
		Msg("category synced")

	return result, nil
}

// updateEntry applies the listing's descriptive fields and price to an existing entry.
// It reports whether a history point was appended.
func (s *CatalogSyncService) updateEntry(
	ctx context.Context,
	entry *domain.CatalogEntry,
	listing domain.ScrapedListing,
	today string,
) (bool, error) {
	if detailsChanged(entry, listing) {
		if listing.SpecText != "" {
			entry.SpecText = listing.SpecText
			entry.Specs = ParseSpecText(listing.SpecText)
		}
		if listing.Image != "" {
			entry.Image = listing.Image
		}
		if err := s.store.UpdateDetails(ctx, entry); err != nil {
			return false, err
		}
	}

	// Price 0 is an unknown price and never overwrites a known one
	if listing.Price <= 0 {
		return false, nil
	}

	updated, point := s.reconciler.ReconcileOn(*entry, listing.Price, today)
	if err := s.store.ApplyPrice(ctx, entry.ID, updated.Price, point); err != nil {
		return false, err
	}
	*entry = updated
	return point != nil, nil
}

func detailsChanged(entry *domain.CatalogEntry, listing domain.ScrapedListing) bool {
	if listing.SpecText != "" && listing.SpecText != entry.SpecText {
		return true
	}
	return listing.Image != "" && listing.Image != entry.Image
}

func (s *CatalogSyncService) insertEntry(
	ctx context.Context,
	category domain.Category,
	name string,
	listing domain.ScrapedListing,
	today string,
) (*domain.CatalogEntry, error) {
	entry := &domain.CatalogEntry{
		ID:           s.newID(),
		Category:     category,
		Name:         name,
		Price:        listing.Price,
		SpecText:     listing.SpecText,
		Specs:        ParseSpecText(listing.SpecText),
		Image:        listing.Image,
		Manufacturer: ManufacturerOf(name),
		PriceHistory: []domain.PricePoint{},
	}
	if listing.Price > 0 {
		entry.PriceHistory = append(entry.PriceHistory, domain.PricePoint{Date: today, Price: listing.Price})
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ReconcileOffers matches every catalog entry of the category against an external
// offer set with the full tiered matcher (price mode) and reconciles the matched
// offer price. Unmatched entries are counted and left untouched.
func (s *CatalogSyncService) ReconcileOffers(
	ctx context.Context,
	category domain.Category,
	offers []domain.Candidate,
) (*domain.OfferResult, error) {
	log := logging.FromContext(ctx).With().Str("category", string(category)).Logger()

	priced := make([]domain.Candidate, 0, len(offers))
	for _, o := range offers {
		if o.Price > 0 {
			priced = append(priced, o)
		}
	}

	entries, err := s.store.ListByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", category, err)
	}

	result := &domain.OfferResult{
		Category: category,
		Offers:   len(priced),
		Tiers:    make(map[domain.MatchTier]int),
	}
	set := s.matcher.Prepare(priced, category)
	today := s.reconciler.Today()
	var failures []error

	for i := range entries {
		entry := &entries[i]
		if err := ctx.Err(); err != nil {
			return result, err
		}

		match, err := s.matcher.MatchPrepared(ctx, entry.Name, set, domain.MatchModePrice)
		if err != nil {
			if errors.Is(err, domain.ErrNoMatch) || errors.Is(err, domain.ErrInvalidRequest) {
				result.Unmatched++
				continue
			}
			return result, err
		}

		updated, point := s.reconciler.ReconcileOn(*entry, match.Candidate.Price, today)
		if err := s.store.ApplyPrice(ctx, entry.ID, updated.Price, point); err != nil {
			result.Failed++
			failures = append(failures, &domain.RecordError{EntryID: entry.ID, Name: entry.Name, Op: "apply price", Err: err})
			logRecordFailure(&log, entry, err)
			continue
		}

		result.Matched++
		result.Tiers[match.Tier]++
		if point != nil {
			result.HistoryAppended++
		}
	}

	log.Info().
		Int("offers", result.Offers).
		Int("matched", result.Matched).
		Int("unmatched", result.Unmatched).
		Msg("offers reconciled")

	if len(failures) > 0 {
		return result, fmt.Errorf("%w: %w", domain.ErrPartialSync, errors.Join(failures...))
	}
	return result, nil
}

func logRecordFailure(log *zerolog.Logger, entry *domain.CatalogEntry, err error) {
	log.Warn().Err(err).Str("entry_id", entry.ID).Str("name", entry.Name).Msg("record update failed")
}
