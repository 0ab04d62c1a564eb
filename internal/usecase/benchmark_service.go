package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/pcsite/backend/internal/domain"
	"github.com/pcsite/backend/internal/logging"
)

// ScoreFloorRule sets the minimum credible benchmark score for keys of a category.
// An empty Pattern matches every key.
type ScoreFloorRule struct {
	Category domain.Category
	Pattern  string
	MinScore int64
}

// DefaultScoreFloorRules returns the built-in floor table: low-end product lines
// get a lower floor than the rest of their category
func DefaultScoreFloorRules() []ScoreFloorRule {
	return []ScoreFloorRule{
		{Category: domain.CategoryGraphics, Pattern: `^(GT|GTX 1[0-6]\d\d|R[579]|HD)\b`, MinScore: 300},
		{Category: domain.CategoryGraphics, MinScore: 2000},
		{Category: domain.CategoryProcessor, Pattern: `^(PENTIUM|CELERON|ATHLON)\b`, MinScore: 500},
		{Category: domain.CategoryProcessor, MinScore: 3000},
	}
}

type compiledFloor struct {
	category domain.Category
	pattern  *regexp.Regexp
	minScore int64
}

// ScoreFloors is an ordered score-floor table; the first matching rule wins
type ScoreFloors struct {
	rules []compiledFloor
}

// NewScoreFloors compiles a floor table
func NewScoreFloors(rules []ScoreFloorRule) (*ScoreFloors, error) {
	floors := &ScoreFloors{rules: make([]compiledFloor, 0, len(rules))}
	for i, r := range rules {
		if _, err := domain.ParseCategory(string(r.Category)); err != nil {
			return nil, fmt.Errorf("score floor rule %d: %w", i, err)
		}
		if r.MinScore < 0 {
			return nil, fmt.Errorf("%w: score floor rule %d has negative min_score", domain.ErrInvalidRequest, i)
		}
		c := compiledFloor{category: r.Category, minScore: r.MinScore}
		if r.Pattern != "" {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("score floor rule %d: %w", i, err)
			}
			c.pattern = re
		}
		floors.rules = append(floors.rules, c)
	}
	return floors, nil
}

// Floor returns the minimum score for a key, or 0 when no rule applies
func (f *ScoreFloors) Floor(category domain.Category, key string) int64 {
	if f == nil {
		return 0
	}
	for _, r := range f.rules {
		if r.category != category {
			continue
		}
		if r.pattern == nil || r.pattern.MatchString(key) {
			return r.minScore
		}
	}
	return 0
}

// BenchmarkService attaches benchmark scores to catalog entries
type BenchmarkService struct {
	store   domain.CatalogStore
	matcher *MatchingService
	floors  *ScoreFloors
}

// NewBenchmarkService creates a new benchmark service
func NewBenchmarkService(store domain.CatalogStore, matcher *MatchingService, floors *ScoreFloors) *BenchmarkService {
	return &BenchmarkService{
		store:   store,
		matcher: matcher,
		floors:  floors,
	}
}

// AttachBenchmarks links benchmark observations to catalog entries that lack a score.
//
// Observations are indexed by identity key and its variants, each pointing at the best
// (maximum) score seen for it. Entries are looked up by their primary key, then by
// their variants. Entries whose name yields no key fall back to the matcher in
// benchmark mode. A score below the category floor for the key is discarded.
func (s *BenchmarkService) AttachBenchmarks(
	ctx context.Context,
	category domain.Category,
	entries []domain.CatalogEntry,
	observations []domain.BenchmarkObservation,
) (*domain.BenchmarkResult, error) {
	if !category.SupportsKeys() {
		return nil, fmt.Errorf("%w: no benchmark keys for %q", domain.ErrUnsupportedCategory, category)
	}

	log := logging.FromContext(ctx).With().Str("category", string(category)).Logger()
	result := &domain.BenchmarkResult{Category: category, Observations: len(observations)}

	scores := make(map[string]int64)
	var candidates []domain.Candidate
	for _, obs := range observations {
		if obs.Score <= 0 {
			continue
		}
		candidates = append(candidates, domain.Candidate{Name: obs.Name, Score: obs.Score})
		key, ok := ParseKey(obs.Name, category)
		if !ok {
			continue
		}
		for _, v := range key.Variants() {
			if obs.Score > scores[v] {
				scores[v] = obs.Score
			}
		}
	}
	result.Candidates = len(candidates)
	set := s.matcher.Prepare(candidates, category)

	var failures []error
	for i := range entries {
		entry := &entries[i]
		if entry.Benchmark != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		score, key, found := s.lookup(ctx, entry.Name, category, scores, set)
		if !found {
			result.Unmatched++
			continue
		}

		if floor := s.floors.Floor(category, key); score < floor {
			result.BelowFloor++
			log.Debug().
				Str("name", entry.Name).
				Str("key", key).
				Int64("score", score).
				Int64("floor", floor).
				Msg("benchmark score below floor")
			continue
		}
		result.Matched++

		if err := s.store.SetBenchmarkScore(ctx, entry.ID, score); err != nil {
			result.Failed++
			failures = append(failures, &domain.RecordError{EntryID: entry.ID, Name: entry.Name, Op: "set score", Err: err})
			logRecordFailure(&log, entry, err)
			continue
		}
		entry.Benchmark = &score
		result.Updated++
	}

	log.Info().
		Int("observations", result.Observations).
		Int("matched", result.Matched).
		Int("unmatched", result.Unmatched).
		Int("below_floor", result.BelowFloor).
		Msg("benchmarks attached")

	if len(failures) > 0 {
		return result, fmt.Errorf("%w: %w", domain.ErrPartialSync, errors.Join(failures...))
	}
	return result, nil
}

// lookup finds the score for an entry name. The returned key is what the floor table
// is evaluated against: the identity key, or the canonical name when none was found.
func (s *BenchmarkService) lookup(
	ctx context.Context,
	name string,
	category domain.Category,
	scores map[string]int64,
	set *CandidateSet,
) (int64, string, bool) {
	if key, ok := ParseKey(name, category); ok {
		for _, v := range key.Variants() {
			if score, hit := scores[v]; hit {
				return score, key.String(), true
			}
		}
		return 0, key.String(), false
	}

	match, err := s.matcher.MatchPrepared(ctx, name, set, domain.MatchModeBenchmark)
	if err != nil {
		return 0, "", false
	}
	return match.Candidate.Score, Normalize(name), true
}
