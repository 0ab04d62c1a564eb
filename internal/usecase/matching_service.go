package usecase

import (
	"context"
	"strings"

	"github.com/pcsite/backend/internal/domain"
	"github.com/pcsite/backend/internal/logging"
)

// Matcher defaults
const (
	defaultSimilarityThreshold = 0.65
	defaultKeywordMinLength    = 3
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	SimilarityThreshold float64
	KeywordMinLength    int
	// KeyGuard rejects, in every tier after exact, candidates whose own identity key
	// conflicts with the target's key ("RTX 4070" never takes "RTX 4070 Ti").
	// Off by default: the key tier then accepts any candidate containing the key.
	KeyGuard           bool
	EnableDebugLogging bool
}

// MatchingService links a target name to the best candidate using a tiered strategy:
// exact, identity key (then key variants), similarity threshold, keyword subset.
type MatchingService struct {
	similarityThreshold float64
	keywordMinLength    int
	keyGuard            bool
	enableDebugLogging  bool
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	threshold := config.SimilarityThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = defaultSimilarityThreshold
	}

	minLength := config.KeywordMinLength
	if minLength <= 0 {
		minLength = defaultKeywordMinLength
	}

	return &MatchingService{
		similarityThreshold: threshold,
		keywordMinLength:    minLength,
		keyGuard:            config.KeyGuard,
		enableDebugLogging:  config.EnableDebugLogging,
	}
}

type preparedCandidate struct {
	domain.Candidate
	index     int
	canonical string
	compact   string
	key       string
}

// CandidateSet is a candidate list with canonical forms and keys computed once,
// so that many targets can be matched against the same batch
type CandidateSet struct {
	category domain.Category
	items    []preparedCandidate
}

// Len returns the number of candidates in the set
func (c *CandidateSet) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Category returns the category the set was prepared for
func (c *CandidateSet) Category() domain.Category {
	if c == nil {
		return ""
	}
	return c.category
}

// Prepare canonicalizes a candidate batch for one category
func (s *MatchingService) Prepare(candidates []domain.Candidate, category domain.Category) *CandidateSet {
	set := &CandidateSet{
		category: category,
		items:    make([]preparedCandidate, 0, len(candidates)),
	}
	for i, c := range candidates {
		canonical := NormalizeFor(c.Name, category)
		item := preparedCandidate{
			Candidate: c,
			index:     i,
			canonical: canonical,
			compact:   compact(canonical),
		}
		if category.SupportsKeys() {
			item.key = ExtractKey(c.Name, category)
		}
		set.items = append(set.items, item)
	}
	return set
}

// Match finds the best candidate for one target name in a single category.
// It returns domain.ErrNoMatch when no tier selects a candidate; callers leave the
// record untouched in that case.
func (s *MatchingService) Match(
	ctx context.Context,
	target string,
	candidates []domain.Candidate,
	category domain.Category,
	mode domain.MatchMode,
) (*domain.MatchResult, error) {
	return s.MatchPrepared(ctx, target, s.Prepare(candidates, category), mode)
}

// MatchPrepared is Match against a prepared candidate set
func (s *MatchingService) MatchPrepared(
	ctx context.Context,
	target string,
	set *CandidateSet,
	mode domain.MatchMode,
) (*domain.MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	canonical := NormalizeFor(target, set.Category())
	if canonical == "" {
		return nil, domain.ErrInvalidRequest
	}
	if set.Len() == 0 {
		return nil, domain.ErrNoMatch
	}

	q := s.newQuery(canonical, target, set.Category())
	result := s.matchTiers(q, set, mode)

	if s.enableDebugLogging {
		log := logging.FromContext(ctx)
		if result == nil {
			log.Debug().Str("target", target).Str("key", q.keyString).Msg("no match")
		} else {
			log.Debug().
				Str("target", target).
				Str("candidate", result.Candidate.Name).
				Str("tier", string(result.Tier)).
				Str("key", result.Key).
				Float64("similarity", result.Similarity).
				Msg("matched")
		}
	}

	if result == nil {
		return nil, domain.ErrNoMatch
	}
	return result, nil
}

// matchQuery is the target side of a match, computed once per target
type matchQuery struct {
	canonical string
	key       IdentityKey
	hasKey    bool
	keyString string
	// compact forms of every acceptable key, used by the key guard
	keySet map[string]bool
}

func (s *MatchingService) newQuery(canonical, raw string, category domain.Category) *matchQuery {
	q := &matchQuery{canonical: canonical}
	if !category.SupportsKeys() {
		return q
	}

	key, ok := ParseKey(raw, category)
	if !ok {
		return q
	}
	q.key = key
	q.hasKey = true
	q.keyString = key.String()
	q.keySet = make(map[string]bool)
	for _, v := range key.Variants() {
		q.keySet[compact(v)] = true
	}
	return q
}

// compatible reports whether a candidate may match the query: a candidate whose own
// key is known and not among the query's key variants is a different product
func (s *MatchingService) compatible(q *matchQuery, c *preparedCandidate) bool {
	if !s.keyGuard || !q.hasKey || c.key == "" {
		return true
	}
	return q.keySet[compact(c.key)]
}

func (s *MatchingService) matchTiers(q *matchQuery, set *CandidateSet, mode domain.MatchMode) *domain.MatchResult {
	// Tier 1: exact canonical equality
	if best := s.pick(set, mode, func(c *preparedCandidate) bool {
		return c.canonical == q.canonical
	}); best != nil {
		return s.result(best, domain.TierExact, q, 1.0)
	}

	// Tier 2: identity key, then its variants. Containment is on token boundaries, so
	// "RTX 4070" is not found in "RTX 40700"; glued names like "RTX4070TI" are reached
	// through the space-free variant, which is a plain substring test.
	if q.hasKey {
		if best := s.pick(set, mode, func(c *preparedCandidate) bool {
			return s.compatible(q, c) && containsPhrase(c.canonical, q.keyString)
		}); best != nil {
			return s.result(best, domain.TierKey, q, canonicalSimilarity(q.canonical, best.canonical))
		}

		for _, variant := range q.key.Variants()[1:] {
			contains := func(c *preparedCandidate) bool {
				if strings.Contains(variant, " ") {
					return containsPhrase(c.canonical, variant)
				}
				return strings.Contains(c.compact, variant)
			}
			if best := s.pick(set, mode, func(c *preparedCandidate) bool {
				return s.compatible(q, c) && contains(c)
			}); best != nil {
				return s.result(best, domain.TierKeyVariant, q, canonicalSimilarity(q.canonical, best.canonical))
			}
		}
	}

	// Tier 3: similarity at or above the threshold
	var best *preparedCandidate
	bestScore := -1.0
	for i := range set.items {
		c := &set.items[i]
		if c.canonical == "" || !s.compatible(q, c) {
			continue
		}
		score := canonicalSimilarity(q.canonical, c.canonical)
		if score < s.similarityThreshold {
			continue
		}
		if score > bestScore || (score == bestScore && preferred(c, best, mode)) {
			best = c
			bestScore = score
		}
	}
	if best != nil {
		return s.result(best, domain.TierSimilarity, q, bestScore)
	}

	// Tier 4: keyword subset, price matching only
	if mode != domain.MatchModePrice {
		return nil
	}
	tokens := keywordTokens(q.canonical, s.keywordMinLength)
	if len(tokens) == 0 {
		return nil
	}
	if best := s.pick(set, mode, func(c *preparedCandidate) bool {
		if !s.compatible(q, c) {
			return false
		}
		for _, token := range tokens {
			if !strings.Contains(c.canonical, token) {
				return false
			}
		}
		return true
	}); best != nil {
		return s.result(best, domain.TierKeyword, q, canonicalSimilarity(q.canonical, best.canonical))
	}

	return nil
}

// pick returns the preferred candidate among those accepted by keep
func (s *MatchingService) pick(set *CandidateSet, mode domain.MatchMode, keep func(*preparedCandidate) bool) *preparedCandidate {
	var best *preparedCandidate
	for i := range set.items {
		c := &set.items[i]
		if c.canonical == "" || !keep(c) {
			continue
		}
		if best == nil || preferred(c, best, mode) {
			best = c
		}
	}
	return best
}

// preferred reports whether a beats b under the mode's tie-break: lowest known price
// for price matching, highest score for benchmark matching. Equal candidates keep
// the earlier one.
func preferred(a, b *preparedCandidate, mode domain.MatchMode) bool {
	if b == nil {
		return true
	}
	switch mode {
	case domain.MatchModeBenchmark:
		return a.Score > b.Score
	default:
		if a.Price <= 0 {
			return false
		}
		return b.Price <= 0 || a.Price < b.Price
	}
}

func (s *MatchingService) result(c *preparedCandidate, tier domain.MatchTier, q *matchQuery, similarity float64) *domain.MatchResult {
	return &domain.MatchResult{
		Index:      c.index,
		Candidate:  c.Candidate,
		Tier:       tier,
		Key:        q.keyString,
		Similarity: similarity,
	}
}
