package domain

// MatchTier names the matcher strategy level that produced a match
type MatchTier string

const (
	TierExact      MatchTier = "exact"
	TierKey        MatchTier = "key"
	TierKeyVariant MatchTier = "key-variant"
	TierSimilarity MatchTier = "similarity"
	TierKeyword    MatchTier = "keyword"
)

// MatchMode selects the tie-break and tier set used by the matcher
type MatchMode int

const (
	// MatchModePrice prefers the lowest price and enables the keyword tier
	MatchModePrice MatchMode = iota
	// MatchModeBenchmark prefers the highest score
	MatchModeBenchmark
)

// Candidate is one scraped or benchmark record the matcher may select
type Candidate struct {
	Name  string `json:"name"`
	Price int64  `json:"price,omitempty"`
	Score int64  `json:"score,omitempty"`
}

// MatchResult represents the result of a product matching operation
type MatchResult struct {
	Index      int       `json:"index"`
	Candidate  Candidate `json:"candidate"`
	Tier       MatchTier `json:"tier"`
	Key        string    `json:"key,omitempty"`
	Similarity float64   `json:"similarity"`
}

// SyncResult summarises one category sync pass
type SyncResult struct {
	Category        Category `json:"category"`
	Listings        int      `json:"listings"`
	Inserted        int      `json:"inserted"`
	Updated         int      `json:"updated"`
	Deleted         int      `json:"deleted"`
	HistoryAppended int      `json:"historyAppended"`
	Failed          int      `json:"failed"`
	DeletionSkipped bool     `json:"deletionSkipped"`
}

// BenchmarkResult summarises one benchmark attachment pass
type BenchmarkResult struct {
	Category     Category `json:"category"`
	Observations int      `json:"observations"`
	Candidates   int      `json:"candidates"`
	Matched      int      `json:"matched"`
	Updated      int      `json:"updated"`
	Unmatched    int      `json:"unmatched"`
	BelowFloor   int      `json:"belowFloor"`
	Failed       int      `json:"failed"`
}

// OfferResult summarises one offer-matching (price-matching) pass
type OfferResult struct {
	Category        Category          `json:"category"`
	Offers          int               `json:"offers"`
	Matched         int               `json:"matched"`
	Unmatched       int               `json:"unmatched"`
	HistoryAppended int               `json:"historyAppended"`
	Failed          int               `json:"failed"`
	Tiers           map[MatchTier]int `json:"tiers"`
}

// EnrichmentResult summarises one review-enrichment pass
type EnrichmentResult struct {
	Category Category `json:"category"`
	Pending  int      `json:"pending"`
	Enriched int      `json:"enriched"`
	Cached   int      `json:"cached"`
	Failed   int      `json:"failed"`
}
