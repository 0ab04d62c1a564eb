package crawler

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/pcsite/backend/internal/domain"
	"github.com/pcsite/backend/internal/logging"
)

// BenchmarkSelectors locate the name and score of one benchmark table row
type BenchmarkSelectors struct {
	Row   string `mapstructure:"row"`
	Name  string `mapstructure:"name"`
	Score string `mapstructure:"score"`
}

// BenchmarkSource is a benchmark chart for one category
type BenchmarkSource struct {
	URL       string             `mapstructure:"url"`
	Selectors BenchmarkSelectors `mapstructure:"selectors"`
}

// BenchmarkFetcher implements domain.BenchmarkSource by scraping benchmark charts
type BenchmarkFetcher struct {
	client  *client
	sources map[domain.Category]BenchmarkSource
}

// NewBenchmarkFetcher creates a fetcher for the configured chart sources
func NewBenchmarkFetcher(cfg Config, sources map[domain.Category]BenchmarkSource) *BenchmarkFetcher {
	return &BenchmarkFetcher{client: newClient(cfg), sources: sources}
}

// Fetch returns the (name, score) rows of the category's chart. Rows without a
// positive score are dropped.
func (f *BenchmarkFetcher) Fetch(ctx context.Context, category domain.Category) ([]domain.BenchmarkObservation, error) {
	source, ok := f.sources[category]
	if !ok || source.URL == "" {
		return nil, fmt.Errorf("%w: no benchmark source for %q", domain.ErrUnsupportedCategory, category)
	}

	var observations []domain.BenchmarkObservation
	err := f.client.pages(ctx, category, source.URL, func(doc *goquery.Document, _ *url.URL) int {
		found := parseBenchmarks(doc, source.Selectors, category)
		observations = append(observations, found...)
		return len(found)
	})

	logging.FromContext(ctx).Info().
		Str("category", string(category)).
		Int("observations", len(observations)).
		Msg("benchmark crawl finished")
	return observations, err
}

func parseBenchmarks(doc *goquery.Document, sel BenchmarkSelectors, category domain.Category) []domain.BenchmarkObservation {
	var out []domain.BenchmarkObservation
	doc.Find(sel.Row).Each(func(_ int, s *goquery.Selection) {
		name := cleanText(s.Find(sel.Name).First().Text())
		score := ParseNumber(s.Find(sel.Score).First().Text())
		if name == "" || score <= 0 {
			return
		}
		out = append(out, domain.BenchmarkObservation{Name: name, Score: score, Category: category})
	})
	return out
}
