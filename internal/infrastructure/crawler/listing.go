package crawler

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/pcsite/backend/internal/domain"
	"github.com/pcsite/backend/internal/logging"
)

// ListingSelectors locate the fields of one product card
type ListingSelectors struct {
	Item      string `mapstructure:"item"`
	Name      string `mapstructure:"name"`
	Price     string `mapstructure:"price"`
	Spec      string `mapstructure:"spec"`
	Image     string `mapstructure:"image"`
	ImageAttr string `mapstructure:"image_attr"`
}

// ListingSource is a paginated shop listing for one category
type ListingSource struct {
	URL       string           `mapstructure:"url"`
	Selectors ListingSelectors `mapstructure:"selectors"`
}

// ListingFetcher implements domain.ListingSource by scraping shop listing pages
type ListingFetcher struct {
	client  *client
	sources map[domain.Category]ListingSource
}

// NewListingFetcher creates a fetcher for the configured category sources
func NewListingFetcher(cfg Config, sources map[domain.Category]ListingSource) *ListingFetcher {
	return &ListingFetcher{client: newClient(cfg), sources: sources}
}

// Fetch returns every listing found for the category. A failed page is skipped and
// reported in the returned error alongside the listings from the other pages.
func (f *ListingFetcher) Fetch(ctx context.Context, category domain.Category) ([]domain.ScrapedListing, error) {
	source, ok := f.sources[category]
	if !ok || source.URL == "" {
		return nil, fmt.Errorf("%w: no listing source for %q", domain.ErrUnsupportedCategory, category)
	}

	var listings []domain.ScrapedListing
	err := f.client.pages(ctx, category, source.URL, func(doc *goquery.Document, base *url.URL) int {
		found := parseListings(doc, base, source.Selectors, category)
		listings = append(listings, found...)
		return len(found)
	})

	logging.FromContext(ctx).Info().
		Str("category", string(category)).
		Int("listings", len(listings)).
		Msg("listing crawl finished")
	return listings, err
}

func parseListings(doc *goquery.Document, base *url.URL, sel ListingSelectors, category domain.Category) []domain.ScrapedListing {
	imageAttr := sel.ImageAttr
	if imageAttr == "" {
		imageAttr = "src"
	}

	var listings []domain.ScrapedListing
	doc.Find(sel.Item).Each(func(_ int, s *goquery.Selection) {
		name := cleanText(s.Find(sel.Name).First().Text())
		if name == "" {
			return
		}

		listing := domain.ScrapedListing{
			Name:     name,
			Price:    ParseNumber(s.Find(sel.Price).First().Text()),
			Category: category,
		}
		if sel.Spec != "" {
			listing.SpecText = cleanText(s.Find(sel.Spec).First().Text())
		}
		if sel.Image != "" {
			img := s.Find(sel.Image).First()
			src, ok := img.Attr(imageAttr)
			if !ok || src == "" {
				src, _ = img.Attr("src")
			}
			listing.Image = resolve(base, src)
		}
		listings = append(listings, listing)
	})
	return listings
}
