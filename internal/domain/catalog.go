package domain

import (
	"fmt"
	"strings"
	"time"
)

// Category identifies a hardware component family in the catalog
type Category string

const (
	CategoryProcessor   Category = "processor"
	CategoryGraphics    Category = "graphics-card"
	CategoryMotherboard Category = "motherboard"
	CategoryMemory      Category = "memory"
	CategoryPowerSupply Category = "power-supply"
	CategoryCase        Category = "case"
	CategoryCooler      Category = "cooler"
	CategoryStorage     Category = "storage"
)

// AllCategories lists every supported category in sync order
var AllCategories = []Category{
	CategoryProcessor,
	CategoryGraphics,
	CategoryMotherboard,
	CategoryMemory,
	CategoryPowerSupply,
	CategoryCase,
	CategoryCooler,
	CategoryStorage,
}

// ParseCategory validates a raw category value (path params, config keys)
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllCategories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedCategory, s)
}

// SupportsKeys reports whether the category has dedicated identity-key rules
func (c Category) SupportsKeys() bool {
	return c == CategoryProcessor || c == CategoryGraphics
}

// CapacityIsIdentity reports whether a size like "1TB" or "32GB" tells two products
// of the category apart
func (c Category) CapacityIsIdentity() bool {
	return c == CategoryMemory || c == CategoryStorage
}

// PricePoint is one observation in a product's price history.
// Date is the calendar day (YYYY-MM-DD) the price was observed.
type PricePoint struct {
	Date  string `json:"date"`
	Price int64  `json:"price"`
}

// CatalogEntry is one physical product offering in the catalog
type CatalogEntry struct {
	ID           string            `json:"id"`
	Category     Category          `json:"category"`
	Name         string            `json:"name"`
	Price        int64             `json:"price"`
	SpecText     string            `json:"specText,omitempty"`
	Specs        map[string]string `json:"specs,omitempty"`
	Benchmark    *int64            `json:"benchmarkScore,omitempty"`
	Review       string            `json:"review,omitempty"`
	SpecSummary  string            `json:"specSummary,omitempty"`
	PriceHistory []PricePoint      `json:"priceHistory"`
	Image        string            `json:"image,omitempty"`
	Manufacturer string            `json:"manufacturer,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// HasPriceOn reports whether the history already holds an entry for the given day
func (e *CatalogEntry) HasPriceOn(date string) bool {
	for _, p := range e.PriceHistory {
		if p.Date == date {
			return true
		}
	}
	return false
}

// ScrapedListing is a raw product listing produced by the crawl collaborator
type ScrapedListing struct {
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	SpecText string   `json:"specText,omitempty"`
	Image    string   `json:"image,omitempty"`
	Category Category `json:"category"`
}

// BenchmarkObservation is a name/score pair scraped from a benchmark source
type BenchmarkObservation struct {
	Name     string   `json:"name"`
	Score    int64    `json:"score"`
	Category Category `json:"category"`
}

// Review is the text-generation output attached to a catalog entry
type Review struct {
	Review      string `json:"review"`
	SpecSummary string `json:"specSummary"`
}
