package usecase

import (
	"fmt"
	"strings"

	"github.com/pcsite/backend/internal/domain"
)

// DedupeListings keeps one listing per category-normalized name, in first-seen
// order. A known (positive) price beats an unknown one and the lowest known price wins;
// ties keep the first occurrence. Listings with an empty canonical name or a negative
// price are dropped.
func DedupeListings(category domain.Category, listings []domain.ScrapedListing) []domain.ScrapedListing {
	out := make([]domain.ScrapedListing, 0, len(listings))
	seen := make(map[string]int, len(listings))

	for _, l := range listings {
		if l.Price < 0 {
			continue
		}
		canonical := NormalizeFor(l.Name, category)
		if canonical == "" {
			continue
		}
		l.Name = strings.TrimSpace(l.Name)
		l.Category = category

		idx, ok := seen[canonical]
		if !ok {
			seen[canonical] = len(out)
			out = append(out, l)
			continue
		}
		current := out[idx]
		if l.Price > 0 && (current.Price <= 0 || l.Price < current.Price) {
			out[idx] = l
		}
	}
	return out
}

// ParseSpecText splits "/"-separated spec text into a key/value structure.
// "key: value" parts keep their key; other parts are stored as spec1..specN.
func ParseSpecText(text string) map[string]string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	specs := make(map[string]string)
	position := 0
	for _, part := range strings.Split(text, "/") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if key, value, ok := strings.Cut(part, ":"); ok && strings.TrimSpace(key) != "" && strings.TrimSpace(value) != "" {
			specs[strings.TrimSpace(key)] = strings.TrimSpace(value)
			continue
		}
		position++
		specs[fmt.Sprintf("spec%d", position)] = part
	}

	if len(specs) == 0 {
		return nil
	}
	return specs
}

// ManufacturerOf returns the first token of a raw listing name
func ManufacturerOf(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
