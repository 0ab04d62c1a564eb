// Package store persists the catalog: one row per entry plus an append-only price
// history table with one row per (entry, date).
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pcsite/backend/internal/domain"
)

// Store is a closable catalog store
type Store interface {
	domain.CatalogStore
	Close() error
}

// Config selects and configures the store backend
type Config struct {
	Driver string // "sqlite" or "postgres"
	DSN    string
}

// Open creates the configured store and applies its schema
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite", "sqlite3":
		return NewSQLiteStore(ctx, cfg.DSN)
	case "postgres", "postgresql", "pgx":
		return NewPostgresStore(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// entryColumns is the column list shared by every entry query; scanEntry reads it
const entryColumns = `id, category, name, price, spec_text, specs, benchmark_score,
	review, spec_summary, image, manufacturer, created_at, updated_at`

// rowScanner is satisfied by *sql.Row, *sql.Rows and pgx.Row
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (domain.CatalogEntry, error) {
	var (
		e        domain.CatalogEntry
		category string
		specs    string
	)
	err := row.Scan(
		&e.ID, &category, &e.Name, &e.Price, &e.SpecText, &specs, &e.Benchmark,
		&e.Review, &e.SpecSummary, &e.Image, &e.Manufacturer, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return e, err
	}
	e.Category = domain.Category(category)
	e.Specs, err = decodeSpecs(specs)
	e.PriceHistory = []domain.PricePoint{}
	return e, err
}

func encodeSpecs(specs map[string]string) (string, error) {
	if len(specs) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(specs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeSpecs(raw string) (map[string]string, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var specs map[string]string
	if err := json.Unmarshal([]byte(raw), &specs); err != nil {
		return nil, fmt.Errorf("decode specs: %w", err)
	}
	return specs, nil
}

// attachHistory distributes history rows onto their entries, preserving row order
func attachHistory(entries []domain.CatalogEntry, history map[string][]domain.PricePoint) {
	for i := range entries {
		if points, ok := history[entries[i].ID]; ok {
			entries[i].PriceHistory = points
		}
	}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreFailure, op, err)
}
