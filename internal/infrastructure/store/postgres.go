package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pcsite/backend/internal/domain"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS catalog_entries (
	id              TEXT PRIMARY KEY,
	category        TEXT NOT NULL,
	name            TEXT NOT NULL,
	price           BIGINT NOT NULL DEFAULT 0,
	spec_text       TEXT NOT NULL DEFAULT '',
	specs           JSONB NOT NULL DEFAULT '{}',
	benchmark_score BIGINT,
	review          TEXT NOT NULL DEFAULT '',
	spec_summary    TEXT NOT NULL DEFAULT '',
	image           TEXT NOT NULL DEFAULT '',
	manufacturer    TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	UNIQUE (category, name)
);
CREATE INDEX IF NOT EXISTS idx_catalog_entries_category ON catalog_entries (category);

CREATE TABLE IF NOT EXISTS price_history (
	id       BIGSERIAL PRIMARY KEY,
	entry_id TEXT NOT NULL REFERENCES catalog_entries (id) ON DELETE CASCADE,
	date     TEXT NOT NULL,
	price    BIGINT NOT NULL,
	UNIQUE (entry_id, date)
);
`

// PostgresStore is the catalog store for shared deployments
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore connects a pool and applies the schema
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 4
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	return &PostgresStore{pool: pool, now: time.Now}, nil
}

// Close closes the pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.CatalogEntry, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM catalog_entries WHERE id = $1`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get "+id, err)
	}

	history, err := s.history(ctx, `WHERE h.entry_id = $1`, id)
	if err != nil {
		return nil, err
	}
	entries := []domain.CatalogEntry{entry}
	attachHistory(entries, history)
	return &entries[0], nil
}

func (s *PostgresStore) ListByCategory(ctx context.Context, category domain.Category) ([]domain.CatalogEntry, error) {
	return s.list(ctx, category, "")
}

func (s *PostgresStore) ListMissingScore(ctx context.Context, category domain.Category) ([]domain.CatalogEntry, error) {
	return s.list(ctx, category, " AND benchmark_score IS NULL")
}

func (s *PostgresStore) ListMissingReview(ctx context.Context, category domain.Category) ([]domain.CatalogEntry, error) {
	return s.list(ctx, category, " AND review = ''")
}

func (s *PostgresStore) list(ctx context.Context, category domain.Category, filter string) ([]domain.CatalogEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM catalog_entries WHERE category = $1`+filter+` ORDER BY name`,
		string(category))
	if err != nil {
		return nil, storeErr("list "+string(category), err)
	}
	defer rows.Close()

	var entries []domain.CatalogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, storeErr("scan entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list "+string(category), err)
	}

	history, err := s.history(ctx,
		`JOIN catalog_entries e ON e.id = h.entry_id WHERE e.category = $1`, string(category))
	if err != nil {
		return nil, err
	}
	attachHistory(entries, history)
	return entries, nil
}

func (s *PostgresStore) history(ctx context.Context, where string, arg any) (map[string][]domain.PricePoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT h.entry_id, h.date, h.price FROM price_history h `+where+` ORDER BY h.id`, arg)
	if err != nil {
		return nil, storeErr("load history", err)
	}
	defer rows.Close()

	history := make(map[string][]domain.PricePoint)
	for rows.Next() {
		var id string
		var p domain.PricePoint
		if err := rows.Scan(&id, &p.Date, &p.Price); err != nil {
			return nil, storeErr("scan history", err)
		}
		history[id] = append(history[id], p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("load history", err)
	}
	return history, nil
}

// Insert creates an entry and queues its history rows in the same transaction
func (s *PostgresStore) Insert(ctx context.Context, entry *domain.CatalogEntry) error {
	specs, err := encodeSpecs(entry.Specs)
	if err != nil {
		return storeErr("encode specs", err)
	}
	now := s.now().UTC()

	err = s.withTx(ctx, "insert "+entry.Name, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		b.Queue(`INSERT INTO catalog_entries (`+entryColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9, $10, $11, $12, $13)`,
			entry.ID, string(entry.Category), entry.Name, entry.Price, entry.SpecText, specs, entry.Benchmark,
			entry.Review, entry.SpecSummary, entry.Image, entry.Manufacturer, now, now)
		for _, p := range entry.PriceHistory {
			b.Queue(`INSERT INTO price_history (entry_id, date, price) VALUES ($1, $2, $3)
				ON CONFLICT (entry_id, date) DO NOTHING`, entry.ID, p.Date, p.Price)
		}
		return tx.SendBatch(ctx, b).Close()
	})
	if err != nil {
		return err
	}
	entry.CreatedAt, entry.UpdatedAt = now, now
	return nil
}

func (s *PostgresStore) UpdateDetails(ctx context.Context, entry *domain.CatalogEntry) error {
	specs, err := encodeSpecs(entry.Specs)
	if err != nil {
		return storeErr("encode specs", err)
	}
	return s.execOne(ctx, "update details "+entry.ID,
		`UPDATE catalog_entries SET spec_text = $1, specs = $2::jsonb, image = $3, updated_at = $4 WHERE id = $5`,
		entry.SpecText, specs, entry.Image, s.now().UTC(), entry.ID)
}

// ApplyPrice sets the current price and appends the point unless its date is recorded
func (s *PostgresStore) ApplyPrice(ctx context.Context, id string, price int64, point *domain.PricePoint) error {
	return s.withTx(ctx, "apply price "+id, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE catalog_entries SET price = $1, updated_at = $2 WHERE id = $3`, price, s.now().UTC(), id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		if point == nil {
			return nil
		}
		_, err = tx.Exec(ctx, `INSERT INTO price_history (entry_id, date, price) VALUES ($1, $2, $3)
			ON CONFLICT (entry_id, date) DO NOTHING`, id, point.Date, point.Price)
		return err
	})
}

func (s *PostgresStore) SetBenchmarkScore(ctx context.Context, id string, score int64) error {
	return s.execOne(ctx, "set score "+id,
		`UPDATE catalog_entries SET benchmark_score = $1, updated_at = $2 WHERE id = $3`, score, s.now().UTC(), id)
}

func (s *PostgresStore) SetReview(ctx context.Context, id string, review domain.Review) error {
	return s.execOne(ctx, "set review "+id,
		`UPDATE catalog_entries SET review = $1, spec_summary = $2, updated_at = $3 WHERE id = $4`,
		review.Review, review.SpecSummary, s.now().UTC(), id)
}

// DeleteCategoryExcept relies on ON DELETE CASCADE for the history rows
func (s *PostgresStore) DeleteCategoryExcept(ctx context.Context, category domain.Category, keep []string) (int, error) {
	if keep == nil {
		keep = []string{}
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM catalog_entries WHERE category = $1 AND NOT (name = ANY($2::text[]))`,
		string(category), keep)
	if err != nil {
		return 0, storeErr("delete delisted "+string(category), err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) execOne(ctx context.Context, op, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return storeErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) withTx(ctx context.Context, op string, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storeErr(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return storeErr(op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return storeErr(op, err)
	}
	return nil
}
