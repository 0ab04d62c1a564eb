package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pcsite/backend/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS catalog_entries (
	id              TEXT PRIMARY KEY,
	category        TEXT NOT NULL,
	name            TEXT NOT NULL,
	price           INTEGER NOT NULL DEFAULT 0,
	spec_text       TEXT NOT NULL DEFAULT '',
	specs           TEXT NOT NULL DEFAULT '{}',
	benchmark_score INTEGER,
	review          TEXT NOT NULL DEFAULT '',
	spec_summary    TEXT NOT NULL DEFAULT '',
	image           TEXT NOT NULL DEFAULT '',
	manufacturer    TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL,
	updated_at      TIMESTAMP NOT NULL,
	UNIQUE (category, name)
);
CREATE INDEX IF NOT EXISTS idx_catalog_entries_category ON catalog_entries (category);

CREATE TABLE IF NOT EXISTS price_history (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_id TEXT NOT NULL REFERENCES catalog_entries (id) ON DELETE CASCADE,
	date     TEXT NOT NULL,
	price    INTEGER NOT NULL,
	UNIQUE (entry_id, date)
);
`

// SQLiteStore is the default catalog store
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database and applies the schema.
// An empty DSN opens a private in-memory database.
func NewSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps in-memory databases alive
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns one entry with its history
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.CatalogEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM catalog_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get "+id, err)
	}

	history, err := s.history(ctx, `WHERE h.entry_id = ?`, id)
	if err != nil {
		return nil, err
	}
	entries := []domain.CatalogEntry{entry}
	attachHistory(entries, history)
	return &entries[0], nil
}

// ListByCategory returns every entry of a category ordered by name
func (s *SQLiteStore) ListByCategory(ctx context.Context, category domain.Category) ([]domain.CatalogEntry, error) {
	return s.list(ctx, category, "")
}

// ListMissingScore returns the entries of a category without a benchmark score
func (s *SQLiteStore) ListMissingScore(ctx context.Context, category domain.Category) ([]domain.CatalogEntry, error) {
	return s.list(ctx, category, " AND benchmark_score IS NULL")
}

// ListMissingReview returns the entries of a category without review text
func (s *SQLiteStore) ListMissingReview(ctx context.Context, category domain.Category) ([]domain.CatalogEntry, error) {
	return s.list(ctx, category, " AND review = ''")
}

func (s *SQLiteStore) list(ctx context.Context, category domain.Category, filter string) ([]domain.CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM catalog_entries WHERE category = ?`+filter+` ORDER BY name`,
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
		`JOIN catalog_entries e ON e.id = h.entry_id WHERE e.category = ?`, string(category))
	if err != nil {
		return nil, err
	}
	attachHistory(entries, history)
	return entries, nil
}

func (s *SQLiteStore) history(ctx context.Context, where string, arg any) (map[string][]domain.PricePoint, error) {
	rows, err := s.db.QueryContext(ctx,
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

// Insert creates an entry and its initial history in one transaction
func (s *SQLiteStore) Insert(ctx context.Context, entry *domain.CatalogEntry) error {
	specs, err := encodeSpecs(entry.Specs)
	if err != nil {
		return storeErr("encode specs", err)
	}
	now := s.now().UTC()

	return s.withTx(ctx, "insert "+entry.Name, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO catalog_entries (`+entryColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, string(entry.Category), entry.Name, entry.Price, entry.SpecText, specs, entry.Benchmark,
			entry.Review, entry.SpecSummary, entry.Image, entry.Manufacturer, now, now)
		if err != nil {
			return err
		}
		for _, p := range entry.PriceHistory {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO price_history (entry_id, date, price) VALUES (?, ?, ?)`,
				entry.ID, p.Date, p.Price); err != nil {
				return err
			}
		}
		entry.CreatedAt, entry.UpdatedAt = now, now
		return nil
	})
}

// UpdateDetails replaces the listing-derived descriptive fields
func (s *SQLiteStore) UpdateDetails(ctx context.Context, entry *domain.CatalogEntry) error {
	specs, err := encodeSpecs(entry.Specs)
	if err != nil {
		return storeErr("encode specs", err)
	}
	return s.execOne(ctx, "update details "+entry.ID,
		`UPDATE catalog_entries SET spec_text = ?, specs = ?, image = ?, updated_at = ? WHERE id = ?`,
		entry.SpecText, specs, entry.Image, s.now().UTC(), entry.ID)
}

// ApplyPrice sets the current price and appends the history point in one transaction.
// A point whose date is already recorded is ignored.
func (s *SQLiteStore) ApplyPrice(ctx context.Context, id string, price int64, point *domain.PricePoint) error {
	return s.withTx(ctx, "apply price "+id, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE catalog_entries SET price = ?, updated_at = ? WHERE id = ?`, price, s.now().UTC(), id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return domain.ErrNotFound
		}
		if point == nil {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO price_history (entry_id, date, price) VALUES (?, ?, ?)`,
			id, point.Date, point.Price)
		return err
	})
}

// SetBenchmarkScore stores the benchmark score of an entry
func (s *SQLiteStore) SetBenchmarkScore(ctx context.Context, id string, score int64) error {
	return s.execOne(ctx, "set score "+id,
		`UPDATE catalog_entries SET benchmark_score = ?, updated_at = ? WHERE id = ?`, score, s.now().UTC(), id)
}

// SetReview stores the generated review text of an entry
func (s *SQLiteStore) SetReview(ctx context.Context, id string, review domain.Review) error {
	return s.execOne(ctx, "set review "+id,
		`UPDATE catalog_entries SET review = ?, spec_summary = ?, updated_at = ? WHERE id = ?`,
		review.Review, review.SpecSummary, s.now().UTC(), id)
}

// DeleteCategoryExcept deletes the category's entries whose names are not in keep,
// together with their history
func (s *SQLiteStore) DeleteCategoryExcept(ctx context.Context, category domain.Category, keep []string) (int, error) {
	kept := make(map[string]bool, len(keep))
	for _, name := range keep {
		kept[name] = true
	}

	deleted := 0
	err := s.withTx(ctx, "delete delisted "+string(category), func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id, name FROM catalog_entries WHERE category = ?`, string(category))
		if err != nil {
			return err
		}
		var ids []string
		for rows.Next() {
			var id, name string
			if err := rows.Scan(&id, &name); err != nil {
				rows.Close()
				return err
			}
			if !kept[name] {
				ids = append(ids, id)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, `DELETE FROM price_history WHERE entry_id = ?`, id); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_entries WHERE id = ?`, id); err != nil {
				return err
			}
		}
		deleted = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (s *SQLiteStore) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return storeErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) withTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return storeErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr(op, err)
	}
	return nil
}
