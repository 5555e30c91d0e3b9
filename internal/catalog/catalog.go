package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrUnavailable wraps any storage failure. The orchestrator treats it as
// fatal for the current candidate: without the catalog the dedup guarantee
// cannot be kept, and treating every item as novel would be worse than
// stopping.
var ErrUnavailable = errors.New("catalog unavailable")

type Scope string

const (
	ScopeGlobal       Scope = "global"
	ScopePerCandidate Scope = "per-candidate"
)

// Catalog is the durable append-only set of item keys already recorded.
// Entries are never mutated or deleted and survive process restarts. Safe
// for concurrent use; Record is atomic per key.
type Catalog struct {
	db    *sql.DB
	scope Scope
}

func Open(path string, scope Scope) (*Catalog, error) {
	// modernc sqlite DSN: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrUnavailable, err)
	}

	db.SetMaxOpenConns(1) // sqlite wants a single writer
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate: %v", ErrUnavailable, err)
	}

	return &Catalog{db: db, scope: scope}, nil
}

func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Exists reports whether the key has been recorded before, under the
// configured dedup scope.
func (c *Catalog) Exists(ctx context.Context, key, candidateID string) (bool, error) {
	var one int
	err := c.db.QueryRowContext(ctx,
		`SELECT 1 FROM seen_items WHERE key = ? LIMIT 1;`,
		c.scopedKey(key, candidateID),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: exists: %v", ErrUnavailable, err)
	}
	return true, nil
}

// Record inserts the key if it is new. Idempotent: the unique index is the
// final correctness guarantee, so two callers racing on the same key can
// never both observe inserted=true.
func (c *Catalog) Record(ctx context.Context, key, candidateID string) (inserted bool, err error) {
	res, err := c.db.ExecContext(ctx, `
INSERT OR IGNORE INTO seen_items(key, candidate_id, first_seen_at)
VALUES(?,?,?);`,
		c.scopedKey(key, candidateID),
		candidateID,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("%w: record: %v", ErrUnavailable, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Count reports how many items the catalog has seen across all candidates.
func (c *Catalog) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seen_items;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrUnavailable, err)
	}
	return n, nil
}

func (c *Catalog) scopedKey(key, candidateID string) string {
	if c.scope == ScopePerCandidate {
		return candidateID + "|" + key
	}
	return key
}

func migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS seen_items (
  key TEXT NOT NULL,
  candidate_id TEXT NOT NULL,
  first_seen_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_seen_items_key
ON seen_items(key);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}
