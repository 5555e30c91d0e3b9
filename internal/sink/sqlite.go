package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"extractor-engine/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLite is the sink of record. Writes are idempotent under the item key
// (INSERT OR IGNORE against a unique index), so re-applying a record after a
// partial failure never creates a duplicate row.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite sink: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS extracted_items (
  source_key TEXT NOT NULL,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  location TEXT NOT NULL,
  url TEXT NOT NULL,
  candidate_id TEXT NOT NULL,
  run_id TEXT NOT NULL,
  recorded_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_extracted_items_key
ON extracted_items(source_key);
`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite sink: migrate: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) Write(ctx context.Context, rec domain.SinkRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO extracted_items(source_key, title, company, location, url, candidate_id, run_id, recorded_at)
VALUES(?,?,?,?,?,?,?,?);`,
		rec.Key,
		rec.Item.Title,
		rec.Item.Company,
		rec.Item.Location,
		rec.Item.SourceURL,
		rec.CandidateID,
		rec.RunID,
		rec.RecordedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("sqlite sink: insert: %w", err)
	}
	return nil
}

// CleanupOld removes rows older than the retention window. The dedup catalog
// is append-only; only this export table is swept.
func (s *SQLite) CleanupOld(days int) (int64, error) {
	res, err := s.db.Exec(
		fmt.Sprintf(`DELETE FROM extracted_items WHERE recorded_at < datetime('now', '-%d days');`, days))
	if err != nil {
		return 0, fmt.Errorf("sqlite sink: cleanup: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *SQLite) Close() error { return s.db.Close() }
