package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"extractor-engine/internal/domain"
	"extractor-engine/internal/identity"

	_ "github.com/lib/pq"
)

// Postgres mirrors accepted items into a relational positions table for
// downstream tooling. Secondary sink: its failures are warnings, not run
// failures.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres sink: open: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres sink: ping: %w", err)
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS position (
  id SERIAL PRIMARY KEY,
  source_key TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  company_name TEXT NOT NULL,
  location TEXT NOT NULL,
  city TEXT NOT NULL DEFAULT '',
  state TEXT NOT NULL DEFAULT '',
  job_url TEXT NOT NULL,
  candidate_id TEXT NOT NULL,
  run_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'open',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres sink: migrate: %w", err)
	}

	return &Postgres{db: db}, nil
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Write(ctx context.Context, rec domain.SinkRecord) error {
	city, state := identity.SplitCityState(rec.Item.Location)

	_, err := p.db.ExecContext(ctx, `
INSERT INTO position (source_key, title, company_name, location, city, state, job_url, candidate_id, run_id, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,'open')
ON CONFLICT (source_key) DO UPDATE
SET updated_at = now(), status = 'open';`,
		rec.Key,
		rec.Item.Title,
		rec.Item.Company,
		rec.Item.Location,
		city,
		state,
		rec.Item.SourceURL,
		rec.CandidateID,
		rec.RunID,
	)
	if err != nil {
		return fmt.Errorf("postgres sink: upsert: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error { return p.db.Close() }
