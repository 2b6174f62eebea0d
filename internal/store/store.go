// Package store persists run history in SQLite and debug artifacts on disk.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ibeckermayer/leadscout/internal/config"
	"github.com/ibeckermayer/leadscout/internal/types"
)

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// DefaultPath returns the run database location under the cache dir
func DefaultPath() (string, error) {
	cacheDir, err := config.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "runs.db"), nil
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		platform TEXT NOT NULL,
		product_description TEXT,
		final_state TEXT NOT NULL,
		attempted INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		cancelled BOOLEAN NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		report TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		platform TEXT NOT NULL,
		url TEXT NOT NULL,
		lead_id TEXT,
		score INTEGER,
		outcome TEXT NOT NULL,
		reason TEXT,
		recorded_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS manual_posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		platform TEXT NOT NULL,
		url TEXT NOT NULL,
		lead_id TEXT,
		posted_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_outcomes_url ON outcomes(platform, url, outcome);
	CREATE INDEX IF NOT EXISTS idx_manual_posts_url ON manual_posts(platform, url);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun records a finished run and its per-lead outcomes
func (s *Store) SaveRun(ctx context.Context, r *types.PromotionReport) error {
	reportJSON, err := json.Marshal(r)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, platform, product_description, final_state,
			attempted, succeeded, failed, skipped, cancelled,
			started_at, finished_at, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			final_state = excluded.final_state,
			attempted = excluded.attempted,
			succeeded = excluded.succeeded,
			failed = excluded.failed,
			skipped = excluded.skipped,
			cancelled = excluded.cancelled,
			finished_at = excluded.finished_at,
			report = excluded.report
	`, r.RunID, r.Platform, r.ProductDesc, r.FinalState,
		r.Attempted, r.Succeeded, r.Failed, r.Skipped, r.Cancelled,
		r.StartedAt.UnixMilli(), r.FinishedAt.UnixMilli(), string(reportJSON))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM outcomes WHERE run_id = ?`, r.RunID); err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	for _, o := range r.Outcomes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO outcomes (run_id, platform, url, lead_id, score, outcome, reason, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, r.RunID, r.Platform, o.URL, o.LeadID, o.Score, string(o.Outcome), o.Reason, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecordPost notes a comment posted outside a promotion run. leadID may be
// empty when the post was made straight from a URL.
func (s *Store) RecordPost(ctx context.Context, platform, url, leadID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO manual_posts (platform, url, lead_id, posted_at) VALUES (?, ?, ?, ?)
	`, platform, url, leadID, time.Now().UnixMilli())
	return err
}

// HasEngaged reports whether url on platform was posted to, either by an
// earlier run or by hand
func (s *Store) HasEngaged(ctx context.Context, platform, url string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM outcomes WHERE platform = ? AND url = ? AND outcome = ?)
			OR EXISTS(SELECT 1 FROM manual_posts WHERE platform = ? AND url = ?)
	`, platform, url, string(types.OutcomePosted), platform, url).Scan(&exists)
	return exists, err
}

// RecentRuns returns up to limit reports, newest first
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]types.PromotionReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT report FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []types.PromotionReport
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var r types.PromotionReport
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
