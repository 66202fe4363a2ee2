// Package store provides a SQLite-backed log of triage decisions. Every
// question handled by the service is recorded with its action, score, and
// matched question so operators can review how the threshold policy behaves
// in production and tune it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Decision is one recorded triage outcome.
type Decision struct {
	// Question is the incoming question that was triaged.
	Question string
	// Action is the routing decision (auto-reply, draft-for-review, escalate-to-human).
	Action string
	// Score is the similarity score of the best match.
	Score float64
	// MatchedQuestion is the stored question that matched, if any.
	MatchedQuestion string
	// CreatedAt is when the decision was recorded.
	CreatedAt time.Time
}

// DecisionStore persists and retrieves triage decisions.
// Implementations must be safe for concurrent use.
type DecisionStore interface {
	// Record persists a single decision.
	Record(ctx context.Context, d Decision) error
	// Recent returns the most recent n decisions, newest first.
	// If fewer than n decisions exist, all are returned.
	Recent(ctx context.Context, n int) ([]Decision, error)
	// Close releases any resources held by the store.
	Close() error
}

// SQLiteStore is a DecisionStore backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the decision log database.
// It resolves to ~/.carl/decisions.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".carl")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "decisions.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS decisions (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    question         TEXT    NOT NULL,
    action           TEXT    NOT NULL,
    score            REAL    NOT NULL,
    matched_question TEXT    NOT NULL DEFAULT '',
    created_at       INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_decisions_created
    ON decisions (created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Record persists a single decision. A zero CreatedAt is stamped with now.
func (s *SQLiteStore) Record(ctx context.Context, d Decision) error {
	ts := d.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	const q = `INSERT INTO decisions (question, action, score, matched_question, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, d.Question, d.Action, d.Score, d.MatchedQuestion, ts.Unix()); err != nil {
		return fmt.Errorf("store: record: %w", err)
	}
	return nil
}

// Recent returns the most recent n decisions, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Decision, error) {
	const q = `
SELECT question, action, score, matched_question, created_at
FROM   decisions
ORDER  BY created_at DESC, id DESC
LIMIT  ?`

	rows, err := s.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var d Decision
		var ts int64
		if err := rows.Scan(&d.Question, &d.Action, &d.Score, &d.MatchedQuestion, &ts); err != nil {
			return nil, fmt.Errorf("store: recent scan: %w", err)
		}
		d.CreatedAt = time.Unix(ts, 0)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent rows: %w", err)
	}
	return out, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
