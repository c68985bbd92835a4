package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Sujithrt/interview-prep/internal/domain"
	"github.com/Sujithrt/interview-prep/internal/shared"
)

const (
	writeAttempts  = 3
	writeBaseDelay = 50 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS interviews (
		id TEXT PRIMARY KEY,
		voice TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL,
		turns INTEGER NOT NULL DEFAULT 0,
		report TEXT NOT NULL,
		transcript_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interviews_ended ON interviews(ended_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveInterview inserts or replaces an archived interview.
func (s *SQLiteStore) SaveInterview(ctx context.Context, iv *domain.Interview) error {
	transcript, err := json.Marshal(iv.Transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	query := `
	INSERT INTO interviews (id, voice, started_at, ended_at, turns, report, transcript_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		voice = excluded.voice,
		started_at = excluded.started_at,
		ended_at = excluded.ended_at,
		turns = excluded.turns,
		report = excluded.report,
		transcript_json = excluded.transcript_json`

	err = shared.RetrySQLite(ctx, writeAttempts, writeBaseDelay, func(ctx context.Context) error {
		_, execErr := s.db.ExecContext(ctx, query,
			iv.ID, iv.Voice, iv.StartedAt.UnixMilli(), iv.EndedAt.UnixMilli(),
			iv.Turns, iv.Report, string(transcript),
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("save interview %s: %w", iv.ID, err)
	}
	return nil
}

// GetInterview retrieves one interview including its transcript.
func (s *SQLiteStore) GetInterview(ctx context.Context, id string) (*domain.Interview, error) {
	query := `
		SELECT id, voice, started_at, ended_at, turns, report, transcript_json
		FROM interviews WHERE id = ?`

	var iv domain.Interview
	var startedAt, endedAt int64
	var transcript string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&iv.ID, &iv.Voice, &startedAt, &endedAt, &iv.Turns, &iv.Report, &transcript,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan interview row: %w", err)
	}

	iv.StartedAt = time.UnixMilli(startedAt)
	iv.EndedAt = time.UnixMilli(endedAt)
	if err := json.Unmarshal([]byte(transcript), &iv.Transcript); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	return &iv, nil
}

// ListInterviews returns the most recent interviews without transcripts.
func (s *SQLiteStore) ListInterviews(ctx context.Context, limit int) ([]*domain.Interview, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, voice, started_at, ended_at, turns, report
		FROM interviews ORDER BY ended_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query interviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Interview
	for rows.Next() {
		var iv domain.Interview
		var startedAt, endedAt int64
		if err := rows.Scan(&iv.ID, &iv.Voice, &startedAt, &endedAt, &iv.Turns, &iv.Report); err != nil {
			return nil, fmt.Errorf("scan interview row: %w", err)
		}
		iv.StartedAt = time.UnixMilli(startedAt)
		iv.EndedAt = time.UnixMilli(endedAt)
		out = append(out, &iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interviews: %w", err)
	}
	return out, nil
}

// DeleteOlderThan removes interviews that ended before cutoff.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := shared.RetrySQLite(ctx, writeAttempts, writeBaseDelay, func(ctx context.Context) error {
		result, err := s.db.ExecContext(ctx, `DELETE FROM interviews WHERE ended_at < ?`, cutoff.UnixMilli())
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete old interviews: %w", err)
	}
	return deleted, nil
}
