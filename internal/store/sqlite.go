// SQLite-backed intake-record queue, suitable for single-host deployments.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/legalaidline/intakeline/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// Compile-time check that SQLiteStore implements RecordRepo.
var _ RecordRepo = (*SQLiteStore)(nil)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("SQLite ping failed: %w", err)
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLiteStore.NewSQLiteStore: store ready", "path", cfg.DSN)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Enqueue(ctx context.Context, record *models.IntakeRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal intake record: %w", err)
	}
	now := time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO intake_records (id, call_sid, payload_json, status, attempts, created_at, updated_at)
		 VALUES (?, ?, ?, 'queued', 0, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		record.ID, record.CallSID, string(payload), now, now,
	)
	if err != nil {
		return fmt.Errorf("enqueue intake record failed: %w", err)
	}
	slog.Debug("SQLiteStore.Enqueue: record queued", "id", record.ID, "callSID", record.CallSID)
	return nil
}

func (s *SQLiteStore) ClaimDue(now time.Time, limit int) ([]QueuedRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, call_sid, payload_json, status, attempts, next_attempt_at, locked_at, last_error, created_at, updated_at
		 FROM intake_records WHERE status = 'queued' AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
		 ORDER BY created_at ASC LIMIT ?`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim due intake records failed: %w", err)
	}
	defer rows.Close()

	var records []QueuedRecord
	for rows.Next() {
		r, err := scanQueuedRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim iteration failed: %w", err)
	}

	for i := range records {
		_, err := s.db.Exec(
			`UPDATE intake_records SET status = 'submitting', locked_at = ?, updated_at = ? WHERE id = ?`,
			now, now, records[i].ID,
		)
		if err != nil {
			return nil, fmt.Errorf("mark record submitting failed: %w", err)
		}
		records[i].Status = RecordStatusSubmitting
		records[i].LockedAt = &now
	}
	return records, nil
}

func (s *SQLiteStore) MarkSubmitted(id string) error {
	_, err := s.db.Exec(
		`UPDATE intake_records SET status = 'submitted', updated_at = ? WHERE id = ?`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("mark record submitted failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Fail(id string, errMsg string, nextAttemptAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE intake_records SET status = 'queued', attempts = attempts + 1, last_error = ?, next_attempt_at = ?, locked_at = NULL, updated_at = ? WHERE id = ?`,
		errMsg, nextAttemptAt, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("fail record failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RequeueStale(staleBefore time.Time) (int, error) {
	result, err := s.db.Exec(
		`UPDATE intake_records SET status = 'queued', locked_at = NULL, updated_at = ? WHERE status = 'submitting' AND locked_at < ?`,
		time.Now(), staleBefore,
	)
	if err != nil {
		return 0, fmt.Errorf("requeue stale records failed: %w", err)
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		slog.Info("SQLiteStore.RequeueStale: requeued stale records", "count", n)
	}
	return int(n), nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanQueuedRecord(rows *sql.Rows) (QueuedRecord, error) {
	var r QueuedRecord
	var lastError sql.NullString
	var nextAttemptAt, lockedAt sql.NullTime
	err := rows.Scan(
		&r.ID, &r.CallSID, &r.PayloadJSON, &r.Status, &r.Attempts,
		&nextAttemptAt, &lockedAt, &lastError, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return r, fmt.Errorf("scan intake record failed: %w", err)
	}
	r.LastError = lastError.String
	if nextAttemptAt.Valid {
		r.NextAttemptAt = &nextAttemptAt.Time
	}
	if lockedAt.Valid {
		r.LockedAt = &lockedAt.Time
	}
	return r, nil
}
