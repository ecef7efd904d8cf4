// PostgreSQL-backed intake-record queue for multi-host deployments.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/legalaidline/intakeline/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// Compile-time check that PostgresStore implements RecordRepo.
var _ RecordRepo = (*PostgresStore)(nil)

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open Postgres connection: %w", err)
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("Postgres ping failed: %w", err)
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("PostgresStore.NewPostgresStore: store ready")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Enqueue(ctx context.Context, record *models.IntakeRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal intake record: %w", err)
	}
	now := time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO intake_records (id, call_sid, payload_json, status, attempts, created_at, updated_at)
		 VALUES ($1, $2, $3, 'queued', 0, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		record.ID, record.CallSID, string(payload), now, now,
	)
	if err != nil {
		return fmt.Errorf("enqueue intake record failed: %w", err)
	}
	slog.Debug("PostgresStore.Enqueue: record queued", "id", record.ID, "callSID", record.CallSID)
	return nil
}

func (s *PostgresStore) ClaimDue(now time.Time, limit int) ([]QueuedRecord, error) {
	rows, err := s.db.Query(
		`UPDATE intake_records SET status = 'submitting', locked_at = $1, updated_at = $1
		 WHERE id IN (
		     SELECT id FROM intake_records
		     WHERE status = 'queued' AND (next_attempt_at IS NULL OR next_attempt_at <= $1)
		     ORDER BY created_at ASC LIMIT $2
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, call_sid, payload_json, status, attempts, next_attempt_at, locked_at, last_error, created_at, updated_at`,
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
	return records, nil
}

func (s *PostgresStore) MarkSubmitted(id string) error {
	_, err := s.db.Exec(
		`UPDATE intake_records SET status = 'submitted', updated_at = $1 WHERE id = $2`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("mark record submitted failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) Fail(id string, errMsg string, nextAttemptAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE intake_records SET status = 'queued', attempts = attempts + 1, last_error = $1, next_attempt_at = $2, locked_at = NULL, updated_at = $3 WHERE id = $4`,
		errMsg, nextAttemptAt, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("fail record failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) RequeueStale(staleBefore time.Time) (int, error) {
	result, err := s.db.Exec(
		`UPDATE intake_records SET status = 'queued', locked_at = NULL, updated_at = $1 WHERE status = 'submitting' AND locked_at < $2`,
		time.Now(), staleBefore,
	)
	if err != nil {
		return 0, fmt.Errorf("requeue stale records failed: %w", err)
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		slog.Info("PostgresStore.RequeueStale: requeued stale records", "count", n)
	}
	return int(n), nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
