// Package store provides durable persistence for completed intake records.
//
// Records are queued locally when an intake finishes and submitted to the
// case-management system by a background sender, so a flaky upstream never
// loses a screened caller. Backends: in-memory, SQLite, and PostgreSQL.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/legalaidline/intakeline/internal/models"
)

// RecordStatus represents the lifecycle state of a queued intake record.
type RecordStatus string

const (
	RecordStatusQueued     RecordStatus = "queued"
	RecordStatusSubmitting RecordStatus = "submitting"
	RecordStatusSubmitted  RecordStatus = "submitted"
)

// QueuedRecord is one durable intake-record submission.
type QueuedRecord struct {
	ID            string       `json:"id"`
	CallSID       string       `json:"call_sid"`
	PayloadJSON   string       `json:"payload_json"`
	Status        RecordStatus `json:"status"`
	Attempts      int          `json:"attempts"`
	NextAttemptAt *time.Time   `json:"next_attempt_at"`
	LockedAt      *time.Time   `json:"locked_at"`
	LastError     string       `json:"last_error"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// RecordRepo defines durable intake-record persistence. Enqueue is the only
// method the intake engine sees; the rest drive the background sender.
type RecordRepo interface {
	// Enqueue inserts a new intake record. Re-enqueueing the same record ID
	// is a no-op so a retried call segment cannot double-file a caller.
	Enqueue(ctx context.Context, record *models.IntakeRecord) error

	// ClaimDue marks up to limit queued records whose next_attempt_at <= now
	// (or is NULL) as submitting and returns them.
	ClaimDue(now time.Time, limit int) ([]QueuedRecord, error)

	// MarkSubmitted marks a record as accepted by the case-management system.
	MarkSubmitted(id string) error

	// Fail records a submission failure and schedules a retry at nextAttemptAt.
	Fail(id string, errMsg string, nextAttemptAt time.Time) error

	// RequeueStale resets records stuck in submitting since before staleBefore
	// back to queued (crash recovery).
	RequeueStale(staleBefore time.Time) (int, error)

	Close() error
}

// Opts holds store configuration options.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a store backend.
type Option func(*Opts)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for PostgreSQL connection strings and
// "sqlite" for anything else (assumed to be a file path).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite"
}
