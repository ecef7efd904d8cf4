package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/legalaidline/intakeline/internal/models"
)

// SubmitFunc performs the actual submission of one intake record to the
// case-management system.
type SubmitFunc func(ctx context.Context, record *models.IntakeRecord) error

// Sender periodically claims due intake records and submits them upstream.
type Sender struct {
	repo           RecordRepo
	submitFunc     SubmitFunc
	pollInterval   time.Duration
	staleThreshold time.Duration
	claimLimit     int
}

// NewSender creates a new Sender.
func NewSender(repo RecordRepo, submitFunc SubmitFunc, pollInterval time.Duration) *Sender {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Sender{
		repo:           repo,
		submitFunc:     submitFunc,
		pollInterval:   pollInterval,
		staleThreshold: 5 * time.Minute,
		claimLimit:     10,
	}
}

// RecoverStaleRecords requeues records stuck in submitting state (crash
// recovery). Should be called once at startup.
func (s *Sender) RecoverStaleRecords() error {
	staleBefore := time.Now().Add(-s.staleThreshold)
	n, err := s.repo.RequeueStale(staleBefore)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("Sender.RecoverStaleRecords: requeued stale records", "count", n)
	}
	return nil
}

// Run starts the polling loop. It blocks until the context is cancelled.
func (s *Sender) Run(ctx context.Context) {
	slog.Info("Sender.Run: starting intake-record sender", "pollInterval", s.pollInterval)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sender.Run: stopping")
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Sender) poll(ctx context.Context) {
	now := time.Now()
	records, err := s.repo.ClaimDue(now, s.claimLimit)
	if err != nil {
		slog.Error("Sender.poll: claim failed", "error", err)
		return
	}

	for _, queued := range records {
		var record models.IntakeRecord
		if err := json.Unmarshal([]byte(queued.PayloadJSON), &record); err != nil {
			slog.Error("Sender.poll: unreadable payload", "id", queued.ID, "error", err)
			// Nothing a retry can fix; park it far in the future for manual review.
			if err := s.repo.Fail(queued.ID, "payload unmarshal: "+err.Error(), now.Add(24*time.Hour)); err != nil {
				slog.Error("Sender.poll: fail record error", "id", queued.ID, "error", err)
			}
			continue
		}

		slog.Debug("Sender.poll: submitting record", "id", queued.ID, "callSID", queued.CallSID)
		if err := s.submitFunc(ctx, &record); err != nil {
			slog.Error("Sender.poll: submit failed", "id", queued.ID, "error", err)
			// Exponential backoff: 10s, 20s, 40s, ...
			backoff := time.Duration(10*(1<<queued.Attempts)) * time.Second
			if err := s.repo.Fail(queued.ID, err.Error(), now.Add(backoff)); err != nil {
				slog.Error("Sender.poll: fail record error", "id", queued.ID, "error", err)
			}
		} else {
			if err := s.repo.MarkSubmitted(queued.ID); err != nil {
				slog.Error("Sender.poll: mark submitted error", "id", queued.ID, "error", err)
			}
			slog.Info("Sender.poll: record submitted", "id", queued.ID, "callSID", queued.CallSID)
		}
	}
}
