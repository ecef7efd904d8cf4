package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/legalaidline/intakeline/internal/models"
)

// Compile-time check that InMemoryStore implements RecordRepo.
var _ RecordRepo = (*InMemoryStore)(nil)

// InMemoryStore keeps queued intake records in process memory. Records do
// not survive a restart; it exists for development and tests.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]*QueuedRecord
	order   []string
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*QueuedRecord)}
}

func (s *InMemoryStore) Enqueue(ctx context.Context, record *models.IntakeRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal intake record: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ID]; exists {
		return nil
	}
	now := time.Now()
	s.records[record.ID] = &QueuedRecord{
		ID:          record.ID,
		CallSID:     record.CallSID,
		PayloadJSON: string(payload),
		Status:      RecordStatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.order = append(s.order, record.ID)
	return nil
}

func (s *InMemoryStore) ClaimDue(now time.Time, limit int) ([]QueuedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var claimed []QueuedRecord
	for _, id := range s.order {
		if len(claimed) >= limit {
			break
		}
		r := s.records[id]
		if r.Status != RecordStatusQueued {
			continue
		}
		if r.NextAttemptAt != nil && r.NextAttemptAt.After(now) {
			continue
		}
		r.Status = RecordStatusSubmitting
		lockedAt := now
		r.LockedAt = &lockedAt
		r.UpdatedAt = now
		claimed = append(claimed, *r)
	}
	return claimed, nil
}

func (s *InMemoryStore) MarkSubmitted(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return fmt.Errorf("record %s not found", id)
	}
	r.Status = RecordStatusSubmitted
	r.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) Fail(id string, errMsg string, nextAttemptAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return fmt.Errorf("record %s not found", id)
	}
	r.Status = RecordStatusQueued
	r.Attempts++
	r.LastError = errMsg
	r.NextAttemptAt = &nextAttemptAt
	r.LockedAt = nil
	r.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) RequeueStale(staleBefore time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.records {
		if r.Status == RecordStatusSubmitting && r.LockedAt != nil && r.LockedAt.Before(staleBefore) {
			r.Status = RecordStatusQueued
			r.LockedAt = nil
			r.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) Close() error { return nil }
