// Package flow implements the intake questionnaire state machine: the
// conversation steps, the functions that validate each answer, and the
// transition rules that decide the next step.
package flow

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/legalaidline/intakeline/internal/models"
)

// Session is the call-scoped state for one phone call. It is created when the
// call connects and discarded when the call ends; nothing persists across
// calls. A session is owned by a single call goroutine, never shared.
type Session struct {
	// ID identifies the session in logs.
	ID string
	// CallSID is the telephony provider's call identifier, when known.
	CallSID string
	// CallerID is the phone number reported by the phone system, possibly empty.
	CallerID string
	// Current is the conversation step the caller is on.
	Current *models.Step

	state map[models.DataKey]string
}

// NewSession creates a fresh session for one call.
func NewSession(callSID, callerID string) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		CallSID:  callSID,
		CallerID: callerID,
		state:    make(map[models.DataKey]string),
	}
	slog.Debug("flow.NewSession: session created", "sessionID", s.ID, "callSID", callSID, "hasCallerID", callerID != "")
	return s
}

// Set stores a raw value under key, overwriting any previous value.
func (s *Session) Set(key models.DataKey, value string) {
	s.state[key] = value
}

// Get returns the raw value stored under key.
func (s *Session) Get(key models.DataKey) string {
	return s.state[key]
}

// SetJSON marshals value and stores it under key.
func (s *Session) SetJSON(key models.DataKey, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal session value for %s: %w", key, err)
	}
	s.state[key] = string(data)
	return nil
}

// GetJSON unmarshals the value stored under key into out. It returns false
// when the key has never been written.
func (s *Session) GetJSON(key models.DataKey, out interface{}) (bool, error) {
	raw, ok := s.state[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return true, fmt.Errorf("failed to unmarshal session value for %s: %w", key, err)
	}
	return true, nil
}

// StepName returns the current step's name, or empty before the first step.
func (s *Session) StepName() models.StepName {
	if s.Current == nil {
		return ""
	}
	return s.Current.Name
}
