package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/legalaidline/intakeline/internal/models"
	"github.com/legalaidline/intakeline/internal/prompts"
	"github.com/legalaidline/intakeline/internal/validate"
)

// DefaultConfidenceThreshold is the classification vote tally below which the
// engine asks the returned follow-up questions instead of advancing.
const DefaultConfidenceThreshold = 2.5

// RecordStore queues completed intake records for submission to the
// case-management system.
type RecordStore interface {
	Enqueue(ctx context.Context, record *models.IntakeRecord) error
}

// handlerFunc executes one flow-step function. It returns the result fed back
// to the dialogue agent and the next step, either of which may be nil: a nil
// next step means the caller is re-asked at the current step.
type handlerFunc func(ctx context.Context, session *Session, args json.RawMessage) (interface{}, *models.Step, error)

// Engine is the intake state machine. One Engine serves every concurrent
// call; all per-call state lives in the Session, so instances only share the
// injected read-only validators and prompt library.
type Engine struct {
	validator  *validate.IntakeValidator
	prompts    *prompts.Library
	steps      *stepBuilder
	records    RecordStore
	handlers   map[models.FunctionName]handlerFunc
	resumable  map[models.FunctionName]func() *models.Step
	initialKey string
	initialFn  models.FunctionName
	threshold  float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecordStore sets the queue completed intakes are written to.
func WithRecordStore(store RecordStore) Option {
	return func(e *Engine) { e.records = store }
}

// WithInitialFunction overrides the function the initial step starts from,
// used to begin a session partway through the questionnaire in development.
func WithInitialFunction(fn models.FunctionName, promptKey string) Option {
	return func(e *Engine) {
		e.initialFn = fn
		e.initialKey = promptKey
	}
}

// WithConfidenceThreshold overrides the classification confidence floor.
func WithConfidenceThreshold(threshold float64) Option {
	return func(e *Engine) { e.threshold = threshold }
}

// NewEngine builds the state machine. The initial function is checked against
// the registry here so a misconfigured entry point fails at startup, not
// mid-call.
func NewEngine(validator *validate.IntakeValidator, lib *prompts.Library, opts ...Option) (*Engine, error) {
	if validator == nil {
		return nil, fmt.Errorf("intake validator is required")
	}
	if lib == nil {
		return nil, fmt.Errorf("prompt library is required")
	}

	e := &Engine{
		validator:  validator,
		prompts:    lib,
		steps:      &stepBuilder{lib: lib},
		initialKey: string(models.StepInitial),
		initialFn:  models.FuncSystemPhoneNumber,
		threshold:  DefaultConfidenceThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.handlers = map[models.FunctionName]handlerFunc{
		models.FuncSystemPhoneNumber:       e.systemPhoneNumber,
		models.FuncRecordPhoneNumber:       e.recordPhoneNumber,
		models.FuncRecordName:              e.recordName,
		models.FuncRecordServiceArea:       e.recordServiceArea,
		models.FuncRecordCaseType:          e.recordCaseType,
		models.FuncRecordConflict:          e.recordConflict,
		models.FuncRecordDomesticViolence:  e.recordDomesticViolence,
		models.FuncRecordIncome:            e.recordIncome,
		models.FuncRecordAssetsBenefits:    e.recordAssetsBenefits,
		models.FuncRecordAssetsList:        e.recordAssetsList,
		models.FuncRecordCitizenship:       e.recordCitizenship,
		models.FuncRecordEmergency:         e.recordEmergency,
		models.FuncContinueIntake:          e.continueIntake,
		models.FuncEndConversation:         e.endConversation,
		models.FuncCallerEndedConversation: e.callerEndedConversation,
	}

	// Steps reachable through the continue_intake escape hatch. A closed
	// registry: unknown names are a configuration error, never a lookup crash.
	e.resumable = map[models.FunctionName]func() *models.Step{
		models.FuncRecordPhoneNumber:      e.steps.recordPhoneNumber,
		models.FuncRecordName:             e.steps.recordName,
		models.FuncRecordServiceArea:      e.steps.recordServiceArea,
		models.FuncRecordCaseType:         e.steps.recordCaseType,
		models.FuncRecordConflict:         e.steps.recordConflict,
		models.FuncRecordDomesticViolence: e.steps.recordDomesticViolence,
		models.FuncRecordIncome:           e.steps.recordIncome,
		models.FuncRecordAssetsBenefits:   e.steps.recordAssetsBenefits,
		models.FuncRecordAssetsList:       e.steps.recordAssetsList,
		models.FuncRecordCitizenship:      e.steps.recordCitizenship,
		models.FuncRecordEmergency:        e.steps.recordEmergency,
	}

	if _, ok := e.handlers[e.initialFn]; !ok {
		return nil, fmt.Errorf("initial function %q does not exist", e.initialFn)
	}
	slog.Debug("flow.NewEngine: engine assembled",
		"initialFunction", e.initialFn,
		"confidenceThreshold", e.threshold,
		"hasRecordStore", e.records != nil)
	return e, nil
}

// StartSession creates the session for a new call and places it on the
// initial step.
func (e *Engine) StartSession(callSID, callerID string) *Session {
	session := NewSession(callSID, callerID)
	session.Current = e.steps.initial(e.initialKey, e.initialFn)
	slog.Info("flow.StartSession: intake started", "sessionID", session.ID, "callSID", callSID)
	return session
}

// HandleFunctionCall runs one flow-step function against the session. The
// result is fed back to the dialogue agent as the function-call output; a
// non-nil next step becomes the session's current step. A nil next step
// leaves the session where it is so the agent re-asks the caller.
func (e *Engine) HandleFunctionCall(ctx context.Context, session *Session, name models.FunctionName, args json.RawMessage) (interface{}, *models.Step, error) {
	handler, ok := e.handlers[name]
	if !ok {
		slog.Error("flow.HandleFunctionCall: unknown function", "sessionID", session.ID, "function", name)
		return nil, nil, fmt.Errorf("function %q does not exist", name)
	}
	if session.Current != nil && !session.Current.Allows(name) {
		slog.Warn("flow.HandleFunctionCall: function not allowed at current step",
			"sessionID", session.ID, "function", name, "step", session.StepName())
		return nil, nil, fmt.Errorf("function %q is not callable from step %q", name, session.StepName())
	}

	result, next, err := handler(ctx, session, args)
	if err != nil {
		slog.Error("flow.HandleFunctionCall: step failed",
			"sessionID", session.ID, "function", name, "step", session.StepName(), "error", err)
		return nil, nil, err
	}

	if next != nil {
		slog.Info("flow.HandleFunctionCall: step transition",
			"sessionID", session.ID, "function", name, "from", session.StepName(), "to", next.Name)
		session.Current = next
	} else {
		slog.Debug("flow.HandleFunctionCall: staying on step",
			"sessionID", session.ID, "function", name, "step", session.StepName())
	}
	return result, next, nil
}
