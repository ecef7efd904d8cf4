package call

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/legalaidline/intakeline/internal/flow"
	"github.com/legalaidline/intakeline/internal/genai"
	"github.com/legalaidline/intakeline/internal/models"
	"github.com/legalaidline/intakeline/internal/prompts"
	"github.com/legalaidline/intakeline/internal/validate"
	"github.com/openai/openai-go"
)

// mockGenAI replays a script of responses.
type mockGenAI struct {
	toolResponses []*genai.ToolCallResponse
	textResponses []string
	toolErr       error
}

func (m *mockGenAI) GenerateWithMessages(context.Context, []openai.ChatCompletionMessageParamUnion) (string, error) {
	if len(m.textResponses) == 0 {
		return "OK.", nil
	}
	next := m.textResponses[0]
	m.textResponses = m.textResponses[1:]
	return next, nil
}

func (m *mockGenAI) GenerateWithTools(context.Context, []openai.ChatCompletionMessageParamUnion, []openai.ChatCompletionToolParam) (*genai.ToolCallResponse, error) {
	if m.toolErr != nil {
		return nil, m.toolErr
	}
	if len(m.toolResponses) == 0 {
		return &genai.ToolCallResponse{Content: "OK."}, nil
	}
	next := m.toolResponses[0]
	m.toolResponses = m.toolResponses[1:]
	return next, nil
}

type mockControl struct {
	ended []string
}

func (m *mockControl) EndCall(_ context.Context, callSID string) error {
	m.ended = append(m.ended, callSID)
	return nil
}

func testEngine(t *testing.T) *flow.Engine {
	t.Helper()
	validator, err := validate.New(validate.Config{
		ServiceAreas: []string{"Amelia County"},
		Poverty:      &validate.PovertyScale{Base: 15650, Increment: 5500},
		CaseTypes:    validate.NewStaticCaseTypeClassifier(validate.Taxonomy{"divorce": "30 Divorce/Separation/Annulment"}),
		Conflicts:    validate.NewStaticConflictChecker([]string{"Jimmy Dean"}),
	})
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	var sb strings.Builder
	sb.WriteString("primary_role_message: You are an intake screener.\n")
	sb.WriteString("reset_with_summary: Summarize the conversation.\n")
	for _, key := range flow.RequiredPrompts() {
		fmt.Fprintf(&sb, "%s: Task for %s.\n", key, key)
	}
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	if err := os.WriteFile(path, []byte(sb.String()), 0o600); err != nil {
		t.Fatalf("failed to write prompt file: %v", err)
	}
	lib, err := prompts.Load(path, flow.RequiredPrompts())
	if err != nil {
		t.Fatalf("failed to load prompts: %v", err)
	}

	engine, err := flow.NewEngine(validator, lib)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	return engine
}

func toolCall(id, name, args string) genai.ToolCall {
	return genai.ToolCall{
		ID:   id,
		Type: "function",
		Function: genai.FunctionCall{
			Name:      name,
			Arguments: []byte(args),
		},
	}
}

func TestHandleUtteranceExecutesToolAndAdvances(t *testing.T) {
	engine := testEngine(t)
	client := &mockGenAI{
		toolResponses: []*genai.ToolCallResponse{
			{ToolCalls: []genai.ToolCall{toolCall("tc1", string(models.FuncSystemPhoneNumber), `{}`)}},
			{Content: "What is your phone number?"},
		},
	}
	agent := NewAgent(engine, client, &mockControl{}, "CA123", "866-534-5243")

	reply, done, err := agent.HandleUtterance(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("HandleUtterance failed: %v", err)
	}
	if done {
		t.Error("expected call to continue")
	}
	if reply != "What is your phone number?" {
		t.Errorf("unexpected reply: %q", reply)
	}
	if agent.Session().StepName() != models.StepRecordPhoneNumber {
		t.Errorf("expected session on record_phone_number, got %q", agent.Session().StepName())
	}
}

func TestHandleUtteranceEndsCallOnTerminalStep(t *testing.T) {
	engine := testEngine(t)
	client := &mockGenAI{
		toolResponses: []*genai.ToolCallResponse{
			{ToolCalls: []genai.ToolCall{toolCall("tc1", string(models.FuncCallerEndedConversation), `{}`)}},
			{Content: "Goodbye."},
		},
	}
	control := &mockControl{}
	agent := NewAgent(engine, client, control, "CA123", "")

	reply, done, err := agent.HandleUtterance(context.Background(), "I have to go")
	if err != nil {
		t.Fatalf("HandleUtterance failed: %v", err)
	}
	if !done {
		t.Fatal("expected call to be done")
	}
	if reply != "Goodbye." {
		t.Errorf("unexpected reply: %q", reply)
	}
	if len(control.ended) != 1 || control.ended[0] != "CA123" {
		t.Errorf("expected EndCall for CA123, got %v", control.ended)
	}
}

func TestHandleUtteranceDegradesOnDependencyFailure(t *testing.T) {
	engine := testEngine(t)
	client := &mockGenAI{toolErr: fmt.Errorf("upstream timeout")}
	agent := NewAgent(engine, client, &mockControl{}, "CA123", "")

	_, _, err := agent.HandleUtterance(context.Background(), "Hello")
	if err == nil {
		t.Fatal("expected error when generation fails")
	}
}

func TestHandleUtteranceHoldsOnToolFailure(t *testing.T) {
	engine := testEngine(t)
	// continue_intake with an unknown step makes the engine return an error.
	client := &mockGenAI{
		toolResponses: []*genai.ToolCallResponse{
			{ToolCalls: []genai.ToolCall{toolCall("tc1", "record_everything", `{}`)}},
		},
	}
	agent := NewAgent(engine, client, &mockControl{}, "CA123", "")

	reply, done, err := agent.HandleUtterance(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("expected degraded reply, got error: %v", err)
	}
	if done {
		t.Error("expected call to continue")
	}
	if reply != dependencyFailureMessage {
		t.Errorf("expected hold message, got %q", reply)
	}
}

type staticTranscriber struct{ text string }

func (s staticTranscriber) Transcribe(context.Context, []byte) (string, error) {
	return s.text, nil
}

type staticSpeaker struct{}

func (staticSpeaker) Speak(_ context.Context, text string) ([]byte, error) {
	return []byte(text), nil
}

func TestPipelineRoundTrip(t *testing.T) {
	engine := testEngine(t)
	client := &mockGenAI{
		toolResponses: []*genai.ToolCallResponse{{Content: "Hello, how can I help?"}},
	}
	agent := NewAgent(engine, client, &mockControl{}, "CA123", "")
	pipeline := NewPipeline(staticTranscriber{text: "Hi"}, staticSpeaker{}, agent)

	audio, done, err := pipeline.HandleAudio(context.Background(), []byte{0x00})
	if err != nil {
		t.Fatalf("HandleAudio failed: %v", err)
	}
	if done {
		t.Error("expected call to continue")
	}
	if string(audio) != "Hello, how can I help?" {
		t.Errorf("unexpected audio payload: %q", audio)
	}
}

func TestPipelineIgnoresPartialUtterance(t *testing.T) {
	engine := testEngine(t)
	agent := NewAgent(engine, &mockGenAI{}, &mockControl{}, "CA123", "")
	pipeline := NewPipeline(staticTranscriber{text: ""}, staticSpeaker{}, agent)

	audio, done, err := pipeline.HandleAudio(context.Background(), []byte{0x00})
	if err != nil || audio != nil || done {
		t.Errorf("expected silent no-op, got audio=%v done=%v err=%v", audio, done, err)
	}
}
