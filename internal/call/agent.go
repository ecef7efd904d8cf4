// Package call runs the per-call dialogue agent: it owns one call's
// conversation history, lets the model invoke the intake flow's functions,
// and applies the flow's context-reset and terminate-call directives.
package call

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/legalaidline/intakeline/internal/flow"
	"github.com/legalaidline/intakeline/internal/genai"
	"github.com/legalaidline/intakeline/internal/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
)

// defaultMaxToolRounds bounds tool-call loops within one caller turn.
const defaultMaxToolRounds = 5

// dependencyFailureMessage is spoken instead of internal error text when an
// external check fails mid-call.
const dependencyFailureMessage = "I'm sorry, I'm having trouble checking that right now. Please hold for a moment and we will try again."

// CallControl ends the underlying phone call when a terminal step is reached.
type CallControl interface {
	EndCall(ctx context.Context, callSID string) error
}

// Agent drives the dialogue for a single call. It is owned by that call's
// goroutine; concurrent calls get independent agents.
type Agent struct {
	engine        *flow.Engine
	client        genai.ClientInterface
	control       CallControl
	session       *flow.Session
	history       []openai.ChatCompletionMessageParamUnion
	maxToolRounds int
}

// NewAgent starts an intake session for one call and returns its agent.
func NewAgent(engine *flow.Engine, client genai.ClientInterface, control CallControl, callSID, callerID string) *Agent {
	session := engine.StartSession(callSID, callerID)
	return &Agent{
		engine:        engine,
		client:        client,
		control:       control,
		session:       session,
		maxToolRounds: defaultMaxToolRounds,
	}
}

// Session exposes the call's session, mainly for logging and tests.
func (a *Agent) Session() *flow.Session {
	return a.session
}

// Greet produces the opening line for the call.
func (a *Agent) Greet(ctx context.Context) (string, error) {
	reply, err := a.client.GenerateWithMessages(ctx, a.composeMessages())
	if err != nil {
		return "", fmt.Errorf("failed to generate greeting: %w", err)
	}
	a.history = append(a.history, openai.AssistantMessage(reply))
	return reply, nil
}

// HandleUtterance processes one caller utterance and returns the agent's
// spoken reply. done reports that the call should be terminated once the
// reply has been spoken.
func (a *Agent) HandleUtterance(ctx context.Context, utterance string) (reply string, done bool, err error) {
	a.history = append(a.history, openai.UserMessage(utterance))

	for round := 0; round < a.maxToolRounds; round++ {
		response, err := a.client.GenerateWithTools(ctx, a.composeMessages(), flow.ToolsForStep(a.session.Current))
		if err != nil {
			return "", false, fmt.Errorf("dialogue generation failed: %w", err)
		}

		if len(response.ToolCalls) == 0 {
			a.history = append(a.history, openai.AssistantMessage(response.Content))
			return response.Content, a.sessionTerminal(ctx), nil
		}

		if err := a.executeToolCalls(ctx, response); err != nil {
			// External checks failing mid-call degrade to a hold message; the
			// step was not advanced and can be retried on the next turn.
			slog.Error("call.HandleUtterance: tool execution failed",
				"sessionID", a.session.ID, "error", err)
			a.history = append(a.history, openai.AssistantMessage(dependencyFailureMessage))
			return dependencyFailureMessage, false, nil
		}
	}

	// The model kept calling tools without producing a reply. Generate a
	// plain response from the accumulated context.
	reply, err = a.client.GenerateWithMessages(ctx, a.composeMessages())
	if err != nil {
		return "", false, fmt.Errorf("dialogue generation failed: %w", err)
	}
	a.history = append(a.history, openai.AssistantMessage(reply))
	return reply, a.sessionTerminal(ctx), nil
}

// composeMessages prefixes the history with the current step's instructions.
// The system message is rebuilt every turn so a step transition immediately
// reconfigures the agent.
func (a *Agent) composeMessages() []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(a.history)+1)
	if a.session.Current != nil {
		messages = append(messages, openai.SystemMessage(a.session.Current.Instructions))
	}
	return append(messages, a.history...)
}

// executeToolCalls dispatches each requested function into the flow engine
// and feeds results back into the conversation.
func (a *Agent) executeToolCalls(ctx context.Context, response *genai.ToolCallResponse) error {
	toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(response.ToolCalls))
	for _, tc := range response.ToolCalls {
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID:   tc.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      tc.Function.Name,
				Arguments: string(tc.Function.Arguments),
			},
		})
	}
	assistantMessage := openai.ChatCompletionAssistantMessageParam{
		Content: openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: param.NewOpt(response.Content),
		},
		ToolCalls: toolCalls,
	}
	a.history = append(a.history, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistantMessage})

	for _, tc := range response.ToolCalls {
		name := models.FunctionName(tc.Function.Name)
		result, next, err := a.engine.HandleFunctionCall(ctx, a.session, name, tc.Function.Arguments)
		if err != nil {
			a.history = append(a.history, openai.ToolMessage("The step could not be completed.", tc.ID))
			return fmt.Errorf("function %s failed: %w", name, err)
		}

		content := "{}"
		if result != nil {
			data, err := json.Marshal(result)
			if err != nil {
				return fmt.Errorf("failed to marshal result of %s: %w", name, err)
			}
			content = string(data)
		}
		a.history = append(a.history, openai.ToolMessage(content, tc.ID))

		if next != nil && next.ContextReset {
			a.compactHistory(ctx, next.SummaryPrompt)
		}
	}
	return nil
}

// compactHistory condenses the accumulated dialogue into a summary so context
// stays bounded across a long multi-step call. On failure the history is kept
// as-is; compaction is an optimization, not a correctness requirement.
func (a *Agent) compactHistory(ctx context.Context, summaryPrompt string) {
	if len(a.history) == 0 {
		return
	}
	messages := append(a.composeMessages(), openai.SystemMessage(summaryPrompt))
	summary, err := a.client.GenerateWithMessages(ctx, messages)
	if err != nil {
		slog.Warn("call.compactHistory: summary generation failed, keeping full history",
			"sessionID", a.session.ID, "historyLength", len(a.history), "error", err)
		return
	}
	slog.Debug("call.compactHistory: history compacted",
		"sessionID", a.session.ID, "previousLength", len(a.history))
	a.history = []openai.ChatCompletionMessageParamUnion{
		openai.AssistantMessage("Summary of the conversation so far: " + summary),
	}
}

// sessionTerminal applies the terminate-call directive of terminal steps.
func (a *Agent) sessionTerminal(ctx context.Context) bool {
	if a.session.Current == nil || !a.session.Current.Terminal() {
		return false
	}
	if a.control != nil && a.session.CallSID != "" {
		if err := a.control.EndCall(ctx, a.session.CallSID); err != nil {
			slog.Error("call.sessionTerminal: failed to end call",
				"sessionID", a.session.ID, "callSID", a.session.CallSID, "error", err)
		}
	}
	slog.Info("call.sessionTerminal: call completed",
		"sessionID", a.session.ID, "step", a.session.StepName())
	return true
}
