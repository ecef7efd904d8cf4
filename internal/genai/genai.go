// Package genai wraps the OpenAI chat-completions API behind the small
// interface the dialogue agent needs: plain generation and generation with
// function-calling tools.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// FunctionCall is one requested tool invocation: the flow-step function name
// and the JSON arguments the model extracted from the caller's speech.
type FunctionCall struct {
	Name      string
	Arguments json.RawMessage
}

// ToolCall is one tool call returned by the model.
type ToolCall struct {
	ID       string
	Type     string
	Function FunctionCall
}

// ToolCallResponse is a completion that may carry tool calls alongside text.
type ToolCallResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// ClientInterface is the capability the dialogue agent depends on, so tests
// can substitute a scripted model.
type ClientInterface interface {
	GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)
	GenerateWithTools(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, tools []openai.ChatCompletionToolParam) (*ToolCallResponse, error)
}

// Client implements ClientInterface against the OpenAI API.
type Client struct {
	client openai.Client
	model  string
}

// Opts holds client configuration.
type Opts struct {
	APIKey string
	Model  string
}

// Option configures a Client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the chat model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// NewClient initializes the client, falling back to the OPENAI_API_KEY
// environment variable when no key option is provided.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4o
	}
	c := &Client{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  cfg.Model,
	}
	slog.Debug("genai.NewClient: client initialized", "model", c.model)
	return c, nil
}

// GenerateWithMessages produces a plain text completion.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return completion.Choices[0].Message.Content, nil
}

// GenerateWithTools produces a completion with the given tools available. The
// returned response carries whatever tool calls the model chose to make.
func (c *Client) GenerateWithTools(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, tools []openai.ChatCompletionToolParam) (*ToolCallResponse, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion with tools failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	message := completion.Choices[0].Message
	response := &ToolCallResponse{Content: message.Content}
	for _, tc := range message.ToolCalls {
		response.ToolCalls = append(response.ToolCalls, ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: FunctionCall{
				Name:      tc.Function.Name,
				Arguments: json.RawMessage(tc.Function.Arguments),
			},
		})
	}
	slog.Debug("genai.GenerateWithTools: completion received",
		"toolCalls", len(response.ToolCalls), "hasContent", response.Content != "")
	return response, nil
}
