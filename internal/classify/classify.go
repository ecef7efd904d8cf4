// Package classify calls the remote legal-problem classifier that maps a
// caller's case description onto taxonomy labels with confidence scores.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/legalaidline/intakeline/internal/models"
)

// defaultTimeout bounds one classification round trip. The classifier runs
// several model votes per request, so this is generous on purpose.
const defaultTimeout = 60 * time.Second

// Opts holds client configuration.
type Opts struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

// Option configures the client.
type Option func(*Opts)

// WithURL sets the classifier endpoint.
func WithURL(url string) Option {
	return func(o *Opts) { o.URL = url }
}

// WithAPIKey sets the bearer token.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = client }
}

// Client posts case descriptions to the classifier service.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds the client, falling back to FETCH_URL and FETCH_API_KEY
// when options are not provided.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.URL == "" {
		cfg.URL = os.Getenv("FETCH_URL")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("FETCH_API_KEY")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("classifier URL must be provided")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("classifier API key must be provided")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	slog.Debug("classify.NewClient: client initialized", "url", cfg.URL)
	return &Client{url: cfg.URL, apiKey: cfg.APIKey, httpClient: cfg.HTTPClient}, nil
}

type classifyRequest struct {
	ProblemDescription  string `json:"problem_description"`
	IncludeDebugDetails bool   `json:"include_debug_details"`
	DecisionMode        string `json:"decision_mode"`
}

// Classify submits one case description and returns the scored labels and
// any follow-up questions the classifier wants answered.
func (c *Client) Classify(ctx context.Context, caseDescription string) (models.ClassificationResponse, error) {
	body, err := json.Marshal(classifyRequest{
		ProblemDescription:  caseDescription,
		IncludeDebugDetails: false,
		DecisionMode:        "vote",
	})
	if err != nil {
		return models.ClassificationResponse{}, fmt.Errorf("failed to marshal classification request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return models.ClassificationResponse{}, fmt.Errorf("failed to build classification request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.ClassificationResponse{}, fmt.Errorf("classification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.ClassificationResponse{}, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, snippet)
	}
	var result models.ClassificationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.ClassificationResponse{}, fmt.Errorf("failed to decode classification response: %w", err)
	}
	slog.Debug("classify.Classify: description classified",
		"labels", len(result.Labels), "followUps", len(result.FollowUpQuestions))
	return result, nil
}
