// Package legalserver is a client for the LegalServer case-management API:
// per-party conflict checks during intake and matter creation once an intake
// completes.
package legalserver

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

// caseDisposition marks records created by the phone screener; staff finish
// the intake in LegalServer.
const caseDisposition = "Incomplete Intake"

// Opts holds client configuration.
type Opts struct {
	Subdomain  string
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

// Option configures the client.
type Option func(*Opts)

// WithSubdomain sets the LegalServer tenant subdomain.
func WithSubdomain(subdomain string) Option {
	return func(o *Opts) { o.Subdomain = subdomain }
}

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(o *Opts) { o.Token = token }
}

// WithBaseURL overrides the API base URL, for tests.
func WithBaseURL(baseURL string) Option {
	return func(o *Opts) { o.BaseURL = baseURL }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = client }
}

// Client calls the LegalServer v2 API with bearer authentication.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds the client, falling back to LEGAL_SERVER_SUBDOMAIN and
// LEGAL_SERVER_BEARER_TOKEN when options are not provided.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Subdomain == "" {
		cfg.Subdomain = os.Getenv("LEGAL_SERVER_SUBDOMAIN")
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv("LEGAL_SERVER_BEARER_TOKEN")
	}
	if cfg.BaseURL == "" {
		if cfg.Subdomain == "" {
			return nil, fmt.Errorf("LegalServer subdomain must be provided")
		}
		cfg.BaseURL = fmt.Sprintf("https://%s.legalserver.org/api/v2", cfg.Subdomain)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("LegalServer bearer token must be provided")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	slog.Debug("legalserver.NewClient: client initialized", "baseURL", cfg.BaseURL)
	return &Client{baseURL: cfg.BaseURL, token: cfg.Token, httpClient: cfg.HTTPClient}, nil
}

// post sends one JSON payload and decodes the JSON response into out.
func (c *Client) post(ctx context.Context, endpoint string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", endpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned status %d: %s", endpoint, resp.StatusCode, snippet)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// CheckConflict scores one opposing party against existing and prior clients.
func (c *Client) CheckConflict(ctx context.Context, party models.PotentialConflict) (models.ConflictCheckResponse, error) {
	var response models.ConflictCheckResponse
	if err := c.post(ctx, "conflict_check", party, &response); err != nil {
		return models.ConflictCheckResponse{}, err
	}
	slog.Debug("legalserver.CheckConflict: party scored",
		"interval", response.Interval, "score", response.Score)
	return response, nil
}

// matterPayload is the matters-endpoint shape for a screener-created record.
type matterPayload struct {
	First                    string `json:"first"`
	Middle                   string `json:"middle"`
	Last                     string `json:"last"`
	IsGroup                  bool   `json:"is_group"`
	CaseDisposition          string `json:"case_disposition"`
	MobilePhone              string `json:"mobile_phone"`
	LegalProblemCode         string `json:"legal_problem_code,omitempty"`
	IncomeEligible           bool   `json:"income_eligible"`
	AssetEligible            bool   `json:"asset_eligible"`
	VictimOfDomesticViolence bool   `json:"victim_of_domestic_violence"`
}

// CreateMatter files a completed intake as a new matter.
func (c *Client) CreateMatter(ctx context.Context, record *models.IntakeRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("intake record is not submittable: %w", err)
	}
	payload := matterPayload{
		First:                    record.First,
		Middle:                   record.Middle,
		Last:                     record.Last,
		CaseDisposition:          caseDisposition,
		MobilePhone:              digitsOnly(record.PhoneNumber),
		LegalProblemCode:         record.LegalProblemCode,
		IncomeEligible:           record.IncomeEligible,
		AssetEligible:            record.AssetEligible,
		VictimOfDomesticViolence: record.DomesticViolence,
	}
	if err := c.post(ctx, "matters", payload, nil); err != nil {
		return err
	}
	slog.Info("legalserver.CreateMatter: matter created", "recordID", record.ID)
	return nil
}

// digitsOnly strips formatting from a phone number for the matters API.
func digitsOnly(phone string) string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	return string(digits)
}
