package telephony

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Opts holds Twilio REST credentials.
type Opts struct {
	AccountSID string
	AuthToken  string
}

// Option configures the Twilio client.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// Client wraps the Twilio REST API for call control and webhook signature
// validation.
type Client struct {
	client    *twilio.RestClient
	validator twilioclient.RequestValidator
}

// NewClient builds the Twilio client, falling back to TWILIO_ACCOUNT_SID and
// TWILIO_AUTH_TOKEN when options are not provided.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	slog.Debug("telephony.NewClient: Twilio client config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}

	return &Client{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
		validator: twilioclient.NewRequestValidator(cfg.AuthToken),
	}, nil
}

// Validator returns the webhook signature validator.
func (c *Client) Validator() SignatureValidator {
	return &c.validator
}

// EndCall completes an in-progress call. Used when a terminal intake step
// carries the terminate-call directive.
func (c *Client) EndCall(_ context.Context, callSID string) error {
	params := &twilioApi.UpdateCallParams{}
	params.SetStatus("completed")

	if _, err := c.client.Api.UpdateCall(callSID, params); err != nil {
		slog.Error("telephony.EndCall: failed to complete call", "callSID", callSID, "error", err)
		return fmt.Errorf("failed to end call %s: %w", callSID, err)
	}
	slog.Info("telephony.EndCall: call completed", "callSID", callSID)
	return nil
}
