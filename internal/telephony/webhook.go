package telephony

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/twilio/twilio-go/twiml"
)

// SignatureValidator checks Twilio's X-Twilio-Signature header against the
// request payload. Satisfied by twilio-go's client.RequestValidator.
type SignatureValidator interface {
	Validate(url string, params map[string]string, expectedSignature string) bool
}

// WebhookHandler answers Twilio's inbound-call webhook with TwiML that
// bridges the call onto our media-stream websocket.
type WebhookHandler struct {
	domain    string
	protocol  string
	validator SignatureValidator
	secret    []byte
}

// NewWebhookHandler builds the webhook handler. domain is the public host
// Twilio reaches us on; secret signs the websocket auth codes.
func NewWebhookHandler(domain, protocol string, validator SignatureValidator, secret []byte) *WebhookHandler {
	if protocol == "" {
		protocol = "https"
	}
	return &WebhookHandler{domain: domain, protocol: protocol, validator: validator, secret: secret}
}

// ServeHTTP validates the webhook signature and responds with
// <Connect><Stream> TwiML carrying the caller's number and a websocket auth
// code as custom stream parameters.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.Warn("telephony.WebhookHandler: failed to parse form", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	params := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		params[key] = r.PostForm.Get(key)
	}
	signature := r.Header.Get("X-Twilio-Signature")
	webhookURL := fmt.Sprintf("%s://%s/", h.protocol, h.domain)
	if signature == "" || !h.validator.Validate(webhookURL, params, signature) {
		slog.Warn("telephony.WebhookHandler: webhook authentication failed", "hasSignature", signature != "")
		http.Error(w, "webhook authentication failed", http.StatusForbidden)
		return
	}

	callSID := params["CallSid"]
	content, err := h.streamTwiML(callSID, params["From"])
	if err != nil {
		slog.Error("telephony.WebhookHandler: failed to build TwiML", "callSID", callSID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("telephony.WebhookHandler: call accepted", "callSID", callSID)
	w.Header().Set("Content-Type", "application/xml")
	fmt.Fprint(w, content)
}

// streamTwiML renders the <Connect><Stream> document pointing Twilio at the
// media websocket.
func (h *WebhookHandler) streamTwiML(callSID, callerPhoneNumber string) (string, error) {
	stream := &twiml.VoiceStream{
		Url: fmt.Sprintf("wss://%s/ws", h.domain),
		InnerElements: []twiml.Element{
			&twiml.VoiceParameter{Name: "call_sid", Value: callSID},
			&twiml.VoiceParameter{Name: "caller_phone_number", Value: callerPhoneNumber},
			&twiml.VoiceParameter{Name: "websocket_auth_code", Value: WebsocketAuthCode(h.secret, callSID)},
		},
	}
	connect := &twiml.VoiceConnect{InnerElements: []twiml.Element{stream}}
	return twiml.Voice([]twiml.Element{connect})
}
