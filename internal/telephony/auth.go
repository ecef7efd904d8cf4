// Package telephony terminates the Twilio side of a call: the voice webhook
// that answers with a media-stream TwiML, the websocket endpoint speaking
// Twilio's media-stream framing, and REST call control.
package telephony

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// ParseWebsocketSecret decodes the hex-encoded websocket signing secret.
// Empty input is rejected: a zero-length HMAC key would let anyone mint
// valid auth codes.
func ParseWebsocketSecret(hexKey string) ([]byte, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("websocket security token must be set")
	}
	secret, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("websocket security token must be a valid hex string: %w", err)
	}
	return secret, nil
}

// WebsocketAuthCode derives the auth code the webhook plants in the stream's
// custom parameters. The media endpoint recomputes it from the call SID, so
// only callers that came through our webhook can open a stream.
func WebsocketAuthCode(secret []byte, callSID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(callSID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyWebsocketAuthCode checks a received auth code in constant time.
func VerifyWebsocketAuthCode(secret []byte, callSID, received string) bool {
	if callSID == "" || received == "" {
		return false
	}
	expected := WebsocketAuthCode(secret, callSID)
	return hmac.Equal([]byte(expected), []byte(received))
}
