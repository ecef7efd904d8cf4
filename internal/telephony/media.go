package telephony

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/legalaidline/intakeline/internal/call"
)

// PipelineFactory builds the speech pipeline for one connected call.
type PipelineFactory func(callSID, callerID string) (*call.Pipeline, error)

// Twilio media-stream frames. Only the events and fields we consume are
// modeled; unknown fields are ignored.
type mediaFrame struct {
	Event     string        `json:"event"`
	StreamSID string        `json:"streamSid,omitempty"`
	Start     *startFrame   `json:"start,omitempty"`
	Media     *mediaPayload `json:"media,omitempty"`
}

type startFrame struct {
	CallSID          string            `json:"callSid"`
	StreamSID        string            `json:"streamSid"`
	CustomParameters map[string]string `json:"customParameters"`
}

type mediaPayload struct {
	Payload string `json:"payload"`
}

// MediaHandler owns the websocket endpoint Twilio streams call audio to. Each
// connection is one call: audio frames flow through the call's pipeline and
// synthesized replies flow back as outbound media frames.
type MediaHandler struct {
	secret      []byte
	newPipeline PipelineFactory
	upgrader    websocket.Upgrader
}

// NewMediaHandler builds the media-stream endpoint.
func NewMediaHandler(secret []byte, factory PipelineFactory) *MediaHandler {
	return &MediaHandler{
		secret:      secret,
		newPipeline: factory,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and runs the call until the stream stops
// or the caller disconnects. Disconnection tears the session down; a
// reconnect starts a fresh intake.
func (h *MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("telephony.MediaHandler: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	var pipeline *call.Pipeline
	var streamSID string

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			slog.Info("telephony.MediaHandler: stream disconnected", "streamSID", streamSID, "error", err)
			return
		}
		var frame mediaFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			slog.Warn("telephony.MediaHandler: ignoring malformed frame", "streamSID", streamSID, "error", err)
			continue
		}

		switch frame.Event {
		case "connected":
			// Handshake frame, nothing to do until start arrives.

		case "start":
			if frame.Start == nil {
				slog.Warn("telephony.MediaHandler: start frame without start payload")
				return
			}
			params := frame.Start.CustomParameters
			callSID := frame.Start.CallSID
			if callSID == "" {
				callSID = params["call_sid"]
			}
			if !VerifyWebsocketAuthCode(h.secret, callSID, params["websocket_auth_code"]) {
				slog.Warn("telephony.MediaHandler: websocket authentication failed", "callSID", callSID)
				return
			}
			streamSID = frame.Start.StreamSID
			pipeline, err = h.newPipeline(callSID, params["caller_phone_number"])
			if err != nil {
				slog.Error("telephony.MediaHandler: failed to build pipeline", "callSID", callSID, "error", err)
				return
			}
			slog.Info("telephony.MediaHandler: stream started", "callSID", callSID, "streamSID", streamSID)

			greeting, err := pipeline.Greet(ctx)
			if err != nil {
				slog.Error("telephony.MediaHandler: greeting failed", "callSID", callSID, "error", err)
				return
			}
			if err := h.sendMedia(conn, streamSID, greeting); err != nil {
				return
			}

		case "media":
			if pipeline == nil || frame.Media == nil {
				continue
			}
			audio, err := base64.StdEncoding.DecodeString(frame.Media.Payload)
			if err != nil {
				slog.Warn("telephony.MediaHandler: ignoring undecodable media payload", "streamSID", streamSID, "error", err)
				continue
			}
			reply, done, err := pipeline.HandleAudio(ctx, audio)
			if err != nil {
				slog.Error("telephony.MediaHandler: audio handling failed", "streamSID", streamSID, "error", err)
				return
			}
			if reply != nil {
				if err := h.sendMedia(conn, streamSID, reply); err != nil {
					return
				}
			}
			if done {
				slog.Info("telephony.MediaHandler: call finished", "streamSID", streamSID)
				return
			}

		case "stop":
			slog.Info("telephony.MediaHandler: stream stopped", "streamSID", streamSID)
			return

		default:
			slog.Debug("telephony.MediaHandler: ignoring event", "event", frame.Event, "streamSID", streamSID)
		}
	}
}

// sendMedia writes one outbound media frame with base64 audio.
func (h *MediaHandler) sendMedia(conn *websocket.Conn, streamSID string, audio []byte) error {
	frame := mediaFrame{
		Event:     "media",
		StreamSID: streamSID,
		Media:     &mediaPayload{Payload: base64.StdEncoding.EncodeToString(audio)},
	}
	if err := conn.WriteJSON(frame); err != nil {
		slog.Error("telephony.MediaHandler: failed to write media frame", "streamSID", streamSID, "error", err)
		return err
	}
	return nil
}
