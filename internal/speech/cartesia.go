// Package speech provides speech-to-text and text-to-speech against the
// Cartesia API, in the 8 kHz mu-law encoding telephone media streams carry.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	defaultBaseURL  = "https://api.cartesia.ai"
	cartesiaVersion = "2025-04-16"

	sttModel = "ink-whisper"
	ttsModel = "sonic-3"

	// Telephone media streams are 8 kHz mu-law.
	telephonyEncoding   = "pcm_mulaw"
	telephonySampleRate = 8000
)

// Opts holds configuration for the Cartesia clients.
type Opts struct {
	APIKey     string
	VoiceID    string
	BaseURL    string
	HTTPClient *http.Client
}

// Option configures the Cartesia clients.
type Option func(*Opts)

// WithAPIKey sets the Cartesia API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithVoice sets the TTS voice ID.
func WithVoice(voiceID string) Option {
	return func(o *Opts) { o.VoiceID = voiceID }
}

// WithBaseURL overrides the API base URL, for tests.
func WithBaseURL(baseURL string) Option {
	return func(o *Opts) { o.BaseURL = baseURL }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = client }
}

func resolve(opts []Option) (Opts, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("CARTESIA_API_KEY")
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("Cartesia API key must be provided")
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = os.Getenv("CARTESIA_VOICE_ID")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return cfg, nil
}

// CartesiaTranscriber converts caller audio to text.
type CartesiaTranscriber struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewTranscriber builds the STT client, falling back to CARTESIA_API_KEY.
func NewTranscriber(opts ...Option) (*CartesiaTranscriber, error) {
	cfg, err := resolve(opts)
	if err != nil {
		return nil, err
	}
	slog.Debug("speech.NewTranscriber: transcriber initialized", "model", sttModel)
	return &CartesiaTranscriber{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, httpClient: cfg.HTTPClient}, nil
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe converts one utterance of mu-law audio to text. An empty
// transcript means the caller has not finished speaking.
func (t *CartesiaTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "audio.raw")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("write audio data: %w", err)
	}
	if err := mw.WriteField("model", sttModel); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := mw.WriteField("language", "en"); err != nil {
		return "", fmt.Errorf("write language field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	u, err := url.Parse(t.baseURL + "/stt")
	if err != nil {
		return "", fmt.Errorf("parse stt url: %w", err)
	}
	q := u.Query()
	q.Set("encoding", telephonyEncoding)
	q.Set("sample_rate", strconv.Itoa(telephonySampleRate))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Cartesia-Version", cartesiaVersion)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cartesia request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("cartesia error %d: %s", resp.StatusCode, body)
	}
	var result transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	return result.Text, nil
}

// CartesiaSpeaker converts agent replies to caller audio.
type CartesiaSpeaker struct {
	apiKey     string
	voiceID    string
	baseURL    string
	httpClient *http.Client
}

// NewSpeaker builds the TTS client, falling back to CARTESIA_API_KEY and
// CARTESIA_VOICE_ID.
func NewSpeaker(opts ...Option) (*CartesiaSpeaker, error) {
	cfg, err := resolve(opts)
	if err != nil {
		return nil, err
	}
	if cfg.VoiceID == "" {
		return nil, fmt.Errorf("Cartesia voice ID must be provided")
	}
	slog.Debug("speech.NewSpeaker: speaker initialized", "model", ttsModel, "voice", cfg.VoiceID)
	return &CartesiaSpeaker{apiKey: cfg.APIKey, voiceID: cfg.VoiceID, baseURL: cfg.BaseURL, httpClient: cfg.HTTPClient}, nil
}

type ttsRequest struct {
	ModelID      string          `json:"model_id"`
	Transcript   string          `json:"transcript"`
	Voice        ttsVoiceSpec    `json:"voice"`
	OutputFormat ttsOutputFormat `json:"output_format"`
	Language     string          `json:"language"`
}

type ttsVoiceSpec struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type ttsOutputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

// Speak synthesizes one reply as raw mu-law audio.
func (s *CartesiaSpeaker) Speak(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(ttsRequest{
		ModelID:    ttsModel,
		Transcript: text,
		Voice:      ttsVoiceSpec{Mode: "id", ID: s.voiceID},
		OutputFormat: ttsOutputFormat{
			Container:  "raw",
			Encoding:   telephonyEncoding,
			SampleRate: telephonySampleRate,
		},
		Language: "en",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/tts/bytes", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Cartesia-Version", cartesiaVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cartesia request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return []byte{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("cartesia error %d: %s", resp.StatusCode, errBody)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}
