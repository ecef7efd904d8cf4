package speech

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewTranscriberRequiresAPIKey(t *testing.T) {
	t.Setenv("CARTESIA_API_KEY", "")
	if _, err := NewTranscriber(); err == nil {
		t.Error("expected error when API key is missing")
	}
}

func TestNewSpeakerRequiresVoice(t *testing.T) {
	t.Setenv("CARTESIA_VOICE_ID", "")
	if _, err := NewSpeaker(WithAPIKey("key")); err == nil {
		t.Error("expected error when voice ID is missing")
	}
}

func TestTranscribe(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stt" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
		}
		if r.FormValue("model") != "ink-whisper" {
			t.Errorf("unexpected model %q", r.FormValue("model"))
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing audio file part: %v", err)
		}
		defer file.Close()
		audio, _ := io.ReadAll(file)
		if string(audio) != "mulaw-bytes" {
			t.Errorf("unexpected audio payload %q", audio)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "I live in Lynchburg."})
	}))
	defer server.Close()

	transcriber, err := NewTranscriber(WithAPIKey("key"), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewTranscriber failed: %v", err)
	}
	text, err := transcriber.Transcribe(context.Background(), []byte("mulaw-bytes"))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "I live in Lynchburg." {
		t.Errorf("unexpected transcript %q", text)
	}
	if got := gotQuery["encoding"]; len(got) != 1 || got[0] != "pcm_mulaw" {
		t.Errorf("unexpected encoding query %v", gotQuery["encoding"])
	}
	if got := gotQuery["sample_rate"]; len(got) != 1 || got[0] != "8000" {
		t.Errorf("unexpected sample_rate query %v", gotQuery["sample_rate"])
	}
}

func TestSpeak(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tts/bytes" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if body["transcript"] != "Hello." {
			t.Errorf("unexpected transcript %v", body["transcript"])
		}
		voice, _ := body["voice"].(map[string]interface{})
		if voice["id"] != "voice-1" {
			t.Errorf("unexpected voice %v", body["voice"])
		}
		format, _ := body["output_format"].(map[string]interface{})
		if format["encoding"] != "pcm_mulaw" || format["sample_rate"] != float64(8000) {
			t.Errorf("unexpected output format %v", body["output_format"])
		}
		w.Write([]byte("audio-bytes"))
	}))
	defer server.Close()

	speaker, err := NewSpeaker(WithAPIKey("key"), WithVoice("voice-1"), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewSpeaker failed: %v", err)
	}
	audio, err := speaker.Speak(context.Background(), "Hello.")
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if string(audio) != "audio-bytes" {
		t.Errorf("unexpected audio %q", audio)
	}
}

func TestSpeakSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad voice", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	speaker, err := NewSpeaker(WithAPIKey("key"), WithVoice("voice-1"), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewSpeaker failed: %v", err)
	}
	if _, err := speaker.Speak(context.Background(), "Hello."); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}
