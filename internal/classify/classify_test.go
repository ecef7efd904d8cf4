package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/legalaidline/intakeline/internal/models"
)

func TestNewClientRequiresConfig(t *testing.T) {
	t.Setenv("FETCH_URL", "")
	t.Setenv("FETCH_API_KEY", "")
	if _, err := NewClient(); err == nil {
		t.Error("expected error when URL and key are missing")
	}
	if _, err := NewClient(WithURL("https://classifier.example.org")); err == nil {
		t.Error("expected error when API key is missing")
	}
}

func TestClassify(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(models.ClassificationResponse{
			Labels: []models.Label{{Label: "Divorce", Confidence: 4.2}},
			FollowUpQuestions: []models.FollowUpQuestion{
				{Question: "Are there children involved?"},
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(WithURL(server.URL), WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	resp, err := client.Classify(context.Background(), "My spouse filed for divorce.")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(resp.Labels) != 1 || resp.Labels[0].Label != "Divorce" {
		t.Errorf("unexpected labels %+v", resp.Labels)
	}
	if len(resp.FollowUpQuestions) != 1 {
		t.Errorf("unexpected follow-ups %+v", resp.FollowUpQuestions)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("unexpected Authorization header %q", gotAuth)
	}
	if gotBody["problem_description"] != "My spouse filed for divorce." {
		t.Errorf("unexpected problem_description %v", gotBody["problem_description"])
	}
	if gotBody["decision_mode"] != "vote" {
		t.Errorf("unexpected decision_mode %v", gotBody["decision_mode"])
	}
	if gotBody["include_debug_details"] != false {
		t.Errorf("include_debug_details should be false, got %v", gotBody["include_debug_details"])
	}
}

func TestClassifySurfacesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewClient(WithURL(server.URL), WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := client.Classify(context.Background(), "anything"); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}
