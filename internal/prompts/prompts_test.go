package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePromptFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write prompt file: %v", err)
	}
	return path
}

const validPrompts = `
primary_role_message: |
  You are a friendly intake screener.
reset_with_summary: |
  Summarize the conversation so far.
record_name: |
  Ask the caller for their full name.
confirm_service_area: |
  Ask whether the caller meant {match}.
`

func TestLoad(t *testing.T) {
	path := writePromptFile(t, validPrompts)
	lib, err := Load(path, []string{"record_name"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lib.Role() == "" {
		t.Error("expected non-empty role message")
	}
	if lib.SummaryPrompt() == "" {
		t.Error("expected non-empty summary prompt")
	}
	if got := lib.Task("record_name"); !strings.Contains(got, "full name") {
		t.Errorf("unexpected record_name prompt: %q", got)
	}
}

func TestLoadMissingRequiredKey(t *testing.T) {
	path := writePromptFile(t, validPrompts)
	_, err := Load(path, []string{"record_income"})
	if err == nil {
		t.Fatal("expected error for missing required prompt, got nil")
	}
	if !strings.Contains(err.Error(), "record_income") {
		t.Errorf("error should name the missing key, got: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestFormat(t *testing.T) {
	path := writePromptFile(t, validPrompts)
	lib, err := Load(path, []string{"confirm_service_area"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := Format(lib.Task("confirm_service_area"), map[string]string{"match": "Amelia County"})
	if !strings.Contains(got, "Amelia County") {
		t.Errorf("expected formatted prompt to contain the match, got %q", got)
	}
	if strings.Contains(got, "{match}") {
		t.Errorf("placeholder was not substituted: %q", got)
	}
}
