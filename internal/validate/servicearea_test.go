package validate

import (
	"os"
	"path/filepath"
	"testing"
)

var testServiceAreas = []string{
	"Amelia County",
	"Amherst County",
	"Appomattox County",
	"Bedford County",
	"Danville City",
	"Isle of Wight County",
	"Lynchburg City",
	"Pittsylvania County",
	"South Boston",
	"Suffolk City",
}

func newTestMatcher(t *testing.T) *ServiceAreaMatcher {
	t.Helper()
	m, err := NewServiceAreaMatcher(testServiceAreas, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

// Every canonical jurisdiction name must match itself exactly.
func TestMatchRoundTrip(t *testing.T) {
	m := newTestMatcher(t)
	for _, name := range testServiceAreas {
		if got := m.Match(name); got != name {
			t.Errorf("Match(%q) = %q, expected round-trip", name, got)
		}
	}
}

func TestMatchFuzzy(t *testing.T) {
	m := newTestMatcher(t)
	cases := []struct {
		input    string
		expected string
	}{
		{"amelia county", "Amelia County"},
		{"Amelia", "Amelia County"},
		{"lynchburg", "Lynchburg City"},
		{"pittsylvania", "Pittsylvania County"},
	}
	for _, tc := range cases {
		if got := m.Match(tc.input); got != tc.expected {
			t.Errorf("Match(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}

func TestMatchNothingCloseEnough(t *testing.T) {
	m := newTestMatcher(t)
	if got := m.Match("xyzzy"); got != "" {
		t.Errorf("Match(%q) = %q, expected no match", "xyzzy", got)
	}
}

func TestNewServiceAreaMatcherEmptyList(t *testing.T) {
	if _, err := NewServiceAreaMatcher(nil, 0); err == nil {
		t.Error("expected error for empty jurisdiction list, got nil")
	}
}

func TestLoadServiceAreas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service_areas.json")
	if err := os.WriteFile(path, []byte(`["Amelia County", "Suffolk City"]`), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	names, err := LoadServiceAreas(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "Amelia County" {
		t.Errorf("unexpected service areas: %v", names)
	}

	if _, err := LoadServiceAreas(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
