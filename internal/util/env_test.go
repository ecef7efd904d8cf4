package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	cases := []struct {
		value    string
		def      bool
		expected bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"false", true, false},
		{"0", true, false},
		{"off", true, false},
		{"", true, true},
		{"garbage", true, true},
	}
	for _, tc := range cases {
		t.Setenv("INTAKELINE_TEST_BOOL", tc.value)
		if got := ParseBoolEnv("INTAKELINE_TEST_BOOL", tc.def); got != tc.expected {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, expected %v", tc.value, tc.def, got, tc.expected)
		}
	}
}

func TestParseFloatEnv(t *testing.T) {
	t.Setenv("INTAKELINE_TEST_FLOAT", "3.0")
	if got := ParseFloatEnv("INTAKELINE_TEST_FLOAT", 1.0); got != 3.0 {
		t.Errorf("expected 3.0, got %v", got)
	}
	t.Setenv("INTAKELINE_TEST_FLOAT", "not-a-number")
	if got := ParseFloatEnv("INTAKELINE_TEST_FLOAT", 1.5); got != 1.5 {
		t.Errorf("expected default 1.5, got %v", got)
	}
}

func TestRequireEnv(t *testing.T) {
	t.Setenv("INTAKELINE_TEST_REQ", "value")
	val, err := RequireEnv("INTAKELINE_TEST_REQ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "value" {
		t.Errorf("expected %q, got %q", "value", val)
	}

	t.Setenv("INTAKELINE_TEST_REQ", "")
	if _, err := RequireEnv("INTAKELINE_TEST_REQ"); err == nil {
		t.Error("expected error for unset variable, got nil")
	}
}
