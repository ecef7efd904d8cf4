package validate

import "testing"

func TestCheckPhoneNumber(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		valid    bool
		expected string
	}{
		{"dashed", "866-534-5243", true, "(866) 534-5243"},
		{"bare digits", "8665345243", true, "(866) 534-5243"},
		{"country code", "+1 866 534 5243", true, "(866) 534-5243"},
		{"punctuation", "(202) 456.1111", true, "(202) 456-1111"},
		{"too short", "123", false, "123"},
		{"too long", "866534524312", false, "866534524312"},
		{"empty", "", false, ""},
		{"words", "call me maybe", false, "call me maybe"},
		{"non-US", "+44 20 7946 0958", false, "+44 20 7946 0958"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			valid, normalized := CheckPhoneNumber(tc.input)
			if valid != tc.valid {
				t.Errorf("CheckPhoneNumber(%q) valid = %v, expected %v", tc.input, valid, tc.valid)
			}
			if normalized != tc.expected {
				t.Errorf("CheckPhoneNumber(%q) = %q, expected %q", tc.input, normalized, tc.expected)
			}
		})
	}
}

// Validating a number already in canonical form must return it unchanged.
func TestCheckPhoneNumberIdempotent(t *testing.T) {
	valid, first := CheckPhoneNumber("866-534-5243")
	if !valid {
		t.Fatalf("expected valid number, got invalid")
	}
	valid, second := CheckPhoneNumber(first)
	if !valid {
		t.Fatalf("normalized output %q did not validate", first)
	}
	if first != second {
		t.Errorf("normalization is not idempotent: %q then %q", first, second)
	}
}
