package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/legalaidline/intakeline/internal/models"
)

// 2025 federal poverty guidelines for the 48 contiguous states.
func testScale() *PovertyScale {
	return &PovertyScale{
		Base:        15_650,
		Increment:   5_500,
		BaseHI:      17_990,
		IncrementHI: 6_325,
		BaseAK:      19_550,
		IncrementAK: 6_880,
	}
}

func TestIncomeLimit(t *testing.T) {
	ps := testScale()
	cases := []struct {
		size       int
		multiplier float64
		expected   int
	}{
		{1, 1.0, 15_650},
		{1, 3.0, 46_950},
		{2, 3.0, 63_450},
		{4, 3.0, 96_450},
		{0, 3.0, 46_950}, // clamped to a one-person household
	}
	for _, tc := range cases {
		if got := ps.IncomeLimit(tc.size, tc.multiplier); got != tc.expected {
			t.Errorf("IncomeLimit(%d, %v) = %d, expected %d", tc.size, tc.multiplier, got, tc.expected)
		}
	}
}

func TestIncomeLimitForState(t *testing.T) {
	ps := testScale()
	if got := ps.IncomeLimitForState(1, 1.0, "hi"); got != 17_990 {
		t.Errorf("HI limit = %d, expected 17990", got)
	}
	if got := ps.IncomeLimitForState(1, 1.0, "AK"); got != 19_550 {
		t.Errorf("AK limit = %d, expected 19550", got)
	}
}

// The annual limit for one person at 3.0x is 46950; the monthly cap is
// 46950/12 = 3912.5, rounded half-to-even to 3912. Exactly at the cap is
// eligible, one dollar over is not.
func TestQualifiesBoundary(t *testing.T) {
	ps := testScale()
	cases := []struct {
		monthly  int
		size     int
		expected bool
	}{
		{1200, 1, true},
		{3911, 1, true},
		{3912, 1, true},
		{3913, 1, false},
		{5288, 2, true}, // 63450/12 = 5287.5 -> 5288
		{5289, 2, false},
	}
	for _, tc := range cases {
		if got := ps.Qualifies(tc.monthly, tc.size, 3.0); got != tc.expected {
			t.Errorf("Qualifies(%d, %d, 3.0) = %v, expected %v", tc.monthly, tc.size, got, tc.expected)
		}
	}
}

func TestMonthlyTotal(t *testing.T) {
	income := models.HouseholdIncome{
		"John Doe": {
			"wages":         {Amount: 2000, Period: models.IncomePeriodMonth},
			"child support": {Amount: 300, Period: models.IncomePeriodMonth},
		},
		"Jane Doe": {
			"social security": {Amount: 12_000, Period: models.IncomePeriodYear},
		},
	}
	if got := MonthlyTotal(income); got != 3300 {
		t.Errorf("MonthlyTotal = %d, expected 3300", got)
	}
}

// Fractional monthly equivalents truncate rather than round.
func TestMonthlyTotalTruncates(t *testing.T) {
	income := models.HouseholdIncome{
		"Solo": {
			"pension": {Amount: 25_000, Period: models.IncomePeriodYear},
		},
	}
	if got := MonthlyTotal(income); got != 2083 {
		t.Errorf("MonthlyTotal = %d, expected truncated 2083", got)
	}
}

func TestLoadPovertyScale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scale.json")
	content := `{"poverty_base": 15650, "poverty_increment": 5500, "effective_date": "2025-01-17"}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	ps, err := LoadPovertyScale(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ps.Base != 15_650 || ps.Increment != 5_500 {
		t.Errorf("unexpected scale: %+v", ps)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"poverty_base": 0}`), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := LoadPovertyScale(bad); err == nil {
		t.Error("expected error for non-positive base, got nil")
	}
}
