package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/legalaidline/intakeline/internal/models"
)

// PovertyScale holds the federal poverty guideline figures: a base annual
// amount for a one-person household and a per-additional-member increment,
// with the higher Alaska and Hawaii schedules alongside. Loaded once at
// startup and shared read-only across calls.
type PovertyScale struct {
	Base          int    `json:"poverty_base"`
	Increment     int    `json:"poverty_increment"`
	BaseHI        int    `json:"poverty_base_hi"`
	IncrementHI   int    `json:"poverty_increment_hi"`
	BaseAK        int    `json:"poverty_base_ak"`
	IncrementAK   int    `json:"poverty_increment_ak"`
	EffectiveDate string `json:"effective_date"`
}

// LoadPovertyScale reads the guideline figures from a JSON file.
func LoadPovertyScale(path string) (*PovertyScale, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read poverty scale file %s: %w", path, err)
	}
	var ps PovertyScale
	if err := json.Unmarshal(content, &ps); err != nil {
		return nil, fmt.Errorf("failed to parse poverty scale file %s: %w", path, err)
	}
	if ps.Base <= 0 || ps.Increment <= 0 {
		return nil, fmt.Errorf("poverty scale file %s has non-positive base or increment", path)
	}
	return &ps, nil
}

func (ps *PovertyScale) figures(state string) (base, increment int) {
	switch strings.ToLower(state) {
	case "hi":
		return ps.BaseHI, ps.IncrementHI
	case "ak":
		return ps.BaseAK, ps.IncrementAK
	default:
		return ps.Base, ps.Increment
	}
}

// IncomeLimitForState returns the annual household income limit:
// round((base + max(size-1, 0) * increment) * multiplier). Rounding is
// half-to-even, matching the published scale.
func (ps *PovertyScale) IncomeLimitForState(householdSize int, multiplier float64, state string) int {
	base, increment := ps.figures(state)
	additional := max(householdSize-1, 0) * increment
	return int(math.RoundToEven(float64(base+additional) * multiplier))
}

// IncomeLimit returns the annual limit under the 48-state schedule.
func (ps *PovertyScale) IncomeLimit(householdSize int, multiplier float64) int {
	return ps.IncomeLimitForState(householdSize, multiplier, "")
}

// Qualifies reports whether a total monthly income is at or below the scaled
// limit. The annual limit is divided by 12 and rounded half-to-even before
// the comparison, so the monthly cap itself decides the boundary.
func (ps *PovertyScale) Qualifies(totalMonthlyIncome, householdSize int, multiplier float64) bool {
	limit := ps.IncomeLimit(householdSize, multiplier)
	return int(math.RoundToEven(float64(limit)/12)) >= totalMonthlyIncome
}

// MonthlyTotal converts every declared income entry to its monthly equivalent
// (year entries divided by 12), sums across all members and income types, and
// truncates to a whole dollar amount.
func MonthlyTotal(income models.HouseholdIncome) int {
	total := 0.0
	for _, member := range income {
		for _, detail := range member {
			switch detail.Period {
			case models.IncomePeriodYear:
				total += float64(detail.Amount) / 12
			case models.IncomePeriodMonth:
				total += float64(detail.Amount)
			}
		}
	}
	return int(total)
}
