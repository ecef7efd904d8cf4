package validate

import (
	"testing"

	"github.com/legalaidline/intakeline/internal/models"
)

func testValidator(t *testing.T) *IntakeValidator {
	t.Helper()
	v, err := New(Config{
		ServiceAreas:         []string{"Amelia County", "Lynchburg City"},
		Poverty:              &PovertyScale{Base: 15650, Increment: 5500},
		CaseTypes:            NewStaticCaseTypeClassifier(Taxonomy{"divorce": "30 Divorce/Separation/Annulment"}),
		Conflicts:            NewStaticConflictChecker([]string{"Jimmy Dean"}),
		AlternativeProviders: []string{"Southwest Virginia Legal Aid Society"},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return v
}

func TestNewRequiredConfig(t *testing.T) {
	base := Config{
		ServiceAreas: []string{"Amelia County"},
		Poverty:      &PovertyScale{Base: 15650, Increment: 5500},
		CaseTypes:    NewStaticCaseTypeClassifier(Taxonomy{}),
		Conflicts:    NewStaticConflictChecker(nil),
	}

	broken := base
	broken.ServiceAreas = nil
	if _, err := New(broken); err == nil {
		t.Error("expected error for missing service areas")
	}

	broken = base
	broken.Poverty = nil
	if _, err := New(broken); err == nil {
		t.Error("expected error for missing poverty scale")
	}

	broken = base
	broken.CaseTypes = nil
	if _, err := New(broken); err == nil {
		t.Error("expected error for missing case-type classifier")
	}

	broken = base
	broken.Conflicts = nil
	if _, err := New(broken); err == nil {
		t.Error("expected error for missing conflict checker")
	}

	if _, err := New(base); err != nil {
		t.Errorf("expected complete config to build, got %v", err)
	}
}

func TestValidatorCheckIncome(t *testing.T) {
	v := testValidator(t)

	// One-person household at 300% of the poverty line: the monthly cap is
	// 3912, so 3912 qualifies and 3913 does not.
	income := models.HouseholdIncome{
		"caller": models.MemberIncome{"job": {Amount: 3912, Period: models.IncomePeriodMonth}},
	}
	eligible, total := v.CheckIncome(income)
	if !eligible || total != 3912 {
		t.Errorf("expected eligible with total 3912, got eligible=%v total=%d", eligible, total)
	}

	income["caller"]["job"] = models.IncomeDetail{Amount: 3913, Period: models.IncomePeriodMonth}
	eligible, total = v.CheckIncome(income)
	if eligible || total != 3913 {
		t.Errorf("expected ineligible with total 3913, got eligible=%v total=%d", eligible, total)
	}
}

func TestValidatorCheckAssets(t *testing.T) {
	v := testValidator(t)
	eligible, total := v.CheckAssets(models.Assets{{"savings": 7000}, {"car": 3000}})
	if !eligible || total != 10000 {
		t.Errorf("expected eligible at the limit, got eligible=%v total=%d", eligible, total)
	}
}

func TestValidatorAlternativeProviders(t *testing.T) {
	v := testValidator(t)
	providers := v.AlternativeProviders()
	if len(providers) != 1 || providers[0] != "Southwest Virginia Legal Aid Society" {
		t.Errorf("unexpected providers: %v", providers)
	}
}
