package validate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/legalaidline/intakeline/internal/models"
)

// DefaultIncomeMultiplier scales the federal poverty limit to the program's
// income ceiling (300% of the poverty line).
const DefaultIncomeMultiplier = 3.0

// Config assembles an IntakeValidator. ServiceAreas, Poverty, CaseTypes, and
// Conflicts are required; zero-valued knobs fall back to program defaults.
type Config struct {
	ServiceAreas         []string
	ServiceAreaCutoff    int
	Poverty              *PovertyScale
	AssetLimit           int
	IncomeMultiplier     float64
	CaseTypes            CaseTypeClassifier
	Conflicts            ConflictChecker
	AlternativeProviders []string
}

// IntakeValidator bundles every eligibility validator behind one dependency
// injected into the flow engine, so mock and live validators swap without
// process-wide state.
type IntakeValidator struct {
	serviceAreas     *ServiceAreaMatcher
	poverty          *PovertyScale
	assets           *AssetAppraiser
	caseTypes        CaseTypeClassifier
	conflicts        ConflictChecker
	providers        []string
	incomeMultiplier float64
}

// New builds an IntakeValidator from cfg, failing fast on missing pieces.
func New(cfg Config) (*IntakeValidator, error) {
	matcher, err := NewServiceAreaMatcher(cfg.ServiceAreas, cfg.ServiceAreaCutoff)
	if err != nil {
		return nil, err
	}
	if cfg.Poverty == nil {
		return nil, fmt.Errorf("poverty scale is required")
	}
	if cfg.CaseTypes == nil {
		return nil, fmt.Errorf("case-type classifier is required")
	}
	if cfg.Conflicts == nil {
		return nil, fmt.Errorf("conflict checker is required")
	}
	multiplier := cfg.IncomeMultiplier
	if multiplier <= 0 {
		multiplier = DefaultIncomeMultiplier
	}
	slog.Debug("validate.New: intake validator assembled",
		"serviceAreas", len(cfg.ServiceAreas),
		"incomeMultiplier", multiplier,
		"assetLimit", cfg.AssetLimit,
		"providers", len(cfg.AlternativeProviders))
	return &IntakeValidator{
		serviceAreas:     matcher,
		poverty:          cfg.Poverty,
		assets:           NewAssetAppraiser(cfg.AssetLimit),
		caseTypes:        cfg.CaseTypes,
		conflicts:        cfg.Conflicts,
		providers:        cfg.AlternativeProviders,
		incomeMultiplier: multiplier,
	}, nil
}

// CheckPhoneNumber validates and normalizes a US phone number.
func (v *IntakeValidator) CheckPhoneNumber(phoneNumber string) (bool, string) {
	return CheckPhoneNumber(phoneNumber)
}

// CheckServiceArea returns the best canonical jurisdiction match for the
// caller's location, or "" when nothing is close enough.
func (v *IntakeValidator) CheckServiceArea(location string) string {
	return v.serviceAreas.Match(location)
}

// CheckCaseType classifies the caller's legal problem.
func (v *IntakeValidator) CheckCaseType(ctx context.Context, caseDescription string) (models.ClassificationResponse, error) {
	return v.caseTypes.Classify(ctx, caseDescription)
}

// CheckConflict scores the named opposing parties for conflicts of interest.
func (v *IntakeValidator) CheckConflict(ctx context.Context, parties models.PotentialConflicts) (models.ConflictCheckResponses, error) {
	return v.conflicts.Check(ctx, parties)
}

// CheckIncome aggregates the household's declared income to a monthly total
// and tests it against the scaled poverty limit for the household size.
func (v *IntakeValidator) CheckIncome(income models.HouseholdIncome) (isEligible bool, monthlyTotal int) {
	monthlyTotal = MonthlyTotal(income)
	householdSize := len(income)
	isEligible = v.poverty.Qualifies(monthlyTotal, householdSize, v.incomeMultiplier)
	return isEligible, monthlyTotal
}

// CheckAssets totals the declared assets against the program limit.
func (v *IntakeValidator) CheckAssets(assets models.Assets) (isEligible bool, totalValue int) {
	return v.assets.Appraise(assets)
}

// AlternativeProviders lists providers surfaced to ineligible callers.
func (v *IntakeValidator) AlternativeProviders() []string {
	return v.providers
}
