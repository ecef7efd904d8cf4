// Package models defines the intake record assembled at intake completion.
package models

import (
	"errors"
	"time"
)

// Intake record validation errors.
var (
	ErrRecordMissingName  = errors.New("intake record requires a first and last name")
	ErrRecordMissingPhone = errors.New("intake record requires a phone number")
)

// IntakeRecord is the completed-intake summary assembled from session state
// and queued for submission to the case-management system. It is the only
// artifact that outlives the call.
type IntakeRecord struct {
	ID               string    `json:"id"`
	CallSID          string    `json:"call_sid,omitempty"`
	PhoneNumber      string    `json:"phone_number"`
	First            string    `json:"first"`
	Middle           string    `json:"middle,omitempty"`
	Last             string    `json:"last"`
	ServiceArea      string    `json:"service_area"`
	CaseLabel        string    `json:"case_label,omitempty"`
	LegalProblemCode string    `json:"legal_problem_code,omitempty"`
	DomesticViolence bool      `json:"victim_of_domestic_violence"`
	MonthlyIncome    int       `json:"monthly_income"`
	HouseholdSize    int       `json:"household_size"`
	IncomeEligible   bool      `json:"income_eligible"`
	AssetsValue      int       `json:"assets_value"`
	ReceivesBenefits bool      `json:"receives_benefits"`
	AssetEligible    bool      `json:"asset_eligible"`
	Citizen          bool      `json:"citizen"`
	Emergency        bool      `json:"emergency"`
	CreatedAt        time.Time `json:"created_at"`
	SubmittedAt      time.Time `json:"submitted_at,omitempty"`
}

// Validate checks the fields the case-management API requires.
func (r *IntakeRecord) Validate() error {
	if r.First == "" || r.Last == "" {
		return ErrRecordMissingName
	}
	if r.PhoneNumber == "" {
		return ErrRecordMissingPhone
	}
	return nil
}
