// Package models defines the core data structures for IntakeLine.
//
// It includes flow-step results, caller-supplied argument payloads, and the
// step descriptors shared between the intake engine and the dialogue agent.
package models

// Status reports the outcome of a flow-step invocation.
type Status string

const (
	// StatusSuccess indicates the step accepted the caller's answer.
	StatusSuccess Status = "success"
	// StatusError indicates the step rejected the answer and must be re-asked.
	StatusError Status = "error"
)

// StatusFromBool maps a boolean outcome onto a result Status.
func StatusFromBool(ok bool) Status {
	if ok {
		return StatusSuccess
	}
	return StatusError
}

// Result carries the fields common to every step result. A result with
// StatusError must have a non-empty Error message.
type Result struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// PhoneNumberResult is the outcome of the phone-number steps.
type PhoneNumberResult struct {
	Result
	IsValid     bool   `json:"is_valid"`
	PhoneNumber string `json:"phone_number"`
}

// NameResult is the outcome of the name step.
type NameResult struct {
	Result
	First  string `json:"first"`
	Middle string `json:"middle"`
	Last   string `json:"last"`
}

// ServiceAreaResult is the outcome of the service-area gate.
type ServiceAreaResult struct {
	Result
	Location   string `json:"location"`
	Match      string `json:"match,omitempty"`
	IsEligible bool   `json:"is_eligible"`
}

// CaseTypeResult is the outcome of the case-type gate.
type CaseTypeResult struct {
	Result
	IsEligible       bool    `json:"is_eligible"`
	Label            string  `json:"label,omitempty"`
	Confidence       float64 `json:"confidence,omitempty"`
	LegalProblemCode string  `json:"legal_problem_code,omitempty"`
}

// ConflictResult is the outcome of the conflict-of-interest gate.
type ConflictResult struct {
	Result
	HasHighestConflict bool                   `json:"has_highest_conflict"`
	Responses          ConflictCheckResponses `json:"responses"`
	OpposingParties    PotentialConflicts     `json:"opposing_parties"`
}

// DomesticViolenceResult is the outcome of the domestic-violence step.
type DomesticViolenceResult struct {
	Result
	IsExperiencing bool     `json:"is_experiencing"`
	Perpetrators   []string `json:"perpetrators"`
}

// IncomeResult is the outcome of the household-income gate.
type IncomeResult struct {
	Result
	IsEligible    bool            `json:"is_eligible"`
	MonthlyAmount int             `json:"monthly_amount"`
	Listing       HouseholdIncome `json:"listing"`
	HouseholdSize int             `json:"household_size"`
}

// AssetsResult is the outcome of the asset gate. ReceivesBenefits short-cuts
// the asset listing entirely.
type AssetsResult struct {
	Result
	IsEligible       bool   `json:"is_eligible"`
	Listing          Assets `json:"listing"`
	TotalValue       int    `json:"total_value"`
	ReceivesBenefits bool   `json:"receives_benefits"`
}

// CitizenshipResult is the outcome of the citizenship step.
type CitizenshipResult struct {
	Result
	IsCitizen bool `json:"is_citizen"`
}

// EmergencyResult is the outcome of the emergency step.
type EmergencyResult struct {
	Result
	IsEmergency bool `json:"is_emergency"`
}
