// Package models defines caller-supplied argument payloads extracted by the
// dialogue agent and validated before any eligibility computation runs.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Validation error variables shared by argument payloads.
var (
	ErrInvalidIncomePeriod     = errors.New(`income period must be "month" or "year"`)
	ErrEmptyHousehold          = errors.New("household income must list at least one member")
	ErrEmptyMemberIncome       = errors.New("household member must list at least one income type")
	ErrMissingPartyName        = errors.New("opposing party requires a first and last name")
	ErrInvalidPhoneType        = errors.New("invalid phone type")
	ErrInvalidDateOfBirth      = errors.New("date of birth must be YYYY-MM-DD")
	ErrInvalidConflictInterval = errors.New("invalid conflict interval")
	ErrConflictScoreOutOfRange = errors.New("conflict score must be between 0 and 100")
)

// IncomePeriod enumerates the accepted income reporting periods.
type IncomePeriod string

const (
	IncomePeriodMonth IncomePeriod = "month"
	IncomePeriodYear  IncomePeriod = "year"
)

// IncomeDetail is one income source: an amount and its reporting period.
type IncomeDetail struct {
	Amount int          `json:"amount"`
	Period IncomePeriod `json:"period"`
}

// Validate checks the reporting period. Amounts are not range-checked here;
// aggregation is arithmetic and tolerates whatever the caller declared.
func (d IncomeDetail) Validate() error {
	switch d.Period {
	case IncomePeriodMonth, IncomePeriodYear:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidIncomePeriod, d.Period)
	}
}

// MemberIncome maps an income-type label to its detail for one household member.
type MemberIncome map[string]IncomeDetail

// HouseholdIncome maps a household member's name to their income sources.
// The household size used for the poverty-scale limit is the number of
// distinct member names.
type HouseholdIncome map[string]MemberIncome

// Validate checks every income entry across all members.
func (h HouseholdIncome) Validate() error {
	if len(h) == 0 {
		return ErrEmptyHousehold
	}
	for member, income := range h {
		if len(income) == 0 {
			return fmt.Errorf("%w: %q", ErrEmptyMemberIncome, member)
		}
		for incomeType, detail := range income {
			if err := detail.Validate(); err != nil {
				return fmt.Errorf("%s / %s: %w", member, incomeType, err)
			}
		}
	}
	return nil
}

// AssetEntry maps a single asset name to its net present value in dollars.
// Example: {"car": 5000}. Negative values are permitted and subtract from
// the total; appraisal is arithmetic, not semantic.
type AssetEntry map[string]int

// Assets is the caller's declared asset listing.
type Assets []AssetEntry

// PhoneType enumerates phone-number kinds accepted by the conflict check.
type PhoneType string

const (
	PhoneTypeBusiness PhoneType = "business"
	PhoneTypeHome     PhoneType = "home"
	PhoneTypeMobile   PhoneType = "mobile"
	PhoneTypeFax      PhoneType = "fax"
	PhoneTypeOther    PhoneType = "other"
)

// Phone is a phone number attached to an opposing party.
type Phone struct {
	Number string    `json:"number"`
	Type   PhoneType `json:"type"`
}

// Validate checks the phone type. Number normalization happens in the
// validator layer, which owns the NANP rules.
func (p Phone) Validate() error {
	switch p.Type {
	case PhoneTypeBusiness, PhoneTypeHome, PhoneTypeMobile, PhoneTypeFax, PhoneTypeOther:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPhoneType, p.Type)
	}
}

// PotentialConflict identifies one opposing party for the conflict check.
type PotentialConflict struct {
	First      string  `json:"first"`
	Middle     string  `json:"middle,omitempty"`
	Last       string  `json:"last"`
	DOB        string  `json:"dob,omitempty"`
	VisaNumber string  `json:"visa_number,omitempty"`
	Phones     []Phone `json:"phones,omitempty"`
}

// Validate checks required names, the date-of-birth format, and phone types.
func (c PotentialConflict) Validate() error {
	if c.First == "" || c.Last == "" {
		return ErrMissingPartyName
	}
	if c.DOB != "" {
		if _, err := time.Parse("2006-01-02", c.DOB); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidDateOfBirth, c.DOB)
		}
	}
	for _, phone := range c.Phones {
		if err := phone.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PotentialConflicts is the list of opposing parties named by the caller.
type PotentialConflicts []PotentialConflict

// Validate checks every listed party.
func (pc PotentialConflicts) Validate() error {
	for i, c := range pc {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("opposing party %d: %w", i, err)
		}
	}
	return nil
}

// ConflictInterval buckets a conflict-check score by severity.
type ConflictInterval string

const (
	ConflictIntervalLowest  ConflictInterval = "lowest"
	ConflictIntervalLow     ConflictInterval = "low"
	ConflictIntervalHigh    ConflictInterval = "high"
	ConflictIntervalHighest ConflictInterval = "highest"
)

// ConflictCheckResponse is one conflict-check answer for one opposing party.
type ConflictCheckResponse struct {
	Status   int              `json:"status"`
	Message  string           `json:"message"`
	Interval ConflictInterval `json:"interval"`
	Score    int              `json:"score"`
}

// Validate checks the interval bucket and score range.
func (r ConflictCheckResponse) Validate() error {
	switch r.Interval {
	case ConflictIntervalLowest, ConflictIntervalLow, ConflictIntervalHigh, ConflictIntervalHighest:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidConflictInterval, r.Interval)
	}
	if r.Score < 0 || r.Score > 100 {
		return fmt.Errorf("%w: %d", ErrConflictScoreOutOfRange, r.Score)
	}
	return nil
}

// ConflictCheckResponses tallies conflict-check answers across all parties.
type ConflictCheckResponses struct {
	Counts  map[ConflictInterval]int `json:"counts"`
	Results []ConflictCheckResponse  `json:"results"`
}

// NewConflictCheckResponses returns an empty tally with all buckets present.
func NewConflictCheckResponses() ConflictCheckResponses {
	return ConflictCheckResponses{
		Counts: map[ConflictInterval]int{
			ConflictIntervalLowest:  0,
			ConflictIntervalLow:     0,
			ConflictIntervalHigh:    0,
			ConflictIntervalHighest: 0,
		},
	}
}

// Add records one response in the tally.
func (rs *ConflictCheckResponses) Add(r ConflictCheckResponse) {
	if rs.Counts == nil {
		rs.Counts = NewConflictCheckResponses().Counts
	}
	rs.Results = append(rs.Results, r)
	rs.Counts[r.Interval]++
}

// Label is a predicted case-type taxonomy label with optional confidence.
type Label struct {
	Label            string  `json:"label"`
	Confidence       float64 `json:"confidence,omitempty"`
	LegalProblemCode string  `json:"legal_problem_code,omitempty"`
}

// FollowUpQuestion refines an ambiguous case-type classification.
type FollowUpQuestion struct {
	Question string   `json:"question"`
	Format   string   `json:"format,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// ClassificationResponse is the payload returned by the case-type
/// classification service: ranked labels plus optional follow-up questions.
type ClassificationResponse struct {
	Labels            []Label            `json:"labels"`
	FollowUpQuestions []FollowUpQuestion `json:"follow_up_questions,omitempty"`
}
