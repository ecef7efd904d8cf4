// Package validate implements the eligibility validators behind the intake
// flow: phone normalization, service-area matching, poverty-scale income
// limits, asset appraisal, case-type classification, and conflict checking.
package validate

import (
	"github.com/nyaruka/phonenumbers"
)

// phoneRegion pins validation to the North American Numbering Plan.
const phoneRegion = "US"

// CheckPhoneNumber parses raw as a US telephone number, tolerating embedded
// punctuation, spaces, and a leading country code. It returns whether the
// number is a plausible, assignable US number and, when valid, the number in
// canonical national format, e.g. "(866) 534-5243". On failure the original
// input is returned unchanged; malformed input is a normal case, not an error.
func CheckPhoneNumber(raw string) (bool, string) {
	parsed, err := phonenumbers.Parse(raw, phoneRegion)
	if err != nil {
		return false, raw
	}
	if !phonenumbers.IsValidNumber(parsed) || phonenumbers.GetRegionCodeForNumber(parsed) != phoneRegion {
		return false, raw
	}
	return true, phonenumbers.Format(parsed, phonenumbers.NATIONAL)
}
