// Package validate turns a document's extraction results into an
// intake triage decision: clean submissions pass through, clearly bad
// ones are rejected with reasons, and everything uncertain goes to a
// person.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/teampbs/caqh-intake/internal/dateutil"
	"github.com/teampbs/caqh-intake/internal/extract"
)

// Status is the triage outcome for one document.
type Status string

const (
	StatusLooksGood        Status = "looks_good"
	StatusRejected         Status = "rejected"
	StatusNeedsHumanReview Status = "needs_human_review"
)

// Reason categorizes why a document was not clean.
type Reason string

const (
	ReasonWrongDocument  Reason = "wrong_document"
	ReasonMissingField   Reason = "missing_field"
	ReasonInvalidFormat  Reason = "invalid_format"
	ReasonExpiredLicense Reason = "expired_license"
	ReasonWrongOrg       Reason = "wrong_organization"
	ReasonLowConfidence  Reason = "low_confidence"
)

// FieldCheck records one field's validation outcome.
type FieldCheck struct {
	FieldName string `json:"field_name"`
	Valid     bool   `json:"valid"`
	Reason    Reason `json:"reason,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Decision is the triage verdict for a document.
type Decision struct {
	Status        Status       `json:"status"`
	Reasons       []string     `json:"reasons,omitempty"`
	Checks        []FieldCheck `json:"field_checks,omitempty"`
	AvgConfidence float64      `json:"avg_confidence"`
}

var (
	ssnRe      = regexp.MustCompile(`^\d{3}-?\d{2}-?\d{4}$`)
	npiRe      = regexp.MustCompile(`^\d{10}$`)
	medicaidRe = regexp.MustCompile(`^\d{6,12}$`)
)

// expectedOrgPrefix is the organization every submission must belong
// to.
const expectedOrgPrefix = "positive behavior supports"

// Validator evaluates extraction results. MinConfidence is the average
// confidence below which a document goes to review even when every
// format check passes.
type Validator struct {
	MinConfidence float64
	Now           func() time.Time
}

func NewValidator() *Validator {
	return &Validator{MinConfidence: 0.70, Now: time.Now}
}

// Evaluate produces the triage decision for one document result.
func (v *Validator) Evaluate(result *extract.DocumentResult) Decision {
	if !result.IsCAQHDocument {
		return Decision{
			Status:  StatusRejected,
			Reasons: []string{fmt.Sprintf("%s: %s", ReasonWrongDocument, strings.Join(result.Errors, "; "))},
		}
	}

	d := Decision{Status: StatusLooksGood}
	review := false
	var sum float64
	extracted := 0

	for _, fr := range result.Fields {
		check := v.checkField(fr)
		d.Checks = append(d.Checks, check)

		if !fr.Extracted() {
			review = true
			d.Reasons = append(d.Reasons, fmt.Sprintf("%s: %s", ReasonMissingField, fr.FieldName))
			continue
		}
		sum += fr.Confidence
		extracted++

		if !check.Valid {
			switch check.Reason {
			case ReasonExpiredLicense, ReasonInvalidFormat, ReasonWrongOrg:
				d.Status = StatusRejected
			default:
				review = true
			}
			d.Reasons = append(d.Reasons, fmt.Sprintf("%s: %s", check.Reason, check.Detail))
		}
	}

	if extracted > 0 {
		d.AvgConfidence = sum / float64(extracted)
	}
	if d.Status == StatusRejected {
		return d
	}
	if d.AvgConfidence < v.MinConfidence {
		review = true
		d.Reasons = append(d.Reasons,
			fmt.Sprintf("%s: average confidence %.2f below %.2f", ReasonLowConfidence, d.AvgConfidence, v.MinConfidence))
	}
	if review {
		d.Status = StatusNeedsHumanReview
	}
	return d
}

// checkField applies the per-field format rules. Fields without a rule
// pass by default.
func (v *Validator) checkField(fr extract.FieldResult) FieldCheck {
	check := FieldCheck{FieldName: fr.FieldName, Valid: true}
	if !fr.Extracted() {
		check.Valid = false
		check.Reason = ReasonMissingField
		check.Detail = "no value extracted"
		return check
	}

	switch fr.FieldName {
	case "ssn":
		if !ssnRe.MatchString(fr.Value) {
			check.fail(ReasonInvalidFormat, fmt.Sprintf("SSN %q is not a 9-digit social security number", fr.Value))
		}
	case "individual_npi", "organizational_npi":
		switch {
		case !npiRe.MatchString(fr.Value):
			check.fail(ReasonInvalidFormat, fmt.Sprintf("NPI %q is not 10 digits", fr.Value))
		case !validNPICheckDigit(fr.Value):
			check.fail(ReasonInvalidFormat, fmt.Sprintf("NPI %q fails its check digit", fr.Value))
		}
	case "medicaid_id":
		if !medicaidRe.MatchString(fr.Value) {
			check.fail(ReasonInvalidFormat, fmt.Sprintf("Medicaid ID %q is not 6-12 digits", fr.Value))
		}
	case "professional_license_expiration_date", "insurance_expiration_date":
		t, ok := dateutil.Parse(fr.Value, dateutil.DefaultFormats)
		switch {
		case !ok:
			check.fail(ReasonInvalidFormat, fmt.Sprintf("date %q does not parse", fr.Value))
		case !dateutil.IsFuture(t, v.Now()):
			check.fail(ReasonExpiredLicense,
				fmt.Sprintf("%s expired %d days ago", fr.FieldName, dateutil.DaysBetween(t, v.Now())))
		}
	case "practice_location_name":
		if !strings.Contains(strings.ToLower(fr.Value), expectedOrgPrefix) {
			check.fail(ReasonWrongOrg, fmt.Sprintf("organization %q is not a recognized practice", fr.Value))
		}
	}
	return check
}

func (c *FieldCheck) fail(reason Reason, detail string) {
	c.Valid = false
	c.Reason = reason
	c.Detail = detail
}

// validNPICheckDigit runs the Luhn check over the NPI with the 80840
// issuer prefix, per the NPPES standard.
func validNPICheckDigit(npi string) bool {
	full := "80840" + npi[:9]
	sum := 0
	double := true
	for i := len(full) - 1; i >= 0; i-- {
		d := int(full[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	checkDigit := (10 - sum%10) % 10
	return int(npi[9]-'0') == checkDigit
}
