package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teampbs/caqh-intake/internal/extract"
)

// fixedNow keeps expiration checks deterministic.
var fixedNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func testValidator() *Validator {
	v := NewValidator()
	v.Now = func() time.Time { return fixedNow }
	return v
}

func field(name, value string, conf float64) extract.FieldResult {
	return extract.FieldResult{
		FieldName:  name,
		Value:      value,
		Confidence: conf,
		Method:     extract.MethodPatternAfter,
	}
}

func goodDocument() *extract.DocumentResult {
	return &extract.DocumentResult{
		IsCAQHDocument: true,
		Fields: []extract.FieldResult{
			field("medicaid_id", "123456789", 0.95),
			field("ssn", "123-45-6789", 0.92),
			field("individual_npi", "1234567893", 0.90),
			field("practice_location_name", "Positive Behavior Supports Corporation - Tampa", 0.95),
			field("professional_license_expiration_date", "06/30/2026", 0.88),
		},
	}
}

func TestEvaluate_LooksGood(t *testing.T) {
	v := testValidator()

	d := v.Evaluate(goodDocument())
	assert.Equal(t, StatusLooksGood, d.Status)
	assert.Empty(t, d.Reasons)
	assert.Greater(t, d.AvgConfidence, 0.85)
	for _, check := range d.Checks {
		assert.True(t, check.Valid, "field %s failed: %s", check.FieldName, check.Detail)
	}
}

func TestEvaluate_WrongDocumentRejected(t *testing.T) {
	v := testValidator()

	doc := &extract.DocumentResult{
		IsCAQHDocument: false,
		Errors:         []string{"document appears to be a resume, not a CAQH Data Summary"},
	}
	d := v.Evaluate(doc)
	assert.Equal(t, StatusRejected, d.Status)
	require.Len(t, d.Reasons, 1)
	assert.Contains(t, d.Reasons[0], "wrong_document")
}

func TestEvaluate_MissingFieldNeedsReview(t *testing.T) {
	v := testValidator()

	doc := goodDocument()
	doc.Fields[0] = extract.FieldResult{
		FieldName: "medicaid_id",
		Method:    extract.MethodLabelNotFound,
	}
	d := v.Evaluate(doc)
	assert.Equal(t, StatusNeedsHumanReview, d.Status)
	require.NotEmpty(t, d.Reasons)
	assert.Contains(t, d.Reasons[0], "missing_field")
	assert.Contains(t, d.Reasons[0], "medicaid_id")
}

func TestEvaluate_ExpiredLicenseRejected(t *testing.T) {
	v := testValidator()

	doc := goodDocument()
	doc.Fields[4] = field("professional_license_expiration_date", "01/01/2020", 0.88)
	d := v.Evaluate(doc)
	assert.Equal(t, StatusRejected, d.Status)
	require.NotEmpty(t, d.Reasons)
	assert.Contains(t, d.Reasons[0], "expired")
}

func TestEvaluate_InvalidFormatsRejected(t *testing.T) {
	tests := []struct {
		name  string
		field extract.FieldResult
	}{
		{"bad ssn", field("ssn", "12-345-678", 0.9)},
		{"short npi", field("individual_npi", "12345", 0.9)},
		{"npi bad check digit", field("individual_npi", "1234567890", 0.9)},
		{"medicaid too short", field("medicaid_id", "123", 0.9)},
		{"unparseable date", field("professional_license_expiration_date", "soon", 0.9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testValidator()
			doc := goodDocument()
			for i := range doc.Fields {
				if doc.Fields[i].FieldName == tt.field.FieldName {
					doc.Fields[i] = tt.field
				}
			}
			d := v.Evaluate(doc)
			assert.Equal(t, StatusRejected, d.Status)
		})
	}
}

func TestEvaluate_WrongOrganizationRejected(t *testing.T) {
	v := testValidator()

	doc := goodDocument()
	doc.Fields[3] = field("practice_location_name", "Sunrise Therapy Group", 0.9)
	d := v.Evaluate(doc)
	assert.Equal(t, StatusRejected, d.Status)
	require.NotEmpty(t, d.Reasons)
	assert.Contains(t, d.Reasons[0], "wrong_organization")
}

func TestEvaluate_LowConfidenceNeedsReview(t *testing.T) {
	v := testValidator()

	doc := goodDocument()
	for i := range doc.Fields {
		doc.Fields[i].Confidence = 0.4
	}
	d := v.Evaluate(doc)
	assert.Equal(t, StatusNeedsHumanReview, d.Status)
	require.NotEmpty(t, d.Reasons)
	assert.Contains(t, d.Reasons[0], "low_confidence")
}

func TestValidNPICheckDigit(t *testing.T) {
	// 1234567893 is the NPPES documentation example.
	assert.True(t, validNPICheckDigit("1234567893"))
	assert.False(t, validNPICheckDigit("1234567890"))
	assert.False(t, validNPICheckDigit("1234567894"))
}
