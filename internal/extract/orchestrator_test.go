package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teampbs/caqh-intake/internal/fieldcfg"
)

// sampleSummary is a condensed but structurally faithful Data Summary:
// identity markers, section headers, and label/value rows.
func sampleSummary() string {
	var b strings.Builder
	b.WriteString(`--- Page 1 ---
CAQH ProView Data Summary
Provider: Jane Smith

PERSONAL INFORMATION
Name: Jane Smith
Social Security Number: 123-45-6789
Medicaid ID: 123456789
Date of Birth: 01/01/1980
Home Address: 12 Palm Ave, Tampa FL

PROFESSIONAL IDS
Individual NPI: 1234567893
License Number: BA12345
Expiration Date: 06/30/2030

PRACTICE LOCATIONS
Practice Name: Positive Behavior Supports Corporation - Tampa
Street 1: 100 Main St

INSURANCE INFORMATION
Policy Number: NEW-222
Expiration Date: 12/01/2031
`)
	for b.Len() < 2200 {
		b.WriteString("Additional summary body content for the provider record. ")
	}
	return b.String()
}

func testOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	rules, err := fieldcfg.LoadDefault()
	require.NoError(t, err)
	return NewOrchestrator(rules, DefaultRegistry(testExtractor()), nil, nil)
}

func TestProcess_DefaultFields(t *testing.T) {
	o := testOrchestrator(t)

	result := o.Process("/intake/summary.pdf", sampleSummary(), nil)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "summary.pdf", result.Filename)
	assert.True(t, result.IsCAQHDocument)
	assert.Equal(t, len(DefaultFields), result.FieldsAttempted)
	require.Len(t, result.Fields, len(DefaultFields))
	assert.Equal(t, len(DefaultFields), result.FieldsExtracted)
	assert.Equal(t, DocumentMethodNativePDF, result.Method)

	byName := map[string]FieldResult{}
	for _, fr := range result.Fields {
		byName[fr.FieldName] = fr
	}
	assert.Equal(t, "123456789", byName["medicaid_id"].Value)
	assert.Equal(t, "123-45-6789", byName["ssn"].Value)
	assert.Equal(t, "1234567893", byName["individual_npi"].Value)
	assert.Equal(t, "Positive Behavior Supports Corporation - Tampa", byName["practice_location_name"].Value)
	assert.Equal(t, "06/30/2030", byName["professional_license_expiration_date"].Value)
}

func TestProcess_OneResultPerRequestedField(t *testing.T) {
	o := testOrchestrator(t)

	fields := []string{"ssn", "no_such_field", "medicaid_id", "also_missing"}
	result := o.Process("x.pdf", sampleSummary(), fields)
	require.Len(t, result.Fields, len(fields))
	for i, fr := range result.Fields {
		assert.Equal(t, fields[i], fr.FieldName)
	}
	assert.Equal(t, MethodNoConfig, result.Fields[1].Method)
	assert.Equal(t, MethodNoConfig, result.Fields[3].Method)
	assert.Equal(t, 2, result.FieldsExtracted)
}

func TestProcess_WrongDocumentShortCircuits(t *testing.T) {
	o := testOrchestrator(t)

	resume := "Curriculum Vitae\nJane Smith\n" + strings.Repeat("Prior roles and education. ", 100)
	result := o.Process("resume.pdf", resume, nil)
	assert.False(t, result.IsCAQHDocument)
	assert.Equal(t, DocumentMethodWrongDocument, result.Method)
	assert.Equal(t, 0, result.FieldsExtracted)
	require.Len(t, result.Fields, len(DefaultFields))
	for _, fr := range result.Fields {
		assert.Equal(t, MethodWrongDocument, fr.Method)
		assert.Equal(t, 0.0, fr.Confidence)
		assert.False(t, fr.Extracted())
		require.NotEmpty(t, fr.Errors)
	}
	require.NotEmpty(t, result.Errors)
}

type countingStrategy struct {
	calls *int
}

func (s countingStrategy) Extract(_ *Document, name string, _ fieldcfg.Field) FieldResult {
	*s.calls++
	return FieldResult{FieldName: name}
}

func TestProcess_RejectedDocumentRunsNoStrategies(t *testing.T) {
	rules, err := fieldcfg.LoadDefault()
	require.NoError(t, err)

	calls := 0
	registry := NewRegistry(testExtractor())
	for _, name := range DefaultFields {
		registry.Register(name, countingStrategy{calls: &calls})
	}
	o := NewOrchestrator(rules, registry, nil, nil)

	o.Process("resume.pdf", "Curriculum Vitae\n"+strings.Repeat("Roles held. ", 200), nil)
	assert.Equal(t, 0, calls)
}

func TestProcess_SkipGateStillExtracts(t *testing.T) {
	o := testOrchestrator(t)
	o.SkipGate = true

	short := "Medicaid ID: 123456789"
	result := o.Process("fragment.pdf", short, []string{"medicaid_id"})
	assert.True(t, result.IsCAQHDocument)
	require.Len(t, result.Fields, 1)
	assert.Equal(t, "123456789", result.Fields[0].Value)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "gate bypassed")
}

func TestProcess_OCRMethodDetection(t *testing.T) {
	o := testOrchestrator(t)

	text := strings.Replace(sampleSummary(), "--- Page 1 ---", "--- Page 1 (OCR) ---", 1)
	result := o.Process("scan.pdf", text, []string{"ssn"})
	assert.Equal(t, DocumentMethodOCR, result.Method)
}

type panicStrategy struct{}

func (panicStrategy) Extract(_ *Document, _ string, _ fieldcfg.Field) FieldResult {
	panic("rule misfire")
}

func TestProcess_PanicContainment(t *testing.T) {
	rules, err := fieldcfg.LoadDefault()
	require.NoError(t, err)

	registry := NewRegistry(testExtractor())
	registry.Register("ssn", panicStrategy{})
	o := NewOrchestrator(rules, registry, nil, nil)

	result := o.Process("x.pdf", sampleSummary(), []string{"ssn", "medicaid_id"})
	require.Len(t, result.Fields, 2)

	assert.Equal(t, MethodFailed, result.Fields[0].Method)
	require.NotEmpty(t, result.Fields[0].Errors)
	assert.Contains(t, result.Fields[0].Errors[0], "rule misfire")

	// The panic in one field must not affect its neighbors.
	assert.Equal(t, "123456789", result.Fields[1].Value)
}

func TestProcess_Idempotent(t *testing.T) {
	o := testOrchestrator(t)

	text := sampleSummary()
	first := o.Process("a.pdf", text, nil)
	second := o.Process("a.pdf", text, nil)

	assert.NotEqual(t, first.ID, second.ID)
	require.Len(t, second.Fields, len(first.Fields))
	for i := range first.Fields {
		assert.Equal(t, first.Fields[i], second.Fields[i])
	}
}

func TestFailed(t *testing.T) {
	o := testOrchestrator(t)

	result := o.Failed("/intake/broken.pdf", errors.New("open pdf: truncated xref"))
	assert.Equal(t, DocumentMethodReadFailed, result.Method)
	assert.Equal(t, "broken.pdf", result.Filename)
	assert.Equal(t, 0, result.FieldsAttempted)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "truncated xref")
}

func TestSummarize(t *testing.T) {
	o := testOrchestrator(t)

	result := o.Process("a.pdf", sampleSummary(), nil)
	s := Summarize(result)
	assert.Equal(t, len(DefaultFields), s.TotalFields)
	assert.Equal(t, result.FieldsExtracted, s.FieldsExtracted)
	assert.InDelta(t, 100.0, s.ExtractionRate, 0.001)
	assert.Greater(t, s.AvgConfidence, 0.8)
	assert.Equal(t, DocumentMethodNativePDF, s.PrimaryMethod)
}
