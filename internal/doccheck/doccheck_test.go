package doccheck

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// caqhText builds text that passes the length floor and carries the
// Data Summary identity markers.
func caqhText() string {
	var b strings.Builder
	b.WriteString("CAQH ProView Data Summary\nProvider: Jane Smith\n\n")
	b.WriteString("PERSONAL INFORMATION\nName, address, and contact details.\n\n")
	b.WriteString("PROFESSIONAL IDS\nLicense and identifier listing.\n\n")
	b.WriteString("PRACTICE LOCATIONS\nOffices and schedules.\n\n")
	for b.Len() < MinTextLength+100 {
		b.WriteString("Additional provider detail rows for the summary body. ")
	}
	return b.String()
}

func pad(text string) string {
	return text + strings.Repeat("filler content for the length floor. ", 80)
}

func TestCheck_ValidCAQHDocument(t *testing.T) {
	c := NewChecker()

	result := c.Check(caqhText())
	assert.True(t, result.IsCAQH)
	assert.Equal(t, TypeCAQHDataSummary, result.DocumentType)
	assert.Equal(t, RecommendProcess, result.Recommendation)
	assert.GreaterOrEqual(t, result.Confidence, 0.9)
	assert.Len(t, result.MarkersFound, 3)
	assert.GreaterOrEqual(t, len(result.SectionsFound), 2)
}

func TestCheck_TooShort(t *testing.T) {
	c := NewChecker()

	result := c.Check("CAQH Data Summary")
	assert.False(t, result.IsCAQH)
	assert.Equal(t, TypeTooShort, result.DocumentType)
	assert.Equal(t, RecommendReview, result.Recommendation)
	assert.Contains(t, result.Reason, "below")
}

func TestCheck_WrongDocumentTypes(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantType DocumentType
	}{
		{
			name:     "resume",
			text:     pad("Curriculum Vitae\nJane Smith\nWork experience and education follow."),
			wantType: TypeResume,
		},
		{
			name:     "invoice",
			text:     pad("Invoice Number: 4471\nBill to: Behavior Services LLC\nAmount due on receipt."),
			wantType: TypeInvoice,
		},
		{
			name:     "tax form",
			text:     pad("Form W-9\nRequest for Taxpayer Identification Number and Certification"),
			wantType: TypeTaxForm,
		},
		{
			name:     "license certificate",
			text:     pad("The bearer is hereby licensed to practice behavior analysis in this state."),
			wantType: TypeLicenseCertificate,
		},
		{
			name:     "contract",
			text:     pad("This Agreement is entered into by the parties under the terms and conditions below."),
			wantType: TypeContract,
		},
	}

	c := NewChecker()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Check(tt.text)
			require.False(t, result.IsCAQH)
			assert.Equal(t, tt.wantType, result.DocumentType)
			assert.Equal(t, RecommendReject, result.Recommendation)
			assert.Contains(t, result.Reason, "not a CAQH Data Summary")
		})
	}
}

func TestCheck_UnknownDocument(t *testing.T) {
	c := NewChecker()

	result := c.Check(pad("Meeting notes from the quarterly review, action items attached."))
	assert.False(t, result.IsCAQH)
	assert.Equal(t, TypeUnknown, result.DocumentType)
	assert.Equal(t, RecommendReview, result.Recommendation)
}

func TestCheck_ResumeMentioningCAQH(t *testing.T) {
	// A resume that merely mentions CAQH must still be rejected as a
	// resume; partial markers do not make it a Data Summary.
	c := NewChecker()

	result := c.Check(pad("Resume of Jane Smith\nMaintained the group's CAQH profiles.\nEducation follows."))
	assert.False(t, result.IsCAQH)
	assert.Equal(t, TypeResume, result.DocumentType)
}

func TestCheck_MarkersCaseInsensitive(t *testing.T) {
	c := NewChecker()

	text := strings.ToLower(caqhText())
	result := c.Check(text)
	assert.True(t, result.IsCAQH)
}
