// Package doccheck decides whether extracted text came from a CAQH
// Data Summary before any field extraction runs. Intake folders collect
// resumes, W-9s, and license scans alongside the summary; extracting
// fields from those produces plausible-looking garbage, so the check
// runs as a hard gate.
package doccheck

import (
	"fmt"
	"regexp"
	"strings"
)

// DocumentType classifies the text the checker saw.
type DocumentType string

const (
	TypeCAQHDataSummary    DocumentType = "caqh_data_summary"
	TypeResume             DocumentType = "resume"
	TypeInvoice            DocumentType = "invoice"
	TypeTaxForm            DocumentType = "tax_form"
	TypeLicenseCertificate DocumentType = "license_certificate"
	TypeContract           DocumentType = "contract"
	TypeTooShort           DocumentType = "too_short"
	TypeUnknown            DocumentType = "unknown"
)

// Recommendation tells the caller what to do with the document.
type Recommendation string

const (
	RecommendProcess Recommendation = "process"
	RecommendReject  Recommendation = "reject"
	RecommendReview  Recommendation = "review"
)

// MinTextLength is the least amount of text a real Data Summary
// produces; anything shorter is a failed read or a fragment.
const MinTextLength = 2000

// requiredMarkers appear on every CAQH Data Summary.
var requiredMarkers = []string{"CAQH", "Data Summary", "Provider"}

// expectedSections are the major headings of the summary; a genuine
// document shows at least two of them.
var expectedSections = []string{
	"Personal Information",
	"Professional IDs",
	"Education",
	"Practice Locations",
	"Insurance Information",
}

const minSections = 2

// wrongDocPatterns recognize the document types most commonly misfiled
// into intake folders.
var wrongDocPatterns = []struct {
	re      *regexp.Regexp
	docType DocumentType
	label   string
}{
	{regexp.MustCompile(`(?i)\b(?:resume|curriculum\s+vitae)\b`), TypeResume, "a resume"},
	{regexp.MustCompile(`(?i)\binvoice\s*(?:#|number|date)`), TypeInvoice, "an invoice"},
	{regexp.MustCompile(`(?i)\bForm\s+W-?9\b|\bRequest\s+for\s+Taxpayer`), TypeTaxForm, "a tax form"},
	{regexp.MustCompile(`(?i)certificate\s+of\s+(?:licensure|completion)|is\s+hereby\s+licensed`), TypeLicenseCertificate, "a license certificate"},
	{regexp.MustCompile(`(?i)\bthis\s+agreement\b|\bterms\s+and\s+conditions\b`), TypeContract, "a contract"},
}

// Result is the outcome of a document check.
type Result struct {
	IsCAQH         bool           `json:"is_caqh_document"`
	DocumentType   DocumentType   `json:"document_type"`
	Confidence     float64        `json:"confidence"`
	Reason         string         `json:"reason"`
	Recommendation Recommendation `json:"recommendation"`
	MarkersFound   []string       `json:"markers_found,omitempty"`
	SectionsFound  []string       `json:"sections_found,omitempty"`
}

// Checker validates document identity from reconstructed text.
type Checker struct{}

func NewChecker() *Checker { return &Checker{} }

// Check classifies the text. It never returns an error; an unreadable
// or empty input comes back as too_short.
func (c *Checker) Check(text string) Result {
	if len(text) < MinTextLength {
		return Result{
			DocumentType:   TypeTooShort,
			Reason:         fmt.Sprintf("document text is %d characters, below the %d minimum for a Data Summary", len(text), MinTextLength),
			Recommendation: RecommendReview,
		}
	}

	lower := strings.ToLower(text)
	var markers []string
	for _, m := range requiredMarkers {
		if strings.Contains(lower, strings.ToLower(m)) {
			markers = append(markers, m)
		}
	}
	var sections []string
	for _, s := range expectedSections {
		if strings.Contains(lower, strings.ToLower(s)) {
			sections = append(sections, s)
		}
	}

	if len(markers) == len(requiredMarkers) && len(sections) >= minSections {
		return Result{
			IsCAQH:         true,
			DocumentType:   TypeCAQHDataSummary,
			Confidence:     0.95,
			Reason:         fmt.Sprintf("all identity markers present with %d known sections", len(sections)),
			Recommendation: RecommendProcess,
			MarkersFound:   markers,
			SectionsFound:  sections,
		}
	}

	for _, p := range wrongDocPatterns {
		if p.re.MatchString(text) && len(markers) < len(requiredMarkers) {
			return Result{
				DocumentType:   p.docType,
				Confidence:     0.85,
				Reason:         fmt.Sprintf("document appears to be %s, not a CAQH Data Summary", p.label),
				Recommendation: RecommendReject,
				MarkersFound:   markers,
				SectionsFound:  sections,
			}
		}
	}

	if len(markers) >= 2 && len(sections) >= minSections {
		return Result{
			IsCAQH:         true,
			DocumentType:   TypeCAQHDataSummary,
			Confidence:     0.75,
			Reason:         fmt.Sprintf("%d of %d identity markers and %d known sections present", len(markers), len(requiredMarkers), len(sections)),
			Recommendation: RecommendProcess,
			MarkersFound:   markers,
			SectionsFound:  sections,
		}
	}

	return Result{
		DocumentType:   TypeUnknown,
		Confidence:     0.5,
		Reason:         fmt.Sprintf("only %d of %d identity markers and %d known sections found", len(markers), len(requiredMarkers), len(sections)),
		Recommendation: RecommendReview,
		MarkersFound:   markers,
		SectionsFound:  sections,
	}
}
