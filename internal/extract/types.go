package extract

import (
	"time"
)

// Method identifies the code path that produced a field value.
type Method string

const (
	// MethodPatternAfter is a value-pattern match in the window after
	// the label.
	MethodPatternAfter Method = "pattern_after"
	// MethodPatternBefore is a value-pattern match in the window
	// before the label.
	MethodPatternBefore Method = "pattern_before"
	// MethodLineHeuristic is the line-based fallback used when no
	// pattern match exists and the field permits it.
	MethodLineHeuristic Method = "line_heuristic"
	// MethodOrgName is the organization-name strategy.
	MethodOrgName Method = "org_name"
	// MethodInsuranceBlock is the repeated-policy-block strategy.
	MethodInsuranceBlock Method = "insurance_block"
	// MethodFutureDate is the future-date selection strategy.
	MethodFutureDate Method = "future_date"
	// MethodLabelNotFound means none of the configured labels appear
	// in the document.
	MethodLabelNotFound Method = "label_not_found"
	// MethodLabelOnly means a label was found but no value could be
	// extracted near it.
	MethodLabelOnly Method = "label_only"
	// MethodPatternMissing means a label was found but the mandatory
	// value pattern never matched.
	MethodPatternMissing Method = "pattern_missing"
	// MethodSiblingFiltered means every candidate was discarded
	// because its context belonged to a lookalike sibling field.
	MethodSiblingFiltered Method = "sibling_filtered"
	// MethodWrongDocument marks fields skipped because the document
	// failed the type gate.
	MethodWrongDocument Method = "wrong_document"
	// MethodNoConfig marks fields with no entry in the rules table.
	MethodNoConfig Method = "no_config"
	// MethodFailed marks a field whose extraction panicked.
	MethodFailed Method = "failed"
)

// DocumentMethod identifies the primary extraction path for a document.
type DocumentMethod string

const (
	DocumentMethodNativePDF     DocumentMethod = "native_pdf"
	DocumentMethodOCR           DocumentMethod = "ocr"
	DocumentMethodWrongDocument DocumentMethod = "wrong_document"
	DocumentMethodReadFailed    DocumentMethod = "read_failed"
)

// Direction records where a candidate value sat relative to its label.
type Direction string

const (
	DirectionAfter         Direction = "after"
	DirectionBefore        Direction = "before"
	DirectionBidirectional Direction = "bidirectional"
	DirectionDerived       Direction = "derived"
)

// Candidate is a provisional value considered during a single field's
// extraction. Candidates never outlive the extraction call.
type Candidate struct {
	Value       string
	Confidence  float64
	Distance    int
	Direction   Direction
	FromPattern bool

	// pos is the value's start offset within the search text, used for
	// context windows. -1 when unknown (derived candidates).
	pos int
}

// FieldResult is the outcome of extracting one field. Absence is encoded
// as an empty Value with an explanatory Method and error list, never as
// a Go error.
type FieldResult struct {
	FieldName  string   `json:"field_name"`
	Value      string   `json:"extracted_value,omitempty"`
	Confidence float64  `json:"confidence"`
	Method     Method   `json:"extraction_method"`
	Context    string   `json:"raw_text_context,omitempty"`
	Errors     []string `json:"errors,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// Extracted reports whether the field produced a value. Downstream
// validators must treat !Extracted() as "field not present".
func (r FieldResult) Extracted() bool {
	return r.Value != ""
}

// DocumentResult aggregates one document's field results. It is created
// once per document and never mutated afterward.
type DocumentResult struct {
	ID              string         `json:"id"`
	Path            string         `json:"pdf_path"`
	Filename        string         `json:"pdf_filename"`
	FieldsAttempted int            `json:"total_fields_attempted"`
	FieldsExtracted int            `json:"fields_extracted"`
	Fields          []FieldResult  `json:"field_results"`
	Elapsed         time.Duration  `json:"extraction_time"`
	Method          DocumentMethod `json:"extraction_method"`
	IsCAQHDocument  bool           `json:"is_caqh_document"`
	Errors          []string       `json:"errors,omitempty"`
	Warnings        []string       `json:"warnings,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	ExtractedAt     time.Time      `json:"extracted_at"`
}

// Scoring holds the confidence constants of the label-proximity
// algorithm. The values are empirically tuned to the CAQH template; they
// are exposed so a caller can recalibrate without patching the
// algorithm.
type Scoring struct {
	// AfterBase/AfterSlope score pattern matches after the label:
	// base minus slope*(distance/radius). The after direction carries
	// the higher base because "value follows label" is the expected
	// form layout.
	AfterBase  float64
	AfterSlope float64
	// BeforeBase/BeforeSlope score pattern matches before the label,
	// with a steeper distance penalty.
	BeforeBase  float64
	BeforeSlope float64
	// LineAfterBase/LineBeforeBase/LineDecay score the line-based
	// fallback; confidence decays per line of distance.
	LineAfterBase  float64
	LineBeforeBase float64
	LineDecay      float64
	// PatternBonus is added when the winning candidate came from a
	// pattern match, capped at 1.0.
	PatternBonus float64
	// LabelOnlyConfidence marks "label present but no value", which
	// reviewers distinguish from a label that is absent entirely.
	LabelOnlyConfidence float64
	// FutureDateBoost is added to future-date candidates;
	// PastDateFactor and UnparsedDateFactor scale past and
	// unparseable date candidates.
	FutureDateBoost    float64
	PastDateFactor     float64
	UnparsedDateFactor float64
	// ContextWindow bounds the context snippet attached to results;
	// SiblingWindow bounds the context inspected by the sibling-ID
	// filter.
	ContextWindow int
	SiblingWindow int
	// LineScanDepth is how many lines the fallback examines on each
	// side of the label.
	LineScanDepth int
}

// DefaultScoring returns the tuned constants.
func DefaultScoring() Scoring {
	return Scoring{
		AfterBase:           0.90,
		AfterSlope:          0.20,
		BeforeBase:          0.85,
		BeforeSlope:         0.25,
		LineAfterBase:       0.75,
		LineBeforeBase:      0.70,
		LineDecay:           0.15,
		PatternBonus:        0.05,
		LabelOnlyConfidence: 0.3,
		FutureDateBoost:     0.10,
		PastDateFactor:      0.70,
		UnparsedDateFactor:  0.90,
		ContextWindow:       100,
		SiblingWindow:       50,
		LineScanDepth:       3,
	}
}

// clamp bounds a confidence to [0, 1].
func clamp(conf float64) float64 {
	if conf < 0 {
		return 0
	}
	if conf > 1 {
		return 1
	}
	return conf
}

// DefaultFields are the critical intake fields extracted when a caller
// does not request a specific list.
var DefaultFields = []string{
	"medicaid_id",
	"ssn",
	"individual_npi",
	"practice_location_name",
	"professional_license_expiration_date",
}

// Summary provides high-level metrics over a document result, for
// reporting and triage thresholds.
type Summary struct {
	TotalFields       int            `json:"total_fields"`
	FieldsExtracted   int            `json:"fields_extracted"`
	FieldsNotFound    int            `json:"fields_not_found"`
	ExtractionRate    float64        `json:"extraction_rate"`
	AvgConfidence     float64        `json:"avg_confidence"`
	HighConfidence    int            `json:"high_confidence_fields"`
	MediumConfidence  int            `json:"medium_confidence_fields"`
	LowConfidence     int            `json:"low_confidence_fields"`
	TotalErrors       int            `json:"total_errors"`
	TotalWarnings     int            `json:"total_warnings"`
	PrimaryMethod     DocumentMethod `json:"extraction_method"`
}

// Summarize computes summary metrics for a document result.
func Summarize(result *DocumentResult) Summary {
	s := Summary{
		TotalFields:     result.FieldsAttempted,
		FieldsExtracted: result.FieldsExtracted,
		FieldsNotFound:  result.FieldsAttempted - result.FieldsExtracted,
		PrimaryMethod:   result.Method,
		TotalErrors:     len(result.Errors),
		TotalWarnings:   len(result.Warnings),
	}
	if s.TotalFields > 0 {
		s.ExtractionRate = float64(s.FieldsExtracted) / float64(s.TotalFields) * 100
	}

	var sum float64
	for _, fr := range result.Fields {
		s.TotalErrors += len(fr.Errors)
		s.TotalWarnings += len(fr.Warnings)
		if !fr.Extracted() {
			continue
		}
		sum += fr.Confidence
		switch {
		case fr.Confidence >= 0.90:
			s.HighConfidence++
		case fr.Confidence >= 0.70:
			s.MediumConfidence++
		default:
			s.LowConfidence++
		}
	}
	if s.FieldsExtracted > 0 {
		s.AvgConfidence = sum / float64(s.FieldsExtracted)
	}
	return s
}
