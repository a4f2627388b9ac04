package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/teampbs/caqh-intake/internal/fieldcfg"
)

// orgCanonicalPrefix is the canonical company name every practice
// location variant normalizes to.
const orgCanonicalPrefix = "Positive Behavior Supports Corporation"

// orgPattern pairs a recognizer for one spelling variant with the
// confidence it earns. Earlier patterns are stricter and score higher.
type orgPattern struct {
	re   *regexp.Regexp
	conf float64
}

var orgPatterns = []orgPattern{
	// Label words interleaved with the name across line breaks, the
	// region trailing the Corporation line.
	{regexp.MustCompile(`(?is)Practice\s+Positive\s+Behavior\s+Supports\s*.*?Name\s*:?\s*Corporation\s+(?:-\s*)?([A-Za-z][A-Za-z .]*)`), 0.95},
	// Exact corporate form with a region suffix.
	{regexp.MustCompile(`(?i)Positive\s+Behavior\s+Supports?\s+Corporation\s*[-\x{2013}]\s*([A-Za-z][A-Za-z .]*)`), 0.95},
	// Abbreviated corporate form.
	{regexp.MustCompile(`(?i)\bPBS\s+Corporation\s*[-\x{2013}]\s*([A-Za-z][A-Za-z .]*)`), 0.90},
	// Corporation dropped, region kept.
	{regexp.MustCompile(`(?i)Positive\s+Behavior\s+Supports?\s*[-\x{2013}]\s*([A-Za-z][A-Za-z .]*)`), 0.90},
	// Region split around the word Corporation, label lines between
	// the company words and the first fragment.
	{regexp.MustCompile(`(?is)Positive\s+Behavior\s+Supports\s*\n(?:[^\n]*:\s*\n)*([A-Za-z][A-Za-z ]*)\n+Corporation\s+([A-Za-z][A-Za-z ]*)`), 0.90},
	// OCR output with the words run together.
	{regexp.MustCompile(`(?i)PositiveBehavior\s*Supports?\s*(?:Corporation)?\s*[-\x{2013}]?\s*([A-Za-z][A-Za-z .]*)`), 0.85},
	// Bare abbreviation.
	{regexp.MustCompile(`(?i)\bPBS\s*[-\x{2013}]\s*([A-Za-z][A-Za-z .]*)`), 0.80},
	// Corporation line transposed ahead of the company words.
	{regexp.MustCompile(`(?is)Corporation\s*[-\x{2013}]?\s*([A-Za-z][A-Za-z &]*?)\s*\n.*?Positive\s+Behavior\s+Supports`), 0.80},
}

// orgRegionStop trims region captures at the first token that belongs
// to the next form field rather than the region name.
var orgRegionStop = regexp.MustCompile(`(?i)\s+(?:Practice|Location|Address|Street|Suite|Phone|Fax|Tax|W-9|Type|NPI)\b.*$`)

// OrgNameStrategy extracts the practice location organization name. It
// recognizes the company's spelling and OCR variants directly and
// normalizes them to the canonical form; label-proximity runs only as
// a fallback, and its result is still checked against the expected
// organization when the field demands it.
type OrgNameStrategy struct {
	ex *Extractor
}

func NewOrgNameStrategy(ex *Extractor) *OrgNameStrategy {
	return &OrgNameStrategy{ex: ex}
}

func (s *OrgNameStrategy) Extract(doc *Document, name string, field fieldcfg.Field) FieldResult {
	searchText := doc.Text
	if field.Extraction.Section != "" {
		searchText, _ = s.ex.locator.Locate(doc.Text, field.Extraction.Section)
	}

	for _, p := range orgPatterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(searchText, -1) {
			if inTaxBlock(searchText, loc[0], loc[1]) {
				continue
			}
			region := regionFromMatch(searchText, loc)
			if region == "" {
				continue
			}
			return FieldResult{
				FieldName:  name,
				Value:      fmt.Sprintf("%s - %s", orgCanonicalPrefix, region),
				Confidence: p.conf,
				Method:     MethodOrgName,
				Context:    s.ex.context(searchText, loc[0], loc[1]),
				Notes:      fmt.Sprintf("normalized organization name, region %q", region),
			}
		}
	}

	result := s.ex.ExtractField(doc.Text, name, field)
	if !result.Extracted() {
		return result
	}
	if field.Extraction.PatternRequired && !strings.Contains(strings.ToLower(result.Value), "positive behavior") {
		return FieldResult{
			FieldName: name,
			Method:    MethodOrgName,
			Context:   result.Context,
			Errors:    []string{fmt.Sprintf("organization %q does not match the expected company", result.Value)},
		}
	}
	return result
}

const (
	taxLookback  = 200
	taxLookahead = 50
)

// inTaxBlock reports whether an organization-name hit sits in the Tax
// Information subsection, where the company name restates the W-9
// payee rather than naming the practice location.
func inTaxBlock(text string, start, end int) bool {
	lo := start - taxLookback
	if lo < 0 {
		lo = 0
	}
	hi := end + taxLookahead
	if hi > len(text) {
		hi = len(text)
	}
	before := strings.ToLower(text[lo:start])
	around := strings.ToLower(text[start:hi])
	return strings.Contains(before, "tax information") ||
		strings.Contains(around, "w-9") ||
		strings.Contains(around, "appears on")
}

// regionFromMatch assembles the region from every capture group of a
// match. Multi-group patterns carry region fragments split around the
// word Corporation; those are joined in order with label words dropped.
func regionFromMatch(text string, loc []int) string {
	var parts []string
	for g := 2; g+1 < len(loc); g += 2 {
		if loc[g] < 0 {
			continue
		}
		if part := cleanRegion(text[loc[g]:loc[g+1]]); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) > 1 {
		return joinRegionFragments(parts)
	}
	return strings.Join(parts, " ")
}

var orgLabelWords = map[string]bool{"practice": true, "name": true, "location": true}

func joinRegionFragments(parts []string) string {
	var words []string
	for _, p := range parts {
		for _, w := range strings.Fields(p) {
			if len(w) < 2 || orgLabelWords[strings.ToLower(w)] {
				continue
			}
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

// cleanRegion normalizes a captured region: single line, form-field
// noise trimmed, title case, internal whitespace collapsed.
func cleanRegion(raw string) string {
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		raw = raw[:i]
	}
	raw = orgRegionStop.ReplaceAllString(raw, "")
	words := strings.Fields(raw)
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	lower := strings.ToLower(w)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
