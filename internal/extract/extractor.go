// Package extract implements label-proximity field extraction over
// reconstructed document text, plus the field-specific strategies and
// the per-document orchestrator that drive it.
//
// The core algorithm searches a window around each configured label in
// both directions, scores candidates by direction and distance, and
// falls back to a line-based heuristic when no value pattern matches.
// Every outcome, including absence, is encoded in a FieldResult rather
// than a Go error, so one call always yields one result.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/teampbs/caqh-intake/internal/fieldcfg"
	"github.com/teampbs/caqh-intake/internal/section"
)

// shortLabelWordLen is the first-word length at or below which the
// label pattern refuses to match inside a longer word, so "Name" does
// not anchor on "Surname".
const shortLabelWordLen = 6

// Extractor runs the label-proximity algorithm. The zero value is not
// usable; construct with NewExtractor.
type Extractor struct {
	scoring Scoring
	locator *section.Locator

	// Now supplies the reference time for date strategies. Tests pin
	// it to keep date selection deterministic.
	Now func() time.Time
}

// NewExtractor returns an extractor with the default scoring constants.
func NewExtractor() *Extractor {
	return &Extractor{
		scoring: DefaultScoring(),
		locator: section.NewLocator(),
		Now:     time.Now,
	}
}

// NewExtractorWithScoring returns an extractor with custom scoring.
func NewExtractorWithScoring(s Scoring) *Extractor {
	e := NewExtractor()
	e.scoring = s
	return e
}

// Scoring returns the extractor's scoring constants.
func (e *Extractor) Scoring() Scoring { return e.scoring }

// labelMatch is a resolved label occurrence within the search text.
// end points just past the label and any trailing colon.
type labelMatch struct {
	label string
	start int
	end   int
}

// candidateFilter lets a strategy veto candidates by their surrounding
// context before the winner is chosen.
type candidateFilter struct {
	keep          func(c Candidate, context string) bool
	rejectedNote  string
	rejectedError string
}

// ExtractField extracts a single field from document text. It never
// returns an error; failures are encoded in the result.
func (e *Extractor) ExtractField(text, name string, field fieldcfg.Field) FieldResult {
	return e.extract(text, name, field, nil)
}

func (e *Extractor) extract(text, name string, field fieldcfg.Field, filter *candidateFilter) FieldResult {
	searchText := text
	if field.Extraction.Section != "" {
		searchText, _ = e.locator.Locate(text, field.Extraction.Section)
	}

	labels := field.Extraction.Labels
	filteredEverything := false
	for _, label := range labels {
		result, allFiltered := e.extractUsingLabel(searchText, name, label, field, filter)
		if result.Extracted() {
			return result
		}
		if allFiltered {
			filteredEverything = true
		}
	}

	if filteredEverything && filter != nil {
		return FieldResult{
			FieldName: name,
			Method:    MethodSiblingFiltered,
			Errors:    []string{filter.rejectedError},
			Notes:     filter.rejectedNote,
		}
	}

	// A label was present somewhere but yielded nothing usable.
	for _, label := range labels {
		if m, ok := findLabel(searchText, label); ok {
			result := FieldResult{
				FieldName:  name,
				Confidence: e.scoring.LabelOnlyConfidence,
				Method:     MethodLabelOnly,
				Context:    e.context(searchText, m.start, m.end),
				Errors:     []string{fmt.Sprintf("label %q found but no value could be extracted", label)},
			}
			if field.Extraction.PatternRequired {
				result.Confidence = 0
				result.Method = MethodPatternMissing
				result.Errors = []string{fmt.Sprintf("label %q found but value does not match the required pattern", label)}
			}
			return result
		}
	}

	return FieldResult{
		FieldName: name,
		Method:    MethodLabelNotFound,
		Errors:    []string{fmt.Sprintf("could not find any of the labels: %s", strings.Join(labels, ", "))},
	}
}

// extractUsingLabel runs one label through the bidirectional search.
// The second return reports that candidates existed but the filter
// rejected all of them.
func (e *Extractor) extractUsingLabel(searchText, name, label string, field fieldcfg.Field, filter *candidateFilter) (FieldResult, bool) {
	m, ok := findLabel(searchText, label)
	if !ok {
		return FieldResult{FieldName: name}, false
	}

	radius := field.Radius()
	candidates := e.patternCandidates(searchText, m, field.Extraction.Pattern, radius, false)
	if len(candidates) == 0 && !field.Extraction.PatternRequired {
		candidates = e.lineCandidates(searchText, m)
	}
	if len(candidates) == 0 {
		return FieldResult{FieldName: name}, false
	}

	if filter != nil {
		kept := candidates[:0]
		for _, c := range candidates {
			if filter.keep(c, e.siblingContext(searchText, m, c)) {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			return FieldResult{FieldName: name}, true
		}
		candidates = kept
	}

	best := pickBest(candidates)
	return e.buildResult(searchText, name, label, field, best), false
}

// patternCandidates collects value-pattern matches in the windows after
// and before the label. When all is false only the nearest match per
// direction is kept, matching the single-winner search; strategies that
// need every match (date selection) pass all=true.
func (e *Extractor) patternCandidates(searchText string, m labelMatch, pattern string, radius int, all bool) []Candidate {
	if pattern == "" {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}

	var candidates []Candidate

	afterEnd := m.end + radius
	if afterEnd > len(searchText) {
		afterEnd = len(searchText)
	}
	after := searchText[m.end:afterEnd]
	for i, loc := range re.FindAllStringIndex(after, -1) {
		dist := loc[0]
		candidates = append(candidates, Candidate{
			Value:       strings.TrimSpace(after[loc[0]:loc[1]]),
			Confidence:  clamp(e.scoring.AfterBase - float64(dist)/float64(radius)*e.scoring.AfterSlope),
			Distance:    dist,
			Direction:   DirectionAfter,
			FromPattern: true,
			pos:         m.end + loc[0],
		})
		if !all && i == 0 {
			break
		}
	}

	beforeStart := m.start - radius
	if beforeStart < 0 {
		beforeStart = 0
	}
	before := searchText[beforeStart:m.start]
	locs := re.FindAllStringIndex(before, -1)
	if !all && len(locs) > 1 {
		locs = locs[len(locs)-1:]
	}
	for _, loc := range locs {
		dist := len(before) - loc[1]
		candidates = append(candidates, Candidate{
			Value:       strings.TrimSpace(before[loc[0]:loc[1]]),
			Confidence:  clamp(e.scoring.BeforeBase - float64(dist)/float64(radius)*e.scoring.BeforeSlope),
			Distance:    dist,
			Direction:   DirectionBefore,
			FromPattern: true,
			pos:         beforeStart + loc[0],
		})
	}

	return candidates
}

// lineCandidates is the positional fallback: the first plausible line
// near the label, after side preferred.
func (e *Extractor) lineCandidates(searchText string, m labelMatch) []Candidate {
	depth := e.scoring.LineScanDepth

	after := strings.Split(searchText[m.end:], "\n")
	if len(after) > depth {
		after = after[:depth]
	}
	pos := m.end
	for i, line := range after {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 1 && !looksLikeLabel(trimmed) {
			return []Candidate{{
				Value:      trimmed,
				Confidence: clamp(e.scoring.LineAfterBase - float64(i)*e.scoring.LineDecay),
				Distance:   i,
				Direction:  DirectionAfter,
				pos:        pos + strings.Index(line, trimmed),
			}}
		}
		pos += len(line) + 1
	}

	before := strings.Split(searchText[:m.start], "\n")
	if len(before) > depth {
		before = before[len(before)-depth:]
	}
	for i := len(before) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(before[i])
		if len(trimmed) > 1 && !looksLikeLabel(trimmed) {
			dist := len(before) - 1 - i
			return []Candidate{{
				Value:      trimmed,
				Confidence: clamp(e.scoring.LineBeforeBase - float64(dist)*e.scoring.LineDecay),
				Distance:   dist,
				Direction:  DirectionBefore,
				pos:        -1,
			}}
		}
	}

	return nil
}

// pickBest orders candidates by confidence descending, then distance
// ascending, and returns the winner.
func pickBest(candidates []Candidate) Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].Distance < candidates[j].Distance
	})
	return candidates[0]
}

func (e *Extractor) buildResult(searchText, name, label string, field fieldcfg.Field, best Candidate) FieldResult {
	conf := best.Confidence
	method := MethodLineHeuristic
	if best.FromPattern {
		conf = clamp(conf + e.scoring.PatternBonus)
		method = MethodPatternAfter
		if best.Direction == DirectionBefore {
			method = MethodPatternBefore
		}
	}

	result := FieldResult{
		FieldName:  name,
		Value:      best.Value,
		Confidence: conf,
		Method:     method,
		Notes:      fmt.Sprintf("extracted near label %q (%s, distance %d)", label, best.Direction, best.Distance),
	}
	if best.pos >= 0 {
		result.Context = e.context(searchText, best.pos, best.pos+len(best.Value))
	}
	if len(best.Value) < 2 {
		result.Warnings = append(result.Warnings, "extracted value is suspiciously short")
	}
	return result
}

// context returns a snippet around [start, end) capped at the
// configured window.
func (e *Extractor) context(text string, start, end int) string {
	w := e.scoring.ContextWindow / 2
	lo := start - w
	if lo < 0 {
		lo = 0
	}
	hi := end + w
	if hi > len(text) {
		hi = len(text)
	}
	snippet := text[lo:hi]
	if len(snippet) > e.scoring.ContextWindow {
		snippet = snippet[:e.scoring.ContextWindow]
	}
	return strings.TrimSpace(snippet)
}

// siblingContext returns the window a candidate filter inspects. It
// spans from the label to the candidate, so markers sitting between
// the two are always visible, padded by SiblingWindow on each end.
func (e *Extractor) siblingContext(text string, m labelMatch, c Candidate) string {
	if c.pos < 0 {
		return ""
	}
	w := e.scoring.SiblingWindow
	lo := m.start
	if c.pos < lo {
		lo = c.pos
	}
	lo -= w
	if lo < 0 {
		lo = 0
	}
	hi := m.end
	if end := c.pos + len(c.Value); end > hi {
		hi = end
	}
	hi += w
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

// findLabel locates the first occurrence of a label in the text. Label
// matching is case-insensitive with flexible whitespace between the
// label's words and an optional trailing colon; when the first word is
// short the match must not start inside a longer word.
func findLabel(text, label string) (labelMatch, bool) {
	re, guard := labelPattern(label)
	if !guard {
		loc := re.FindStringIndex(text)
		if loc == nil {
			return labelMatch{}, false
		}
		return labelMatch{label: label, start: loc[0], end: loc[1]}, true
	}

	// Matches whose preceding rune is a word character anchor inside
	// another word and are skipped.
	offset := 0
	for offset <= len(text) {
		loc := re.FindStringIndex(text[offset:])
		if loc == nil {
			return labelMatch{}, false
		}
		start := offset + loc[0]
		end := offset + loc[1]
		if start == 0 || !isWordByte(text[start-1]) {
			return labelMatch{label: label, start: start, end: end}, true
		}
		offset = start + 1
	}
	return labelMatch{}, false
}

// labelPattern compiles the label's regexp and reports whether the
// caller must enforce the word-start guard.
func labelPattern(label string) (*regexp.Regexp, bool) {
	words := strings.Fields(label)
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = regexp.QuoteMeta(w)
	}
	body := strings.Join(parts, `\s*`) + `\s*:?`

	guard := len(words) > 0 && len(words[0]) <= shortLabelWordLen
	return regexp.MustCompile(`(?i)` + body), guard
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}

// looksLikeLabel reports whether a fallback line is itself a form label
// rather than a value.
func looksLikeLabel(line string) bool {
	return strings.HasSuffix(line, ":")
}
