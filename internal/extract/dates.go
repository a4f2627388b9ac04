package extract

import (
	"fmt"
	"sort"
	"time"

	"github.com/teampbs/caqh-intake/internal/dateutil"
	"github.com/teampbs/caqh-intake/internal/fieldcfg"
)

// datedCandidate pairs a candidate with its parsed date, when parsing
// succeeded.
type datedCandidate struct {
	Candidate
	date   time.Time
	parsed bool
}

// FutureDateStrategy extracts expiration-style dates. The form may list
// several dates near the label (issue date, previous expiration,
// current expiration); a credential on file should not be expired, so
// the furthest future date wins. A document whose only dates are in the
// past still yields its most recent one, flagged as expired, so intake
// staff see what lapsed rather than a blank.
type FutureDateStrategy struct {
	ex *Extractor
}

func NewFutureDateStrategy(ex *Extractor) *FutureDateStrategy {
	return &FutureDateStrategy{ex: ex}
}

func (s *FutureDateStrategy) Extract(doc *Document, name string, field fieldcfg.Field) FieldResult {
	searchText := doc.Text
	if field.Extraction.Section != "" {
		searchText, _ = s.ex.locator.Locate(doc.Text, field.Extraction.Section)
	}

	formats := field.Extraction.DateFormats
	if len(formats) == 0 {
		formats = dateutil.DefaultFormats
	}
	ref := s.ex.Now()

	for _, label := range field.Extraction.Labels {
		m, ok := findLabel(searchText, label)
		if !ok {
			continue
		}
		candidates := s.ex.patternCandidates(searchText, m, field.Extraction.Pattern, field.Radius(), true)
		if len(candidates) == 0 {
			continue
		}

		var future, past, unparsed []datedCandidate
		for _, c := range candidates {
			t, ok := dateutil.Parse(c.Value, formats)
			switch {
			case !ok:
				c.Confidence = clamp(c.Confidence * s.ex.scoring.UnparsedDateFactor)
				unparsed = append(unparsed, datedCandidate{Candidate: c})
			case dateutil.IsFuture(t, ref):
				c.Confidence = clamp(c.Confidence + s.ex.scoring.FutureDateBoost)
				future = append(future, datedCandidate{Candidate: c, date: t, parsed: true})
			default:
				c.Confidence = clamp(c.Confidence * s.ex.scoring.PastDateFactor)
				past = append(past, datedCandidate{Candidate: c, date: t, parsed: true})
			}
		}

		switch {
		case len(future) > 0:
			sort.SliceStable(future, func(i, j int) bool {
				if !future[i].date.Equal(future[j].date) {
					return future[i].date.After(future[j].date)
				}
				return future[i].Confidence > future[j].Confidence
			})
			result := s.result(searchText, name, label, future[0])
			result.Notes = fmt.Sprintf("selected future date near label %q", label)
			return result
		case len(past) > 0:
			sort.SliceStable(past, func(i, j int) bool {
				return past[i].date.After(past[j].date)
			})
			best := past[0]
			result := s.result(searchText, name, label, best)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("date expired %d days ago", dateutil.DaysBetween(best.date, ref)))
			return result
		case len(unparsed) > 0:
			best := unparsed[0]
			for _, c := range unparsed[1:] {
				if c.Confidence > best.Confidence {
					best = c
				}
			}
			result := s.result(searchText, name, label, best)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("value %q did not parse with any configured date format", best.Value))
			return result
		}
	}

	// No pattern matches near any label; the plain path reports the
	// precise kind of absence.
	return s.ex.ExtractField(doc.Text, name, field)
}

func (s *FutureDateStrategy) result(searchText, name, label string, c datedCandidate) FieldResult {
	result := FieldResult{
		FieldName:  name,
		Value:      c.Value,
		Confidence: c.Confidence,
		Method:     MethodFutureDate,
		Notes:      fmt.Sprintf("extracted near label %q (%s, distance %d)", label, c.Direction, c.Distance),
	}
	if c.pos >= 0 {
		result.Context = s.ex.context(searchText, c.pos, c.pos+len(c.Value))
	}
	return result
}
