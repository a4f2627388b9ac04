package extract

import (
	"regexp"

	"github.com/teampbs/caqh-intake/internal/fieldcfg"
)

// npiIndicators mark a context window as belonging to an NPI number
// rather than a Medicaid ID. Both are long digit runs and the CAQH
// summary prints them near each other, so a candidate whose
// surroundings mention NPI is discarded.
var npiIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bNPI\s*:`),
	regexp.MustCompile(`(?i)\bNPI\s+Number`),
	regexp.MustCompile(`(?i)\(Type\s+\d+\)\s*NPI`),
	regexp.MustCompile(`(?i)\bGroup\s+NPI`),
	regexp.MustCompile(`(?i)\bIndividual\s+NPI`),
	regexp.MustCompile(`(?i)National\s+Provider\s+Identifier`),
}

// SiblingIDStrategy extracts an identifier that has lookalike siblings
// elsewhere on the form. Candidates whose context matches any of the
// sibling indicators are rejected before the winner is picked; when
// every candidate is rejected the field reports why, instead of
// silently returning a sibling's value.
type SiblingIDStrategy struct {
	ex         *Extractor
	indicators []*regexp.Regexp
}

func NewSiblingIDStrategy(ex *Extractor, indicators []*regexp.Regexp) *SiblingIDStrategy {
	return &SiblingIDStrategy{ex: ex, indicators: indicators}
}

func (s *SiblingIDStrategy) Extract(doc *Document, name string, field fieldcfg.Field) FieldResult {
	filter := &candidateFilter{
		keep: func(_ Candidate, context string) bool {
			for _, re := range s.indicators {
				if re.MatchString(context) {
					return false
				}
			}
			return true
		},
		rejectedNote:  "all candidate values sat in NPI-labeled context",
		rejectedError: "found only NPI-labeled numbers near the configured labels",
	}
	return s.ex.extract(doc.Text, name, field, filter)
}
