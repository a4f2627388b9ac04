package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/teampbs/caqh-intake/internal/dateutil"
	"github.com/teampbs/caqh-intake/internal/fieldcfg"
)

const insuranceSection = "Insurance Information"

// blockConfidence scores fields read out of the selected policy block.
// The block structure is rigid, so proximity scoring adds nothing here.
const blockConfidence = 0.85

var (
	policyStartRe = regexp.MustCompile(`(?i)Policy\s*Number\s*:?`)

	policyNumberRe     = regexp.MustCompile(`(?i)Policy\s*Number\s*:?\s*([A-Za-z0-9][A-Za-z0-9\-]*)`)
	policyCarrierRe    = regexp.MustCompile(`(?i)(?:Insurance\s+)?Carrier(?:\s*/\s*Self\s*Insured)?(?:\s+Name)?\s*:?\s*([^\n:]+)`)
	policyEffectiveRe  = regexp.MustCompile(`(?i)(?:Original\s+|Current\s+)?Effective\s*Date\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)
	policyExpirationRe = regexp.MustCompile(`(?i)Expiration\s*Date\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)
)

// policyBlock is one malpractice policy as printed in the insurance
// section.
type policyBlock struct {
	PolicyNumber   string
	Carrier        string
	EffectiveDate  string
	ExpirationDate string

	expiration time.Time
	parsed     bool
}

// InsuranceStrategy extracts fields from the insurance section, which
// repeats one block per policy. Providers list expired policies next to
// the current one, so the block with the furthest expiration date is
// selected once per document and every insurance field reads from that
// same block. Mixing values across blocks would pair a current policy
// number with a lapsed expiration date.
type InsuranceStrategy struct {
	ex *Extractor
}

func NewInsuranceStrategy(ex *Extractor) *InsuranceStrategy {
	return &InsuranceStrategy{ex: ex}
}

func (s *InsuranceStrategy) Extract(doc *Document, name string, field fieldcfg.Field) FieldResult {
	doc.policyOnce.Do(func() {
		doc.policy, doc.policyWarnings = s.selectPolicy(doc.Text)
	})
	if doc.policy == nil {
		// No policy block structure anywhere; fall back to plain
		// label proximity.
		return s.ex.ExtractField(doc.Text, name, field)
	}

	var value string
	switch name {
	case "insurance_policy_number":
		value = doc.policy.PolicyNumber
	case "insurance_expiration_date":
		value = doc.policy.ExpirationDate
	case "insurance_effective_date":
		value = doc.policy.EffectiveDate
	case "insurance_carrier":
		value = doc.policy.Carrier
	default:
		return s.ex.ExtractField(doc.Text, name, field)
	}

	if value == "" {
		return FieldResult{
			FieldName: name,
			Method:    MethodInsuranceBlock,
			Warnings:  doc.policyWarnings,
			Errors:    []string{"selected policy block does not contain this field"},
		}
	}
	result := FieldResult{
		FieldName:  name,
		Value:      value,
		Confidence: blockConfidence,
		Method:     MethodInsuranceBlock,
		Warnings:   doc.policyWarnings,
	}
	if doc.policy.parsed {
		result.Notes = fmt.Sprintf("from policy expiring %s", dateutil.FormatDisplay(doc.policy.expiration))
	}
	return result
}

// selectPolicy splits the insurance section into policy blocks and
// picks the one expiring furthest in the future. When no expiration
// date parses, the first block wins with a warning.
func (s *InsuranceStrategy) selectPolicy(text string) (*policyBlock, []string) {
	sectionText, _ := s.ex.locator.Locate(text, insuranceSection)

	starts := policyStartRe.FindAllStringIndex(sectionText, -1)
	if len(starts) == 0 {
		return nil, nil
	}

	blocks := make([]*policyBlock, 0, len(starts))
	for i, loc := range starts {
		end := len(sectionText)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		blocks = append(blocks, parsePolicyBlock(sectionText[loc[0]:end]))
	}

	var best *policyBlock
	for _, b := range blocks {
		if !b.parsed {
			continue
		}
		if best == nil || b.expiration.After(best.expiration) {
			best = b
		}
	}
	if best == nil {
		return blocks[0], []string{"no policy block has a parseable expiration date, using the first block"}
	}

	var warnings []string
	if len(blocks) > 1 {
		warnings = append(warnings,
			fmt.Sprintf("selected 1 of %d policy blocks by furthest expiration", len(blocks)))
	}
	return best, warnings
}

func parsePolicyBlock(text string) *policyBlock {
	b := &policyBlock{
		PolicyNumber:   firstGroup(policyNumberRe, text),
		Carrier:        trimValue(firstGroup(policyCarrierRe, text)),
		EffectiveDate:  firstGroup(policyEffectiveRe, text),
		ExpirationDate: firstGroup(policyExpirationRe, text),
	}
	if t, ok := dateutil.Parse(b.ExpirationDate, dateutil.DefaultFormats); ok {
		b.expiration = t
		b.parsed = true
	}
	return b
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

func trimValue(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
