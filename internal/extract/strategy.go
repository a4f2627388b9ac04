package extract

import (
	"sync"

	"github.com/teampbs/caqh-intake/internal/fieldcfg"
)

// Document carries one document's reconstructed text plus artifacts
// computed lazily during extraction, such as the selected insurance
// policy block. A Document is built per extraction run and discarded
// with it.
type Document struct {
	Text string

	policyOnce     sync.Once
	policy         *policyBlock
	policyWarnings []string
}

// NewDocument wraps reconstructed text for extraction.
func NewDocument(text string) *Document {
	return &Document{Text: text}
}

// Strategy extracts one field from a document. Implementations must be
// total: every call returns a result, never an error.
type Strategy interface {
	Extract(doc *Document, name string, field fieldcfg.Field) FieldResult
}

// defaultStrategy is plain label-proximity extraction.
type defaultStrategy struct {
	ex *Extractor
}

func (s defaultStrategy) Extract(doc *Document, name string, field fieldcfg.Field) FieldResult {
	return s.ex.ExtractField(doc.Text, name, field)
}

// Registry maps field names to their extraction strategies. Fields
// without an override use the default label-proximity strategy.
// Register all overrides before extraction starts; Resolve is then
// read-only and safe for concurrent use.
type Registry struct {
	fallback Strategy
	byField  map[string]Strategy
}

// NewRegistry returns a registry whose fallback is label-proximity
// extraction with the given extractor.
func NewRegistry(ex *Extractor) *Registry {
	return &Registry{
		fallback: defaultStrategy{ex: ex},
		byField:  make(map[string]Strategy),
	}
}

// Register installs a strategy override for a field name.
func (r *Registry) Register(field string, s Strategy) {
	r.byField[field] = s
}

// Resolve returns the strategy for a field name.
func (r *Registry) Resolve(field string) Strategy {
	if s, ok := r.byField[field]; ok {
		return s
	}
	return r.fallback
}

// DefaultRegistry wires the standard field-specific strategies: the
// organization-name normalizer, the sibling-aware Medicaid ID filter,
// future-date selection for expiration fields, and the repeated
// insurance block selector.
func DefaultRegistry(ex *Extractor) *Registry {
	r := NewRegistry(ex)
	r.Register("practice_location_name", NewOrgNameStrategy(ex))
	r.Register("medicaid_id", NewSiblingIDStrategy(ex, npiIndicators))
	r.Register("professional_license_expiration_date", NewFutureDateStrategy(ex))
	insurance := NewInsuranceStrategy(ex)
	r.Register("insurance_policy_number", insurance)
	r.Register("insurance_expiration_date", insurance)
	return r
}
