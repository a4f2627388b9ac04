package extract

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teampbs/caqh-intake/internal/doccheck"
	"github.com/teampbs/caqh-intake/internal/fieldcfg"
	"github.com/teampbs/caqh-intake/internal/textrec"
)

// Orchestrator runs a full document through the gate check and every
// requested field strategy, producing exactly one FieldResult per
// requested field regardless of what goes wrong inside a strategy.
type Orchestrator struct {
	rules    *fieldcfg.Table
	registry *Registry
	checker  *doccheck.Checker
	logger   *log.Logger

	// SkipGate records the gate outcome but extracts anyway. Used for
	// recovering data out of documents the gate misjudges.
	SkipGate bool
}

// NewOrchestrator wires an orchestrator from its parts. A nil registry
// gets the default strategy set; a nil logger discards nothing and logs
// through the standard logger.
func NewOrchestrator(rules *fieldcfg.Table, registry *Registry, checker *doccheck.Checker, logger *log.Logger) *Orchestrator {
	if registry == nil {
		registry = DefaultRegistry(NewExtractor())
	}
	if checker == nil {
		checker = doccheck.NewChecker()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{rules: rules, registry: registry, checker: checker, logger: logger}
}

// Process extracts the requested fields from reconstructed document
// text. A nil field list means the default critical set.
func (o *Orchestrator) Process(path, text string, fields []string) *DocumentResult {
	start := time.Now()
	if fields == nil {
		fields = DefaultFields
	}

	result := &DocumentResult{
		ID:              uuid.NewString(),
		Path:            path,
		Filename:        filepath.Base(path),
		FieldsAttempted: len(fields),
		Fields:          make([]FieldResult, 0, len(fields)),
		ExtractedAt:     start,
	}

	gate := o.checker.Check(text)
	result.IsCAQHDocument = gate.IsCAQH || o.SkipGate
	if !gate.IsCAQH && o.SkipGate {
		result.Warnings = append(result.Warnings, fmt.Sprintf("gate bypassed: %s", gate.Reason))
	}
	if !gate.IsCAQH && !o.SkipGate {
		o.logger.Printf("doccheck: %s rejected: %s", result.Filename, gate.Reason)
		for _, name := range fields {
			result.Fields = append(result.Fields, FieldResult{
				FieldName: name,
				Method:    MethodWrongDocument,
				Errors:    []string{gate.Reason},
			})
		}
		result.Method = DocumentMethodWrongDocument
		result.Errors = append(result.Errors, gate.Reason)
		result.Notes = fmt.Sprintf("document type %s, recommendation %s", gate.DocumentType, gate.Recommendation)
		result.Elapsed = time.Since(start)
		return result
	}

	doc := NewDocument(text)
	for _, name := range fields {
		result.Fields = append(result.Fields, o.extractOne(doc, name))
	}

	for _, fr := range result.Fields {
		if fr.Extracted() {
			result.FieldsExtracted++
		}
	}
	result.Method = DocumentMethodNativePDF
	if strings.Contains(text, textrec.OCRMarker) {
		result.Method = DocumentMethodOCR
	}
	result.Elapsed = time.Since(start)
	o.logger.Printf("extract: %s: %d/%d fields in %s", result.Filename,
		result.FieldsExtracted, result.FieldsAttempted, result.Elapsed.Round(time.Millisecond))
	return result
}

// extractOne runs a single field with panic containment, so one broken
// rule or strategy cannot take the rest of the document down.
func (o *Orchestrator) extractOne(doc *Document, name string) (fr FieldResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Printf("extract: field %s panicked: %v", name, r)
			fr = FieldResult{
				FieldName: name,
				Method:    MethodFailed,
				Errors:    []string{fmt.Sprintf("extraction failed: %v", r)},
			}
		}
	}()

	field, ok := o.rules.Get(name)
	if !ok {
		return FieldResult{
			FieldName: name,
			Method:    MethodNoConfig,
			Errors:    []string{fmt.Sprintf("no extraction rules configured for field %q", name)},
		}
	}
	return o.registry.Resolve(name).Extract(doc, name, field)
}

// Failed builds a document result for a file that could not be read or
// reconstructed at all.
func (o *Orchestrator) Failed(path string, err error) *DocumentResult {
	return &DocumentResult{
		ID:          uuid.NewString(),
		Path:        path,
		Filename:    filepath.Base(path),
		Method:      DocumentMethodReadFailed,
		Errors:      []string{err.Error()},
		ExtractedAt: time.Now(),
	}
}
