// Package fieldcfg loads the declarative per-field extraction rules.
//
// The rules file is the hand-tuned contract between the CAQH ProView
// template revision and the extractor: which labels anchor each field,
// what the value looks like, how far from the label to search, and which
// section to search in. It is decoded once at startup, checked against a
// JSON Schema, and treated as read-only for the life of the process.
package fieldcfg

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// DefaultRadius is the search distance used when a field omits
// max_distance.
const DefaultRadius = 50

// Extraction holds one field's extraction hints.
type Extraction struct {
	// Labels are tried in priority order; the first label found in the
	// document wins.
	Labels []string `yaml:"labels" json:"labels"`
	// Pattern is the regular expression the value must match. Empty
	// means any nearby text is acceptable.
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	// MaxDistance is the radius in characters searched on each side of
	// a matched label.
	MaxDistance int `yaml:"max_distance,omitempty" json:"max_distance,omitempty"`
	// Section restricts the search to a named document section.
	Section string `yaml:"section,omitempty" json:"section,omitempty"`
	// PatternRequired disables the line-based heuristic fallback:
	// either the pattern matches or the field is absent.
	PatternRequired bool `yaml:"pattern_required,omitempty" json:"pattern_required,omitempty"`
	// DateFormats lists accepted Go time layouts for date fields.
	DateFormats []string `yaml:"date_formats,omitempty" json:"date_formats,omitempty"`
}

// Field is one entry in the rules table.
type Field struct {
	Extraction Extraction `yaml:"extraction" json:"extraction"`
}

// Radius returns the field's search radius, defaulting when unset.
func (f Field) Radius() int {
	if f.Extraction.MaxDistance > 0 {
		return f.Extraction.MaxDistance
	}
	return DefaultRadius
}

// Table is the immutable field-name → rules mapping.
type Table struct {
	fields map[string]Field
}

// Load reads and validates a rules file.
func Load(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return Parse(raw)
}

// LoadDefault returns the embedded rules table.
func LoadDefault() (*Table, error) {
	return Parse(defaultRules)
}

// Parse decodes YAML rules, validates them against the rules schema,
// and returns an immutable table.
func Parse(raw []byte) (*Table, error) {
	var fields map[string]Field
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode rules YAML: %w", err)
	}

	if err := validateSchema(fields); err != nil {
		return nil, err
	}

	for name, field := range fields {
		if len(field.Extraction.Labels) == 0 {
			return nil, fmt.Errorf("field %q has no extraction labels", name)
		}
	}

	return &Table{fields: fields}, nil
}

// validateSchema checks the decoded rules against the embedded JSON
// Schema, catching shape mistakes (wrong types, unknown keys) before
// they surface as silent extraction misses.
func validateSchema(fields map[string]Field) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rules.schema.json", bytes.NewReader([]byte(rulesSchema))); err != nil {
		return fmt.Errorf("failed to load rules schema: %w", err)
	}
	schema, err := compiler.Compile("rules.schema.json")
	if err != nil {
		return fmt.Errorf("failed to compile rules schema: %w", err)
	}

	// Round-trip through JSON so the validator sees plain maps.
	encoded, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode rules for validation: %w", err)
	}
	var doc any
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return fmt.Errorf("failed to decode rules for validation: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("rules file does not match schema: %w", err)
	}
	return nil
}

// Get returns the rules for a field name.
func (t *Table) Get(name string) (Field, bool) {
	f, ok := t.fields[name]
	return f, ok
}

// Names returns all configured field names, sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.fields))
	for name := range t.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of configured fields.
func (t *Table) Len() int {
	return len(t.fields)
}
