package fieldcfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefault(t *testing.T) {
	table, err := LoadDefault()
	require.NoError(t, err)
	assert.Greater(t, table.Len(), 10)

	// The critical intake fields must always be present in the
	// embedded rules.
	for _, name := range []string{
		"medicaid_id",
		"ssn",
		"individual_npi",
		"practice_location_name",
		"professional_license_expiration_date",
	} {
		_, ok := table.Get(name)
		assert.True(t, ok, "embedded rules missing %s", name)
	}
}

func TestLoadDefault_FieldShapes(t *testing.T) {
	table, err := LoadDefault()
	require.NoError(t, err)

	medicaid, ok := table.Get("medicaid_id")
	require.True(t, ok)
	assert.True(t, medicaid.Extraction.PatternRequired)
	assert.NotEmpty(t, medicaid.Extraction.Pattern)
	assert.Equal(t, 60, medicaid.Radius())

	license, ok := table.Get("professional_license_expiration_date")
	require.True(t, ok)
	assert.NotEmpty(t, license.Extraction.DateFormats)
	assert.NotEmpty(t, license.Extraction.Section)
}

func TestParse_Valid(t *testing.T) {
	raw := []byte(`
tax_id:
  extraction:
    labels:
      - "Tax ID"
      - "TIN"
    pattern: '\d{2}-?\d{7}'
    max_distance: 40
`)
	table, err := Parse(raw)
	require.NoError(t, err)

	f, ok := table.Get("tax_id")
	require.True(t, ok)
	assert.Equal(t, []string{"Tax ID", "TIN"}, f.Extraction.Labels)
	assert.Equal(t, 40, f.Extraction.MaxDistance)
}

func TestParse_DefaultRadius(t *testing.T) {
	raw := []byte(`
license_number:
  extraction:
    labels: ["License Number"]
`)
	table, err := Parse(raw)
	require.NoError(t, err)

	f, _ := table.Get("license_number")
	assert.Equal(t, DefaultRadius, f.Radius())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "not yaml",
			raw:  "{{nope",
		},
		{
			name: "missing labels",
			raw: `
bad_field:
  extraction:
    pattern: '\d+'
`,
		},
		{
			name: "empty labels",
			raw: `
bad_field:
  extraction:
    labels: []
`,
		},
		{
			name: "missing extraction block",
			raw: `
bad_field:
  pattern: '\d+'
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	raw := `
primary_specialty:
  extraction:
    labels: ["Primary Specialty"]
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"primary_specialty"}, table.Names())

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
