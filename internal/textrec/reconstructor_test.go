package textrec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tok(text string, x0, top float64) Token {
	return Token{Text: text, X0: x0, Top: top, X1: x0 + float64(len(text))*5, Conf: 1}
}

func TestReconstruct_RowGrouping(t *testing.T) {
	r := NewReconstructor(DefaultNativeOptions())

	// Tops within the 5px tolerance land on one row.
	pages := []PageTokens{{
		Number: 1,
		Tokens: []Token{
			tok("Medicaid", 10, 100),
			tok("ID:", 55, 102),
			tok("12345678", 80, 99),
			tok("Next", 10, 130),
		},
	}}

	text, err := r.Reconstruct(pages)
	require.NoError(t, err)

	lines := nonEmptyLines(text)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Medicaid")
	assert.Contains(t, lines[0], "12345678")
	assert.Equal(t, "Next", lines[1])
}

func TestReconstruct_LeftToRightWithinRow(t *testing.T) {
	r := NewReconstructor(DefaultNativeOptions())

	// Token order in the input does not matter; X position does.
	pages := []PageTokens{{
		Number: 1,
		Tokens: []Token{
			tok("third", 200, 50),
			tok("first", 10, 50),
			tok("second", 100, 50),
		},
	}}

	text, err := r.Reconstruct(pages)
	require.NoError(t, err)

	lines := nonEmptyLines(text)
	require.Len(t, lines, 1)
	assert.Regexp(t, `first\s+second\s+third`, lines[0])
}

func TestReconstruct_GapSpacing(t *testing.T) {
	r := NewReconstructor(DefaultNativeOptions())

	a := tok("Label:", 10, 50)
	// Wide horizontal gap produces a double space, small gap a single.
	b := Token{Text: "Far", X0: a.X1 + 30, Top: 50, X1: a.X1 + 60, Conf: 1}
	c := Token{Text: "Near", X0: b.X1 + 5, Top: 50, X1: b.X1 + 25, Conf: 1}

	text, err := r.Reconstruct([]PageTokens{{Number: 1, Tokens: []Token{a, b, c}}})
	require.NoError(t, err)

	assert.Contains(t, text, "Label:  Far")
	assert.Contains(t, text, "Far Near")
}

func TestReconstruct_PageMarkers(t *testing.T) {
	native := NewReconstructor(DefaultNativeOptions())
	ocr := NewReconstructor(DefaultOCROptions())

	pages := []PageTokens{
		{Number: 1, Tokens: []Token{tok("one", 10, 10)}},
		{Number: 2, Tokens: []Token{tok("two", 10, 10)}},
	}

	text, err := native.Reconstruct(pages)
	require.NoError(t, err)
	assert.Contains(t, text, "--- Page 1 ---")
	assert.Contains(t, text, "--- Page 2 ---")

	text, err = ocr.Reconstruct(pages)
	require.NoError(t, err)
	assert.Contains(t, text, "--- Page 1 (OCR) ---")
	assert.Contains(t, text, OCRMarker)
}

func TestReconstruct_NoTokens(t *testing.T) {
	r := NewReconstructor(DefaultNativeOptions())

	_, err := r.Reconstruct([]PageTokens{{Number: 1}})
	assert.ErrorIs(t, err, ErrNoText)

	_, err = r.Reconstruct(nil)
	assert.ErrorIs(t, err, ErrNoText)
}

func TestReconstruct_DropsNegativeConfidenceTokens(t *testing.T) {
	r := NewReconstructor(DefaultOCROptions())

	pages := []PageTokens{{
		Number: 1,
		Tokens: []Token{
			{Text: "keep", X0: 10, Top: 10, X1: 40, Conf: 88},
			{Text: "junk", X0: 50, Top: 10, X1: 80, Conf: -1},
		},
	}}

	text, err := r.Reconstruct(pages)
	require.NoError(t, err)
	assert.Contains(t, text, "keep")
	assert.NotContains(t, text, "junk")
}

func TestReconstruct_SplitsMergedOCRWords(t *testing.T) {
	r := NewReconstructor(DefaultOCROptions())

	pages := []PageTokens{{
		Number: 1,
		Tokens: []Token{{Text: "SocialSecurity", X0: 10, Top: 10, X1: 100, Conf: 90}},
	}}

	text, err := r.Reconstruct(pages)
	require.NoError(t, err)
	assert.Contains(t, text, "Social Security")
}

func TestLooksScanned(t *testing.T) {
	assert.True(t, LooksScanned(""))
	assert.True(t, LooksScanned("..   ...\n###"))
	assert.False(t, LooksScanned(strings.Repeat("The provider data summary and the practice location report. ", 5)))
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "---") {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines
}
