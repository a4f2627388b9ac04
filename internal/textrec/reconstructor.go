// Package textrec rebuilds reading-order text from positioned word boxes.
//
// CAQH Data Summary exports are multi-column forms: the raw token stream
// from a PDF library (or OCR) interleaves columns, which destroys the
// label/value adjacency the downstream extractor depends on. The
// reconstructor buckets tokens into rows by vertical proximity, orders
// rows top-to-bottom and words left-to-right, and re-inserts width-scaled
// whitespace so that column breaks survive as double spaces.
package textrec

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// ErrNoText is returned when a document yields zero tokens on every page.
var ErrNoText = errors.New("no text content in document")

func nativePageMarker(page int) string {
	return fmt.Sprintf("\n--- Page %d ---\n", page)
}

func ocrPageMarker(page int) string {
	return fmt.Sprintf("\n--- Page %d (OCR) ---\n", page)
}

// OCRMarker is the substring that identifies an OCR page boundary in
// reconstructed text. The orchestrator scans for it to report the
// document's primary extraction method.
const OCRMarker = "(OCR)"

// Reconstructor linearizes per-page token streams into document text.
type Reconstructor struct {
	opts Options
}

// NewReconstructor creates a reconstructor with the given tolerances.
func NewReconstructor(opts Options) *Reconstructor {
	if opts.RowTolerance <= 0 {
		opts.RowTolerance = DefaultNativeOptions().RowTolerance
	}
	if opts.PageMarker == nil {
		opts.PageMarker = nativePageMarker
	}
	return &Reconstructor{opts: opts}
}

// Reconstruct converts pages of word boxes into a single text blob with
// page markers. Pages without tokens contribute nothing; a document with
// zero tokens overall returns ErrNoText.
func (r *Reconstructor) Reconstruct(pages []PageTokens) (string, error) {
	var parts []string

	for _, page := range pages {
		lines := r.reconstructPage(page.Tokens)
		if len(lines) == 0 {
			continue
		}
		parts = append(parts, r.opts.PageMarker(page.Number))
		parts = append(parts, strings.Join(lines, "\n"))
	}

	if len(parts) == 0 {
		return "", ErrNoText
	}
	return strings.Join(parts, ""), nil
}

// reconstructPage buckets one page's tokens into rows and rebuilds each
// row's text left to right.
func (r *Reconstructor) reconstructPage(tokens []Token) []string {
	rows := make(map[int][]Token)
	for _, tok := range tokens {
		if strings.TrimSpace(tok.Text) == "" {
			continue
		}
		// Negative confidence marks a non-word artifact from OCR.
		if tok.Conf < 0 {
			continue
		}
		key := int(tok.Top/r.opts.RowTolerance + 0.5)
		rows[key] = append(rows[key], tok)
	}

	keys := make([]int, 0, len(rows))
	for key := range rows {
		keys = append(keys, key)
	}
	sort.Ints(keys)

	var lines []string
	for _, key := range keys {
		line := r.reconstructRow(rows[key])
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// reconstructRow orders a row's tokens by left edge and joins them with
// gap-scaled whitespace.
func (r *Reconstructor) reconstructRow(row []Token) string {
	sort.SliceStable(row, func(i, j int) bool {
		return row[i].X0 < row[j].X0
	})

	var line strings.Builder
	prevRight := -1.0

	for _, tok := range row {
		if prevRight >= 0 {
			gap := tok.X0 - prevRight
			switch {
			case gap > r.opts.LargeGap:
				line.WriteString("  ")
			case gap > r.opts.SmallGap:
				line.WriteString(" ")
			}
		}

		text := tok.Text
		if r.opts.SplitMergedWords {
			text = splitMergedWord(text)
		}
		line.WriteString(text)
		prevRight = tok.X1
	}

	return line.String()
}

// splitMergedWord inserts a space at each internal lowercase→uppercase
// transition ("SocialSecurity" → "Social Security").
func splitMergedWord(word string) string {
	runes := []rune(word)
	var out strings.Builder
	out.Grow(len(word) + 4)

	for i, c := range runes {
		if i > 0 && unicode.IsLower(runes[i-1]) && unicode.IsUpper(c) {
			out.WriteRune(' ')
		}
		out.WriteRune(c)
	}
	return out.String()
}

// LooksScanned reports whether reconstructed text appears to come from a
// scan rather than native extraction: very little text, a low
// alphanumeric ratio, or almost no common English words.
func LooksScanned(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 50 {
		return true
	}

	alnum := 0
	for _, c := range text {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			alnum++
		}
	}
	if float64(alnum)/float64(len(text)) < 0.30 {
		return true
	}

	common := []string{"the", "and", "or", "is", "of", "to", "in", "for", "on"}
	lower := strings.ToLower(text)
	found := 0
	for _, word := range common {
		if strings.Contains(lower, word) {
			found++
		}
	}
	return found < 3
}
