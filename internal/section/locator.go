// Package section narrows field search to a named region of the
// document. CAQH exports repeat similar labels across sections ("Phone"
// appears under both Practice Locations and Insurance), so restricting
// the search window is the primary defense against cross-section
// contamination.
package section

import (
	"regexp"
	"strings"
)

// nextHeaderPattern matches the next major section header: a line of its
// own consisting of a long run of uppercase letters (possibly multiple
// words), or an explicit "SECTION <n>" heading.
var nextHeaderPattern = regexp.MustCompile(`\n\s*(?:SECTION\s+\d+|[A-Z][A-Z\s]{10,})\s*\n`)

// Locator finds the text range belonging to a named section.
type Locator struct{}

// NewLocator creates a section locator.
func NewLocator() *Locator {
	return &Locator{}
}

// Range is the half-open [Start, End) byte range of a located section
// within the full document text.
type Range struct {
	Start int
	End   int
}

// Locate returns the substring of text belonging to the named section
// and its offset range. Section restriction is best-effort narrowing: if
// the section cannot be found, the full text is returned unchanged with
// a zero offset, never an error.
func (l *Locator) Locate(text, name string) (string, Range) {
	if name == "" {
		return text, Range{Start: 0, End: len(text)}
	}

	for _, variant := range headerVariants(name) {
		re, err := regexp.Compile(`(?i)(?:SECTION\s+\d+\s*:?\s*)?` + variant)
		if err != nil {
			continue
		}
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}

		start := loc[1]
		end := len(text)
		if next := nextHeaderPattern.FindStringIndex(text[start:]); next != nil {
			end = start + next[0]
		}
		return text[start:end], Range{Start: start, End: end}
	}

	return text, Range{Start: 0, End: len(text)}
}

// headerVariants builds the case/spacing variants of a section name
// tried against the document: all-caps with flexible whitespace,
// title case, and the raw name with underscores widened.
func headerVariants(name string) []string {
	return []string{
		strings.ReplaceAll(regexp.QuoteMeta(strings.ToUpper(name)), `_`, `\s+`),
		regexp.QuoteMeta(titleCase(strings.ReplaceAll(name, "_", " "))),
		strings.ReplaceAll(regexp.QuoteMeta(name), `_`, `\s+`),
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
