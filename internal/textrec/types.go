package textrec

// Token is a single word box produced by native extraction or OCR.
// Coordinates follow the extractor's convention: X0 is the left edge,
// X1 the right edge, Top the distance from the top of the page.
type Token struct {
	Text string  `json:"text"`
	X0   float64 `json:"x0"`
	Top  float64 `json:"top"`
	X1   float64 `json:"x1"`
	// Conf is the recognizer's confidence for OCR tokens. Native
	// extraction leaves it at 0; a negative value marks a non-word
	// artifact (Tesseract TSV semantics) and the token is dropped.
	Conf float64 `json:"conf,omitempty"`
}

// PageTokens holds the word boxes for one page in arbitrary order.
type PageTokens struct {
	Number int     `json:"number"`
	Tokens []Token `json:"tokens"`
}

// Source identifies which extraction path produced a token stream.
type Source string

const (
	SourceNative Source = "native"
	SourceOCR    Source = "ocr"
)

// Options holds the layout tolerances used during reconstruction.
// The values are empirically tuned to the CAQH ProView export template
// and should be recalibrated against a representative corpus before
// being trusted on other templates.
type Options struct {
	// RowTolerance buckets tokens into rows: tokens whose Top rounds
	// to the same multiple belong to the same line.
	RowTolerance float64
	// SmallGap is the horizontal gap (px) above which a single space
	// is inserted between adjacent tokens.
	SmallGap float64
	// LargeGap is the horizontal gap (px) above which two spaces are
	// inserted, preserving the visual column break that separates
	// form fields.
	LargeGap float64
	// SplitMergedWords inserts a space at internal lowercase→uppercase
	// transitions, correcting OCR's habit of fusing adjacent labels
	// ("SocialSecurity").
	SplitMergedWords bool
	// PageMarker formats the page-boundary marker; it receives the
	// page number.
	PageMarker func(page int) string
}

// DefaultNativeOptions returns tolerances for native PDF word streams.
func DefaultNativeOptions() Options {
	return Options{
		RowTolerance:     5,
		SmallGap:         3,
		LargeGap:         20,
		SplitMergedWords: false,
		PageMarker:       nativePageMarker,
	}
}

// DefaultOCROptions returns tolerances for OCR word streams, which have
// noisier coordinates and merged-word artifacts.
func DefaultOCROptions() Options {
	return Options{
		RowTolerance:     8,
		SmallGap:         3,
		LargeGap:         40,
		SplitMergedWords: true,
		PageMarker:       ocrPageMarker,
	}
}

// OptionsFor returns the default options for a token source.
func OptionsFor(source Source) Options {
	if source == SourceOCR {
		return DefaultOCROptions()
	}
	return DefaultNativeOptions()
}
