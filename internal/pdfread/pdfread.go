// Package pdfread extracts positioned word tokens from native PDF text
// layers and reconstructs them into layout-preserving text.
package pdfread

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/teampbs/caqh-intake/internal/textrec"
)

// defaultPageHeight is US Letter in PDF points, used to convert the
// bottom-origin Y coordinate into a top coordinate when the page box is
// unavailable.
const defaultPageHeight = 792.0

// Reader pulls word tokens out of a PDF's native text layer.
type Reader struct{}

func NewReader() *Reader { return &Reader{} }

// ReadTokens extracts positioned tokens for every page. Pages with no
// text layer come back with an empty token list; callers decide whether
// that means a scanned document.
func (r *Reader) ReadTokens(path string) ([]textrec.PageTokens, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	pages := make([]textrec.PageTokens, 0, reader.NumPage())
	for n := 1; n <= reader.NumPage(); n++ {
		page := reader.Page(n)
		pt := textrec.PageTokens{Number: n}
		if !page.V.IsNull() {
			for _, t := range page.Content().Text {
				pt.Tokens = append(pt.Tokens, textrec.Token{
					Text: t.S,
					X0:   t.X,
					Top:  defaultPageHeight - t.Y,
					X1:   t.X + t.W,
					Conf: 1,
				})
			}
		}
		pages = append(pages, pt)
	}
	return pages, nil
}

// ReadText extracts and reconstructs a document's full text in one
// call, using the native-layer reconstruction settings.
func (r *Reader) ReadText(path string) (string, error) {
	pages, err := r.ReadTokens(path)
	if err != nil {
		return "", err
	}
	rec := textrec.NewReconstructor(textrec.DefaultNativeOptions())
	return rec.Reconstruct(pages)
}
