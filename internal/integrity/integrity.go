// Package integrity performs pre-flight checks on a PDF file before
// any extraction work is spent on it: the file must exist, be
// non-empty, carry a PDF header, parse structurally, and not be
// encrypted.
package integrity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// CorruptionType names the reason a file failed verification.
type CorruptionType string

const (
	CorruptionNone        CorruptionType = "none"
	CorruptionMissing     CorruptionType = "missing"
	CorruptionEmpty       CorruptionType = "empty"
	CorruptionNotPDF      CorruptionType = "not_pdf"
	CorruptionBadHeader   CorruptionType = "bad_header"
	CorruptionUnparseable CorruptionType = "unparseable"
	CorruptionEncrypted   CorruptionType = "encrypted"
)

// Result reports one file's verification outcome.
type Result struct {
	OK         bool           `json:"ok"`
	Corruption CorruptionType `json:"corruption_type"`
	Detail     string         `json:"detail,omitempty"`
	SizeBytes  int64          `json:"size_bytes"`
	PageCount  int            `json:"page_count"`
}

// MaxFileSize rejects files too large to be a Data Summary; the
// largest legitimate summaries run a few megabytes.
const MaxFileSize = 100 << 20

var pdfHeader = []byte("%PDF-")

// Verifier checks PDF files. Structural validation runs in relaxed
// mode because scanners emit technically invalid but readable PDFs.
type Verifier struct{}

func NewVerifier() *Verifier { return &Verifier{} }

// Verify checks a single file. It never returns a Go error; every
// failure mode is a CorruptionType.
func (v *Verifier) Verify(path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		return Result{Corruption: CorruptionMissing, Detail: err.Error()}
	}
	size := info.Size()
	if size == 0 {
		return Result{Corruption: CorruptionEmpty, Detail: "file is zero bytes", SizeBytes: 0}
	}
	if size > MaxFileSize {
		return Result{
			Corruption: CorruptionNotPDF,
			Detail:     fmt.Sprintf("file is %d bytes, above the %d limit", size, int64(MaxFileSize)),
			SizeBytes:  size,
		}
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return Result{Corruption: CorruptionNotPDF, Detail: "file does not have a .pdf extension", SizeBytes: size}
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{Corruption: CorruptionMissing, Detail: err.Error(), SizeBytes: size}
	}
	defer f.Close()

	header := make([]byte, len(pdfHeader))
	if _, err := f.Read(header); err != nil || string(header) != string(pdfHeader) {
		return Result{Corruption: CorruptionBadHeader, Detail: "missing %PDF- header", SizeBytes: size}
	}
	if _, err := f.Seek(0, 0); err != nil {
		return Result{Corruption: CorruptionUnparseable, Detail: err.Error(), SizeBytes: size}
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return Result{Corruption: CorruptionUnparseable, Detail: err.Error(), SizeBytes: size}
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return Result{Corruption: CorruptionUnparseable, Detail: err.Error(), SizeBytes: size}
	}
	if ctx.Encrypt != nil {
		return Result{
			Corruption: CorruptionEncrypted,
			Detail:     "document is encrypted",
			SizeBytes:  size,
			PageCount:  ctx.PageCount,
		}
	}

	return Result{OK: true, Corruption: CorruptionNone, SizeBytes: size, PageCount: ctx.PageCount}
}
