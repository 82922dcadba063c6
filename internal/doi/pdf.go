package doi

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// maxPDFPages bounds how far into a PDF FromPDF looks.
const maxPDFPages = 3

// PDFMatch is a DOI read from a publication PDF.
type PDFMatch struct {
	DOI  string // Normalized
	Page int    // 1-based page the DOI was found on
}

// Found reports whether a DOI was located.
func (m PDFMatch) Found() bool { return m.DOI != "" }

// FromPDF scans the leading pages of a publication PDF for a DOI. A zero
// PDFMatch with a nil error means none of the scanned pages carried one.
func FromPDF(path string) (PDFMatch, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return PDFMatch{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	last := min(r.NumPage(), maxPDFPages)
	for n := 1; n <= last; n++ {
		if found := Find(pageText(r.Page(n))); found != "" {
			return PDFMatch{DOI: Normalize(found), Page: n}, nil
		}
	}
	return PDFMatch{}, nil
}

// pageText returns a page's plain text; blank and unreadable pages give "".
func pageText(p pdf.Page) string {
	if p.V.IsNull() {
		return ""
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}
