package formatter

import (
	"bytes"
	"os"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	// pdfFontName is the internal name used by gofpdf
	// for the UTF-8 capable font.
	pdfFontName = "DejaVuSans"

	// In Docker runtime fonts are copied to /app/ttf.
	pdfFontRuntimePath = "ttf/DejaVuSans.ttf"
	pdfFontSourcePath  = "internal/pkg/formatter/ttf/DejaVuSans.ttf"
)

type PDFFormatter struct {
	fontPath string
}

func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{fontPath: resolveFontPath()}
}

// resolveFontPath tries to find the DejaVuSans font in
// runtime layout (next to the binary) or source layout.
func resolveFontPath() string {
	for _, p := range []string{pdfFontRuntimePath, pdfFontSourcePath} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (pf *PDFFormatter) Format(t Transcript) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	fontName := "Arial"
	if pf.fontPath != "" {
		// Register regular, bold and italic styles under the same family name
		pdf.AddUTF8Font(pdfFontName, "", pf.fontPath)
		pdf.AddUTF8Font(pdfFontName, "B", pf.fontPath)
		pdf.AddUTF8Font(pdfFontName, "I", pf.fontPath)
		fontName = pdfFontName
	}

	pdf.SetFont(fontName, "B", 20)
	pdf.Cell(0, 10, t.title())
	pdf.Ln(14)

	for _, m := range t.Messages {
		pdf.SetFont(fontName, "B", 13)
		pdf.Cell(0, 8, roleLabel(m.Role))
		pdf.Ln(9)

		pdf.SetFont(fontName, "", 11)
		_, lineHeight := pdf.GetFontSize()
		pdf.MultiCell(0, lineHeight*1.5, m.Content, "", "", false)

		if len(m.Citations) > 0 {
			pdf.SetFont(fontName, "I", 9)
			_, lineHeight = pdf.GetFontSize()
			for _, c := range m.Citations {
				pdf.MultiCell(0, lineHeight*1.4, "- "+citationLine(c), "", "", false)
			}
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (pf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (pf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
