package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// PDFRenderer typesets the report on A4 pages using the core Helvetica font.
type PDFRenderer struct {
	// Compress enables stream compression. Tests turn it off to inspect text.
	Compress bool
}

// NewPDFRenderer returns a renderer with compression enabled.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{Compress: true}
}

// Render implements Renderer.
func (p *PDFRenderer) Render(r *Report, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(p.Compress)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle(r.Title, true)
	pdf.SetCreator("minutes", true)
	if !r.GeneratedAt.IsZero() {
		pdf.SetCreationDate(r.GeneratedAt)
		pdf.SetModificationDate(r.GeneratedAt)
	}
	pdf.AddPage()

	// Core fonts are cp1252; translate so accented names survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, b := range Document(r) {
		switch b.Kind {
		case BlockTitle:
			pdf.SetFont("Helvetica", "B", 18)
			pdf.MultiCell(0, 9, tr(b.Text), "", "C", false)
			pdf.Ln(6)
		case BlockHeading:
			pdf.Ln(3)
			pdf.SetFont("Helvetica", "B", 13)
			pdf.MultiCell(0, 7, tr(b.Text), "", "L", false)
		case BlockText:
			pdf.SetFont("Helvetica", "", 11)
			pdf.MultiCell(0, 6, tr(b.Text), "", "L", false)
		case BlockSection:
			pdf.Ln(5)
			pdf.SetFont("Helvetica", "B", 14)
			pdf.MultiCell(0, 8, tr(b.Text), "", "L", false)
		case BlockSubsection:
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "B", 12)
			pdf.MultiCell(0, 7, tr(b.Text), "", "L", false)
		case BlockBullet:
			pdf.SetFont("Helvetica", "", 11)
			pdf.SetX(pdf.GetX() + 5)
			pdf.MultiCell(0, 6, tr("- "+b.Text), "", "L", false)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("laying out pdf: %w", err)
	}
	return pdf.Output(w)
}
