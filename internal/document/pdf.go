package document

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/brogergvhs/novelgrab/internal/text"
)

const pdfFontFamily = "novel"

// PDF writes an A4 document with one bookmark per chapter. FontPath should
// name a UTF-8 TrueType font covering CJK; without it the core Helvetica
// font is used and characters outside cp1252 are lost.
type PDF struct {
	FontPath string
}

func (PDF) Extension() string { return ".pdf" }

func (p PDF) Assemble(w io.Writer, b Book, opts Options) error {
	list, err := entries(b, opts)
	if err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(b.Title, true)
	pdf.SetAuthor(b.Author, true)
	pdf.SetCreator("novelgrab", true)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if p.FontPath != "" {
		pdf.AddUTF8Font(pdfFontFamily, "", p.FontPath)
		family = pdfFontFamily
		tr = func(s string) string { return s }
	}
	if pdf.Err() {
		return fmt.Errorf("pdf font %s: %w", p.FontPath, pdf.Error())
	}
	render := func(s string) string { return tr(text.RenderRuby(s, plainRuby)) }

	// title page
	pdf.AddPage()
	pdf.SetFont(family, "", 24)
	pdf.Ln(60)
	pdf.MultiCell(0, 12, render(b.Title), "", "C", false)
	if b.Author != "" {
		pdf.Ln(6)
		pdf.SetFont(family, "", 14)
		pdf.MultiCell(0, 8, render(b.Author), "", "C", false)
	}

	for _, e := range list {
		pdf.AddPage()
		pdf.Bookmark(render(e.Title), 0, -1)

		pdf.SetFont(family, "", 16)
		pdf.MultiCell(0, 9, render(e.Title), "", "L", false)
		pdf.Ln(4)

		pdf.SetFont(family, "", 11)
		for _, para := range paragraphs(e.Body) {
			pdf.MultiCell(0, 6, render(para), "", "L", false)
			pdf.Ln(2)
		}
	}

	if pdf.Err() {
		return fmt.Errorf("pdf: %w", pdf.Error())
	}
	return pdf.Output(w)
}
