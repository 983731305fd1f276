package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets as a list of records, one labelled block per row.
type PDFExporter struct {
	// Emphasis names the column printed as the block heading, e.g. "title".
	Emphasis string
}

// NewPDFExporter constructs a PDF exporter that headlines the given column.
func NewPDFExporter(emphasis string) *PDFExporter {
	return &PDFExporter{Emphasis: emphasis}
}

// ContentType is the media type of rendered documents.
func (e *PDFExporter) ContentType() string {
	return "application/pdf"
}

// Render creates an A4 document with an optional title followed by the dataset rows.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	// Core fonts are cp1252; author names routinely carry accents.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.MultiCell(0, 8, tr(title), "", "C", false)
		pdf.Ln(4)
	}

	for i, row := range data.Rows {
		if heading := row[e.Emphasis]; e.Emphasis != "" && heading != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("%d. %s", i+1, heading)), "", "L", false)
		}
		for _, header := range data.Headers {
			if header == e.Emphasis {
				continue
			}
			value := row[header]
			if value == "" {
				continue
			}
			pdf.SetFont("Arial", "B", 9)
			pdf.CellFormat(30, 5, tr(header), "", 0, "L", false, 0, "")
			pdf.SetFont("Arial", "", 9)
			pdf.MultiCell(0, 5, tr(value), "", "L", false)
		}
		pdf.Ln(3)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
