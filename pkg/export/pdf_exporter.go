package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth = 277.0 // A4 landscape minus margins
	pdfRowHeight = 7.0
)

// PDFExporter renders datasets into a tabular PDF with one table per section.
type PDFExporter struct {
	// ColumnWeights sizes columns relative to each other; equal when empty.
	ColumnWeights []float64
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter(weights ...float64) *PDFExporter {
	return &PDFExporter{ColumnWeights: weights}
}

// Render creates a PDF document with a title and a table per section.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("pdf"); err != nil {
		return nil, err
	}
	widths := e.columnWidths(len(data.Headers))

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AliasNbPages("")
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(225, 232, 240)
		for i, h := range data.Headers {
			pdf.CellFormat(widths[i], 8, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, section := range data.Sections {
		if section.Heading != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 9, tr(section.Heading), "", 1, "L", false, 0, "")
		}
		header()
		if len(section.Rows) == 0 {
			pdf.CellFormat(pdfPageWidth, pdfRowHeight, "-", "1", 1, "C", false, 0, "")
		}
		for _, row := range section.Rows {
			if pdf.GetY()+pdfRowHeight > pageHeight-bottom {
				pdf.AddPage()
				header()
			}
			for i, value := range row {
				pdf.CellFormat(widths[i], pdfRowHeight, tr(value), "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) columnWidths(columns int) []float64 {
	widths := make([]float64, columns)
	if len(e.ColumnWeights) != columns {
		for i := range widths {
			widths[i] = pdfPageWidth / float64(columns)
		}
		return widths
	}
	total := 0.0
	for _, w := range e.ColumnWeights {
		total += w
	}
	for i, w := range e.ColumnWeights {
		widths[i] = pdfPageWidth * w / total
	}
	return widths
}
