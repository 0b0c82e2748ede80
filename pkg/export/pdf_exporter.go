package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders a Table into a banded landscape PDF, one band per day.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render draws each block as a shaded day band followed by its column
// headers and rows. Empty blocks are skipped.
func (e *PDFExporter) Render(t Table, title string) ([]byte, error) {
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("pdf requires at least one column")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	pageWidth, _ := pdf.GetPageSize()
	usable := pageWidth - 20
	widths := columnWidths(t.Columns, usable)

	for _, block := range t.Blocks {
		if len(block.Rows) == 0 {
			continue
		}

		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(usable, 8, block.Label, "1", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "B", 9)
		for i, col := range t.Columns {
			pdf.CellFormat(widths[i], 7, col.Title, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range block.Rows {
			for i, cell := range row {
				pdf.CellFormat(widths[i], 7, cell, "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(3)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(columns []Column, usable float64) []float64 {
	total := 0.0
	for _, col := range columns {
		if col.Weight > 0 {
			total += col.Weight
		} else {
			total += 1
		}
	}

	widths := make([]float64, len(columns))
	for i, col := range columns {
		weight := col.Weight
		if weight <= 0 {
			weight = 1
		}
		widths[i] = usable * weight / total
	}
	return widths
}
