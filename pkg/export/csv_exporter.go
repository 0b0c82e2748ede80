package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Column describes one table column. Weight is the relative width share used
// by paged renderers; zero means an equal share.
type Column struct {
	Title  string
	Weight float64
}

// Block is a labelled run of rows, one per day of the week.
type Block struct {
	Label string
	Rows  [][]string
}

// Table is the day-grouped layout shared by every timetable exporter.
type Table struct {
	BlockTitle string
	Columns    []Column
	Blocks     []Block
}

// CSVExporter renders a Table into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render flattens the table: the block label becomes the leading column of
// every row so the day grouping survives in spreadsheet form.
func (e *CSVExporter) Render(t Table) ([]byte, error) {
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("csv requires at least one column")
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	header := make([]string, 0, len(t.Columns)+1)
	header = append(header, t.BlockTitle)
	for _, col := range t.Columns {
		header = append(header, col.Title)
	}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, block := range t.Blocks {
		for _, row := range block.Rows {
			if len(row) != len(t.Columns) {
				return nil, fmt.Errorf("row under %q has %d cells, want %d", block.Label, len(row), len(t.Columns))
			}
			record := make([]string, 0, len(row)+1)
			record = append(record, block.Label)
			record = append(record, row...)
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
