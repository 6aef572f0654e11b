package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is a rendered report table: ordered headers with row cells
// aligned to them. Title is used by renderers that can display one.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// CSVExporter encodes report tables as CSV downloads.
type CSVExporter struct{}

// NewCSVExporter constructs CSVExporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the header line followed by every row. Rows shorter than
// the header are padded with empty cells.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv export needs headers")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		copy(record, row)
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
