package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
)

// ErrNoColumns is returned when a dataset has no headers.
var ErrNoColumns = errors.New("export requires at least one column")

// Dataset is a ledger table. Numeric names the columns rendered right
// aligned; Totals, when set, becomes a closing row keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	Numeric []string
	Totals  map[string]string
}

func (d Dataset) record(row map[string]string) []string {
	out := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		out[i] = row[header]
	}
	return out
}

func (d Dataset) isNumeric(header string) bool {
	for _, name := range d.Numeric {
		if name == header {
			return true
		}
	}
	return false
}

// CSVExporter renders a Dataset as RFC 4180 CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the header line, one line per row and the totals line if any.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, ErrNoColumns
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	records := make([][]string, 0, len(data.Rows)+2)
	records = append(records, data.Headers)
	for _, row := range data.Rows {
		records = append(records, data.record(row))
	}
	if len(data.Totals) > 0 {
		records = append(records, data.record(data.Totals))
	}
	if err := writer.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
