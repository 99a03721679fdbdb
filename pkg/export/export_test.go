package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledger() Dataset {
	return Dataset{
		Headers: []string{"Title", "Amount"},
		Rows: []map[string]string{
			{"Title": "Plumbing Repair", "Amount": "120.50"},
			{"Title": "Paint, brushes", "Amount": "35.00"},
		},
		Numeric: []string{"Amount"},
		Totals:  map[string]string{"Title": "Total", "Amount": "155.50"},
	}
}

func TestCSVRendersTotalsAndQuotes(t *testing.T) {
	out, err := NewCSVExporter().Render(ledger())
	require.NoError(t, err)

	assert.Equal(t, "Title,Amount\nPlumbing Repair,120.50\n\"Paint, brushes\",35.00\nTotal,155.50\n", string(out))
}

func TestCSVWithoutHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.ErrorIs(t, err, ErrNoColumns)
}

func TestPDFRendersDocument(t *testing.T) {
	exporter := NewPDFExporter()
	exporter.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }

	out, err := exporter.Render(ledger(), "Expenses")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF-"))
}

func TestPDFWideLedgerManyRows(t *testing.T) {
	data := Dataset{Headers: []string{"A", "B", "C", "D", "E", "F", "G", "H"}}
	for i := 0; i < 120; i++ {
		data.Rows = append(data.Rows, map[string]string{"A": "x", "H": "1.00"})
	}

	out, err := NewPDFExporter().Render(data, "")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestPDFWithoutHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "Empty")
	assert.ErrorIs(t, err, ErrNoColumns)
}
