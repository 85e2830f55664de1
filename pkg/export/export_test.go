package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Enrollment statistics",
		Headers: []string{"date", "enrollments", "revenue"},
		Rows: []map[string]string{
			{"date": "2026-10-01", "enrollments": "2", "revenue": "99.00"},
			{"date": "2026-10-02", "enrollments": "0", "revenue": "0.00"},
		},
		Numeric: map[string]bool{"enrollments": true, "revenue": true},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "date,enrollments,revenue\n2026-10-01,2,99.00\n2026-10-02,0,0.00\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	exporter.now = func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) }

	out, err := exporter.Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, "pdf", exporter.Extension())
}
