package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Reminders",
		Headers: []string{"Grievance ID", "Department"},
		Rows: []map[string]string{
			{"Grievance ID": "GR-2025-ABC123", "Department": "Public Works Department"},
			{"Department": "Finance Department"},
		},
	}
}

func TestRenderCSVOrdersColumnsByHeader(t *testing.T) {
	out, err := RenderCSV(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Grievance ID,Department\nGR-2025-ABC123,Public Works Department\n,Finance Department\n", string(out))
}

func TestRenderPDFProducesDocument(t *testing.T) {
	out, err := Render(sampleDataset(), FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRejectsMissingHeaders(t *testing.T) {
	_, err := Render(Dataset{}, FormatCSV)
	assert.Error(t, err)
	_, err = Render(Dataset{}, FormatPDF)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestTruncateKeepsRunes(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
}
