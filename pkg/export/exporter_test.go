package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Columns: []Column{{Key: "number", Label: "Leiternummer", Width: 18}, {Key: "location", Label: "Standort"}},
		Rows: []map[string]string{
			{"number": "L-001", "location": "Halle 1"},
			{"number": "L-002", "location": "Büro; 2. OG"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, utf8BOM))
	body := string(out[len(utf8BOM):])
	assert.Equal(t, "Leiternummer;Standort\nL-001;Halle 1\nL-002;\"Büro; 2. OG\"\n", body)
}

func TestExportersRejectEmptyColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewXLSXExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset(), "Leitern")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Leitern", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Leiternummer", header)
	value, err := f.GetCellValue("Leitern", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Büro; 2. OG", value)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Leiterregister")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRenderDocument(t *testing.T) {
	data := sampleDataset()
	out, err := NewPDFExporter().RenderDocument(Document{
		Title:  "Prüfprotokoll",
		Footer: "Leiterprüfung",
		Sections: []Section{
			{Heading: "Leiter", Fields: []Field{{Label: "Nummer", Value: "L-001"}}},
			{Heading: "Prüfpunkte", Table: &data},
			{Heading: "Bemerkungen", Text: "Keine"},
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestDatasetWeights(t *testing.T) {
	w := Dataset{Columns: []Column{{Width: 3}, {}}}.weights(100)
	assert.InDelta(t, 75, w[0], 0.001)
	assert.InDelta(t, 25, w[1], 0.001)
}
