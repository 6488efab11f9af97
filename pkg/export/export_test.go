package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Focus plan",
		Headers: []string{"date", "start", "end", "kind", "title"},
		Sections: []Section{
			{Heading: "Wednesday 2025-06-25", Rows: [][]string{
				{"2025-06-25", "08:00", "08:25", "focus", "Álgebra - Focus block"},
				{"2025-06-25", "08:25", "08:30", "break", "Break - Álgebra"},
			}},
			{Heading: "Thursday 2025-06-26"},
		},
	}
}

func TestCSVRendersRowsUnderHeaders(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,start,end,kind,title", lines[0])
	assert.Equal(t, "2025-06-25,08:25,08:30,break,Break - Álgebra", lines[2])
}

func TestExportersRejectRaggedRows(t *testing.T) {
	data := sampleDataset()
	data.Sections[0].Rows[1] = []string{"2025-06-25"}

	_, err := NewCSVExporter().Render(data)
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(data)
	assert.Error(t, err)
	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRendersDocument(t *testing.T) {
	data := sampleDataset()
	for i := 0; i < 60; i++ {
		data.Sections[1].Rows = append(data.Sections[1].Rows, []string{"2025-06-26", "09:00", "09:25", "focus", "Essay"})
	}

	out, err := NewPDFExporter(1, 1, 1, 1, 3).Render(data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, 62, data.RowCount())
}

func TestPDFColumnWidthsFollowWeights(t *testing.T) {
	widths := NewPDFExporter(1, 3).columnWidths(2)
	assert.InDelta(t, pdfPageWidth/4, widths[0], 1e-9)
	assert.InDelta(t, pdfPageWidth*3/4, widths[1], 1e-9)

	equal := NewPDFExporter(1).columnWidths(2)
	assert.InDelta(t, equal[0], equal[1], 1e-9)
}

func TestICSRendersEvents(t *testing.T) {
	exporter := NewICSExporter("-//smart-planner//focus-blocks//EN")
	exporter.now = func() time.Time { return time.Date(2025, time.June, 24, 12, 0, 0, 0, time.UTC) }
	guayaquil := time.FixedZone("ECT", -5*3600)
	start := time.Date(2025, time.June, 25, 8, 0, 0, 0, guayaquil)

	out, err := exporter.Render("Focus plan", []CalendarEntry{{
		UID:      "evt-1-0@smart-planner",
		Summary:  "Essay - Focus block",
		Category: "focus",
		Start:    start,
		End:      start.Add(25 * time.Minute),
	}})
	require.NoError(t, err)

	cal, err := ical.NewDecoder(bytes.NewReader(out)).Decode()
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)
	summary, err := events[0].Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Essay - Focus block", summary)
	decodedStart, err := events[0].DateTimeStart(time.UTC)
	require.NoError(t, err)
	assert.True(t, start.Equal(decodedStart))
	assert.Contains(t, string(out), "DTSTART:20250625T130000Z")
}

func TestICSRejectsInvalidEntries(t *testing.T) {
	exporter := NewICSExporter("-//test//EN")
	_, err := exporter.Render("", nil)
	assert.ErrorIs(t, err, ErrEmptyCalendar)

	now := time.Now()
	_, err = exporter.Render("", []CalendarEntry{{Summary: "x", Start: now, End: now.Add(time.Minute)}})
	assert.Error(t, err)
	_, err = exporter.Render("", []CalendarEntry{{UID: "a", Start: now, End: now}})
	assert.Error(t, err)
}
