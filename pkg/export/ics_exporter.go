package export

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
)

// CalendarEntry is one VEVENT of an exported calendar.
type CalendarEntry struct {
	UID         string
	Summary     string
	Description string
	Category    string
	Start       time.Time
	End         time.Time
}

// ICSExporter renders calendar entries into an iCalendar document.
type ICSExporter struct {
	productID string
	now       func() time.Time
}

// NewICSExporter builds an exporter stamping documents with productID.
func NewICSExporter(productID string) *ICSExporter {
	return &ICSExporter{productID: productID, now: time.Now}
}

// ErrEmptyCalendar is returned when there is nothing to put in a VCALENDAR.
var ErrEmptyCalendar = errors.New("ics: calendar has no entries")

// Render encodes entries as a VCALENDAR.
func (e *ICSExporter) Render(name string, entries []CalendarEntry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyCalendar
	}
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, e.productID)
	if name != "" {
		cal.Props.SetText("X-WR-CALNAME", name)
	}

	stamp := e.now().UTC()
	for i, entry := range entries {
		if entry.UID == "" {
			return nil, fmt.Errorf("ics: entry %d has no uid", i)
		}
		if !entry.End.After(entry.Start) {
			return nil, fmt.Errorf("ics: entry %s ends before it starts", entry.UID)
		}
		ve := ical.NewComponent(ical.CompEvent)
		ve.Props.SetText(ical.PropUID, entry.UID)
		ve.Props.SetText(ical.PropSummary, entry.Summary)
		ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		ve.Props.SetDateTime(ical.PropDateTimeStart, entry.Start.UTC())
		ve.Props.SetDateTime(ical.PropDateTimeEnd, entry.End.UTC())
		if entry.Description != "" {
			ve.Props.SetText(ical.PropDescription, entry.Description)
		}
		if entry.Category != "" {
			ve.Props.SetText(ical.PropCategories, entry.Category)
		}
		cal.Children = append(cal.Children, ve)
	}

	buf := &bytes.Buffer{}
	if err := ical.NewEncoder(buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode ics: %w", err)
	}
	return buf.Bytes(), nil
}
