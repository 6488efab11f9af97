package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-planner-api/internal/dto"
	"github.com/noah-isme/smart-planner-api/internal/models"
	appErrors "github.com/noah-isme/smart-planner-api/pkg/errors"
)

func newFocusPlanFixture(events ...models.Event) (*FocusPlanService, *stubEventLister) {
	lister := &stubEventLister{events: events}
	svc := NewFocusPlanService(lister, NewMetricsService(), nil, zap.NewNop(), FocusPlanConfig{
		FocusMinutes:    25,
		BreakMinutes:    5,
		HorizonDays:     7,
		DefaultTimezone: "UTC",
	})
	svc.now = func() time.Time { return at(25, 10, 0) }
	return svc, lister
}

func plannerWeek() []models.Event {
	done := event("done", models.EventTypeTask, models.PriorityHigh, at(25, 11, 0), time.Hour)
	done.Completed = true
	broken := event("broken", models.EventTypeTask, models.PriorityHigh, at(27, 11, 0), time.Hour)
	broken.End = broken.Start.Add(-time.Minute)
	return []models.Event{
		event("class", models.EventTypeClass, models.PriorityMedium, at(25, 8, 0), time.Hour),
		event("gym", models.EventTypePersonal, models.PriorityLow, at(25, 18, 0), time.Hour),
		event("essay", models.EventTypeTask, models.PriorityHigh, at(26, 14, 0), 25*time.Minute),
		done,
		broken,
	}
}

func TestPlanBuildsEveryDayOfTheHorizon(t *testing.T) {
	svc, lister := newFocusPlanFixture(plannerWeek()...)

	plan, err := svc.Plan(context.Background(), "user-1", dto.FocusPlanQuery{})
	require.NoError(t, err)

	require.Len(t, plan.Days, 7)
	assert.Equal(t, "2025-06-25", plan.Days[0].Date)
	assert.Equal(t, "2025-07-01", plan.Days[6].Date)
	assert.Len(t, plan.Days[0].Blocks, 4)
	assert.Equal(t, models.BlockKindPassthrough, plan.Days[0].Blocks[3].Kind)
	assert.Len(t, plan.Days[1].Blocks, 1)
	assert.Empty(t, plan.Days[2].Blocks, "events with an inverted interval are skipped")
	assert.Equal(t, 75, plan.TotalFocusMinutes)
	assert.Equal(t, 25, plan.FocusMinutes)
	assert.Equal(t, 5, plan.BreakMinutes)

	require.Len(t, lister.filters, 1)
	assert.True(t, lister.filters[0].PendingOnly)
	assert.Equal(t, time.Date(2025, time.July, 2, 0, 0, 0, 0, time.UTC), lister.filters[0].To)
}

func TestPlanGroupsEventsByLocalDate(t *testing.T) {
	late := event("late", models.EventTypeTask, models.PriorityMedium, time.Date(2025, time.June, 26, 3, 0, 0, 0, time.UTC), time.Hour)
	svc, _ := newFocusPlanFixture(late)

	plan, err := svc.Plan(context.Background(), "user-1", dto.FocusPlanQuery{Timezone: "America/Guayaquil", Days: 2})
	require.NoError(t, err)

	assert.Equal(t, "America/Guayaquil", plan.Timezone)
	require.Len(t, plan.Days, 2)
	require.Len(t, plan.Days[0].Blocks, 3)
	assert.Equal(t, 22, plan.Days[0].Blocks[0].Start.Hour())
	assert.Empty(t, plan.Days[1].Blocks)
}

func TestPlanHonoursCadenceOverrides(t *testing.T) {
	svc, _ := newFocusPlanFixture(plannerWeek()...)
	noBreaks := 0

	plan, err := svc.Plan(context.Background(), "user-1", dto.FocusPlanQuery{StartDate: "2025-06-25", Days: 1, BreakMinutes: &noBreaks})
	require.NoError(t, err)

	kinds := []models.BlockKind{}
	for _, b := range plan.Days[0].Blocks {
		kinds = append(kinds, b.Kind)
	}
	assert.Equal(t, []models.BlockKind{models.BlockKindFocus, models.BlockKindFocus, models.BlockKindPassthrough}, kinds)
	assert.Equal(t, 50, plan.TotalFocusMinutes)
}

func TestPlanRejectsInvalidQuery(t *testing.T) {
	svc, lister := newFocusPlanFixture()
	ctx := context.Background()

	_, err := svc.Plan(ctx, "user-1", dto.FocusPlanQuery{Days: 90})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, "days", appErrors.FromError(err).Field)
	_, err = svc.Plan(ctx, "user-1", dto.FocusPlanQuery{FocusMinutes: 1})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.Plan(ctx, "user-1", dto.FocusPlanQuery{StartDate: "next week"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, lister.filters)
}

func TestExportCSV(t *testing.T) {
	svc, _ := newFocusPlanFixture(plannerWeek()...)

	file, err := svc.Export(context.Background(), "user-1", dto.FocusPlanQuery{}, dto.ExportFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "focus-plan-2025-06-25.csv", file.Filename)
	lines := strings.Split(strings.TrimSpace(string(file.Content)), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "date,start,end,minutes,kind,title,source_event_id", lines[0])
	assert.Equal(t, "2025-06-25,08:25,08:30,5,break,Break - Event class,class", lines[2])
}

func TestExportPDF(t *testing.T) {
	svc, _ := newFocusPlanFixture(plannerWeek()...)

	file, err := svc.Export(context.Background(), "user-1", dto.FocusPlanQuery{}, dto.ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF-")))
}

func uidLines(content []byte) []string {
	var uids []string
	for _, line := range strings.Split(string(content), "\n") {
		if strings.HasPrefix(line, "UID:") {
			uids = append(uids, strings.TrimSpace(line))
		}
	}
	return uids
}

func TestExportICSSkipsPassthroughAndKeepsStableUIDs(t *testing.T) {
	svc, _ := newFocusPlanFixture(plannerWeek()...)
	ctx := context.Background()

	first, err := svc.Export(ctx, "user-1", dto.FocusPlanQuery{}, dto.ExportFormatICS)
	require.NoError(t, err)
	second, err := svc.Export(ctx, "user-1", dto.FocusPlanQuery{}, dto.ExportFormatICS)
	require.NoError(t, err)

	assert.Equal(t, 4, bytes.Count(first.Content, []byte("BEGIN:VEVENT")))
	assert.NotContains(t, string(first.Content), "Event gym")
	assert.Equal(t, uidLines(first.Content), uidLines(second.Content))
	assert.Equal(t, "text/calendar; charset=utf-8", first.ContentType)
}

func TestExportICSWithNothingToExport(t *testing.T) {
	svc, _ := newFocusPlanFixture()

	_, err := svc.Export(context.Background(), "user-1", dto.FocusPlanQuery{}, dto.ExportFormatICS)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc, _ := newFocusPlanFixture(plannerWeek()...)

	_, err := svc.Export(context.Background(), "user-1", dto.FocusPlanQuery{}, "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
