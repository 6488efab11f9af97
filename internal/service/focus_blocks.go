package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/smart-planner-api/internal/models"
	appErrors "github.com/noah-isme/smart-planner-api/pkg/errors"
)

// Decompose slices a day's task and class events into alternating focus and
// break blocks. Every other event passes through unchanged. Each focus block
// is focusLen long and is followed by a break whenever at least breakLen
// remains and the break would not consume the rest of the event. A trailing
// remainder shorter than focusLen is dropped.
func Decompose(dayEvents []models.Event, focusLen, breakLen time.Duration) ([]models.FocusBlock, error) {
	if focusLen <= 0 {
		return nil, appErrors.InvalidField("focus_minutes", "must be positive")
	}
	if breakLen < 0 {
		return nil, appErrors.InvalidField("break_minutes", "must not be negative")
	}
	for _, e := range dayEvents {
		if !e.EventType.Valid() {
			return nil, appErrors.InvalidField("event_type", fmt.Sprintf("unsupported value %q", e.EventType))
		}
		if !e.End.After(e.Start) {
			return nil, appErrors.InvalidField("end", "must be after start")
		}
	}

	ordered := append([]models.Event(nil), dayEvents...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start.Before(ordered[j].Start)
	})

	blocks := make([]models.FocusBlock, 0, len(ordered))
	for _, e := range ordered {
		switch e.EventType {
		case models.EventTypeTask, models.EventTypeClass:
			blocks = append(blocks, sliceEvent(e, focusLen, breakLen)...)
		default:
			blocks = append(blocks, models.FocusBlock{
				Title:         e.Title,
				Start:         e.Start,
				End:           e.End,
				Kind:          models.BlockKindPassthrough,
				SourceEventID: e.ID,
				SourceType:    e.EventType,
			})
		}
	}
	return blocks, nil
}

func sliceEvent(e models.Event, focusLen, breakLen time.Duration) []models.FocusBlock {
	var blocks []models.FocusBlock
	cursor := e.Start
	for !cursor.Add(focusLen).After(e.End) {
		focusEnd := cursor.Add(focusLen)
		blocks = append(blocks, models.FocusBlock{
			Title:         e.Title + " - Focus block",
			Start:         cursor,
			End:           focusEnd,
			Kind:          models.BlockKindFocus,
			SourceEventID: e.ID,
			SourceType:    e.EventType,
		})
		cursor = focusEnd

		if breakLen > 0 && cursor.Add(breakLen).Before(e.End) {
			breakEnd := cursor.Add(breakLen)
			blocks = append(blocks, models.FocusBlock{
				Title:         "Break - " + e.Title,
				Start:         cursor,
				End:           breakEnd,
				Kind:          models.BlockKindBreak,
				SourceEventID: e.ID,
				SourceType:    e.EventType,
			})
			cursor = breakEnd
		}
	}
	return blocks
}
