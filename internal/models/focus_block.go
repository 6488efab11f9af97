package models

import "time"

// BlockKind classifies a decomposed interval.
type BlockKind string

const (
	BlockKindFocus       BlockKind = "focus"
	BlockKindBreak       BlockKind = "break"
	BlockKindPassthrough BlockKind = "passthrough"
)

// FocusBlock is one interval of a decomposed day.
type FocusBlock struct {
	Title         string    `json:"title"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Kind          BlockKind `json:"kind"`
	SourceEventID string    `json:"source_event_id,omitempty"`
	SourceType    EventType `json:"source_type,omitempty"`
}

// Minutes returns the block length in whole minutes.
func (b FocusBlock) Minutes() int {
	return int(b.End.Sub(b.Start) / time.Minute)
}

// DayPlan groups the blocks produced for one calendar date.
type DayPlan struct {
	Date   string       `json:"date"`
	Blocks []FocusBlock `json:"blocks"`
}
