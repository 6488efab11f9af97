package models

import (
	"fmt"
	"strings"
	"time"

	appErrors "github.com/noah-isme/smart-planner-api/pkg/errors"
)

// EventType is the closed set of planner event kinds.
type EventType string

const (
	EventTypeTask     EventType = "task"
	EventTypeClass    EventType = "class"
	EventTypeBreak    EventType = "break"
	EventTypePersonal EventType = "personal"
	EventTypeOther    EventType = "other"
)

// Priority ranks how important an event is to its owner.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// EventTypes lists every valid event type.
var EventTypes = []EventType{EventTypeTask, EventTypeClass, EventTypeBreak, EventTypePersonal, EventTypeOther}

// Priorities lists every valid priority.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Valid reports whether t belongs to the closed enum.
func (t EventType) Valid() bool {
	for _, candidate := range EventTypes {
		if t == candidate {
			return true
		}
	}
	return false
}

// Valid reports whether p belongs to the closed enum.
func (p Priority) Valid() bool {
	for _, candidate := range Priorities {
		if p == candidate {
			return true
		}
	}
	return false
}

// legacy planner rows store localized or finer-grained labels.
var eventTypeAliases = map[string]EventType{
	"task":     EventTypeTask,
	"tarea":    EventTypeTask,
	"study":    EventTypeTask,
	"estudio":  EventTypeTask,
	"project":  EventTypeTask,
	"proyecto": EventTypeTask,
	"exam":     EventTypeTask,
	"examen":   EventTypeTask,
	"class":    EventTypeClass,
	"clase":    EventTypeClass,
	"break":    EventTypeBreak,
	"descanso": EventTypeBreak,
	"personal": EventTypePersonal,
	"other":    EventTypeOther,
	"otro":     EventTypeOther,
}

var priorityAliases = map[string]Priority{
	"high":   PriorityHigh,
	"alta":   PriorityHigh,
	"medium": PriorityMedium,
	"media":  PriorityMedium,
	"low":    PriorityLow,
	"baja":   PriorityLow,
}

// ParseEventType maps a stored label onto the closed enum.
func ParseEventType(raw string) (EventType, error) {
	if t, ok := eventTypeAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t, nil
	}
	return "", appErrors.InvalidField("event_type", fmt.Sprintf("unsupported value %q", raw))
}

// ParsePriority maps a stored label onto the closed enum.
func ParsePriority(raw string) (Priority, error) {
	if p, ok := priorityAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return p, nil
	}
	return "", appErrors.InvalidField("priority", fmt.Sprintf("unsupported value %q", raw))
}

// Floating marks timestamps that were supplied without a UTC offset.
var Floating = time.FixedZone("floating", 0)

// IsFloating reports whether t carries no real offset information.
func IsFloating(t time.Time) bool {
	return t.Location() == Floating
}

// Event is a user commitment owned by the external planner store.
type Event struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Title     string     `db:"title" json:"title"`
	EventType EventType  `db:"event_type" json:"event_type"`
	Priority  Priority   `db:"priority" json:"priority"`
	Start     time.Time  `db:"start_time" json:"start"`
	End       time.Time  `db:"end_time" json:"end"`
	DueDate   *time.Time `db:"due_date" json:"due_date,omitempty"`
	Completed bool       `db:"is_completed" json:"completed"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Duration returns the span between start and end.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Validate enforces the enum and interval invariants.
func (e Event) Validate() error {
	if !e.EventType.Valid() {
		return appErrors.InvalidField("event_type", fmt.Sprintf("unsupported value %q", e.EventType))
	}
	if !e.Priority.Valid() {
		return appErrors.InvalidField("priority", fmt.Sprintf("unsupported value %q", e.Priority))
	}
	if e.Start.IsZero() {
		return appErrors.InvalidField("start", "is required")
	}
	if !e.End.After(e.Start) {
		return appErrors.InvalidField("end", "must be after start")
	}
	if IsFloating(e.Start) != IsFloating(e.End) {
		return appErrors.InvalidField("end", "mixes floating and zoned timestamps")
	}
	return nil
}

// EventFilter narrows event listings for one user.
type EventFilter struct {
	UserID      string
	From        time.Time
	To          time.Time
	PendingOnly bool
}
