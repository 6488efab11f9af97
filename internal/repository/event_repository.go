package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/smart-planner-api/internal/models"
)

const eventColumns = "id, user_id, title, event_type, priority, start_time, end_time, due_date, is_completed, created_at, updated_at"

// EventRepository reads planner events. Events are owned by the planner
// application, so this repository never writes them.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

type eventRow struct {
	ID        string       `db:"id"`
	UserID    string       `db:"user_id"`
	Title     string       `db:"title"`
	EventType string       `db:"event_type"`
	Priority  string       `db:"priority"`
	Start     time.Time    `db:"start_time"`
	End       time.Time    `db:"end_time"`
	DueDate   sql.NullTime `db:"due_date"`
	Completed bool         `db:"is_completed"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

// stored labels outside the enum fall back to other/medium
func (r eventRow) toModel() models.Event {
	eventType, err := models.ParseEventType(r.EventType)
	if err != nil {
		eventType = models.EventTypeOther
	}
	priority, err := models.ParsePriority(r.Priority)
	if err != nil {
		priority = models.PriorityMedium
	}
	event := models.Event{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		EventType: eventType,
		Priority:  priority,
		Start:     r.Start,
		End:       r.End,
		Completed: r.Completed,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.DueDate.Valid {
		due := r.DueDate.Time
		event.DueDate = &due
	}
	return event
}

// List returns a user's events starting in [From, To), ordered by start time.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	if filter.UserID == "" {
		return nil, fmt.Errorf("list events: user id is required")
	}
	conditions := []string{"user_id = $1"}
	args := []interface{}{filter.UserID}

	if !filter.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", len(args)+1))
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("start_time < $%d", len(args)+1))
		args = append(args, filter.To)
	}
	if filter.PendingOnly {
		conditions = append(conditions, "is_completed = FALSE")
	}

	query := fmt.Sprintf("SELECT %s FROM planner_events WHERE %s ORDER BY start_time ASC, id ASC", eventColumns, strings.Join(conditions, " AND "))
	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]models.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toModel())
	}
	return events, nil
}

// FindByID fetches one of the user's events.
func (r *EventRepository) FindByID(ctx context.Context, userID, id string) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM planner_events WHERE id = $1 AND user_id = $2", eventColumns)
	var row eventRow
	if err := r.db.GetContext(ctx, &row, query, id, userID); err != nil {
		return nil, err
	}
	event := row.toModel()
	return &event, nil
}
