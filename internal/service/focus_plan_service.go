package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-planner-api/internal/dto"
	"github.com/noah-isme/smart-planner-api/internal/models"
	appErrors "github.com/noah-isme/smart-planner-api/pkg/errors"
	"github.com/noah-isme/smart-planner-api/pkg/export"
)

// focusBlockNamespace derives stable calendar UIDs for exported blocks.
var focusBlockNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("smart-planner/focus-blocks"))

var focusPlanHeaders = []string{"date", "start", "end", "minutes", "kind", "title", "source_event_id"}

// FocusPlanConfig holds the default cadence and horizon of focus plans.
type FocusPlanConfig struct {
	FocusMinutes    int
	BreakMinutes    int
	HorizonDays     int
	DefaultTimezone string
}

// FocusPlanService builds day-by-day focus plans from planner events.
type FocusPlanService struct {
	events    eventLister
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       FocusPlanConfig
	now       func() time.Time
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	ics       *export.ICSExporter
}

// NewFocusPlanService wires focus plan dependencies.
func NewFocusPlanService(events eventLister, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg FocusPlanConfig) *FocusPlanService {
	validate = newRequestValidator(validate)
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FocusMinutes <= 0 {
		cfg.FocusMinutes = 25
	}
	if cfg.BreakMinutes < 0 {
		cfg.BreakMinutes = 5
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 7
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = "UTC"
	}
	return &FocusPlanService{
		events:    events,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(2, 1, 1, 1, 1, 5, 3),
		ics:       export.NewICSExporter("-//smart-planner//focus-blocks//EN"),
	}
}

// Plan decomposes each day of the horizon into focus and break blocks.
func (s *FocusPlanService) Plan(ctx context.Context, userID string, query dto.FocusPlanQuery) (*dto.FocusPlanResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err, "invalid focus plan query")
	}
	loc, err := resolveLocation(query.Timezone, s.cfg.DefaultTimezone)
	if err != nil {
		return nil, err
	}
	today := s.now().In(loc)
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	if query.StartDate != "" {
		if start, err = time.ParseInLocation(dto.DateLayout, query.StartDate, loc); err != nil {
			return nil, appErrors.InvalidField("start_date", "must be YYYY-MM-DD")
		}
	}
	days := query.Days
	if days == 0 {
		days = s.cfg.HorizonDays
	}
	focusMinutes := query.FocusMinutes
	if focusMinutes == 0 {
		focusMinutes = s.cfg.FocusMinutes
	}
	breakMinutes := s.cfg.BreakMinutes
	if query.BreakMinutes != nil {
		breakMinutes = *query.BreakMinutes
	}

	began := time.Now()
	events, err := s.events.List(ctx, models.EventFilter{
		UserID:      userID,
		From:        start,
		To:          start.AddDate(0, 0, days),
		PendingOnly: true,
	})
	s.metrics.ObserveDBQuery("events.list", time.Since(began))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planner events")
	}

	byDate := make(map[string][]models.Event, days)
	for _, e := range inLocation(events, loc) {
		if err := e.Validate(); err != nil {
			s.logger.Warn("event skipped in focus plan", zap.String("event_id", e.ID), zap.Error(err))
			continue
		}
		key := e.Start.Format(dto.DateLayout)
		byDate[key] = append(byDate[key], e)
	}

	resp := &dto.FocusPlanResponse{
		Timezone:     loc.String(),
		FocusMinutes: focusMinutes,
		BreakMinutes: breakMinutes,
		Days:         make([]models.DayPlan, 0, days),
	}
	counts := map[models.BlockKind]int{}
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format(dto.DateLayout)
		blocks, err := Decompose(byDate[date], time.Duration(focusMinutes)*time.Minute, time.Duration(breakMinutes)*time.Minute)
		if err != nil {
			return nil, err
		}
		for _, b := range blocks {
			counts[b.Kind]++
			if b.Kind == models.BlockKindFocus {
				resp.TotalFocusMinutes += b.Minutes()
			}
		}
		resp.Days = append(resp.Days, models.DayPlan{Date: date, Blocks: blocks})
	}
	for kind, count := range counts {
		s.metrics.RecordFocusBlocks(string(kind), count)
	}
	s.logger.Debug("focus plan built",
		zap.String("user_id", userID),
		zap.String("start_date", start.Format(dto.DateLayout)),
		zap.Int("days", days),
		zap.Int("focus_minutes_total", resp.TotalFocusMinutes))

	return resp, nil
}

// Export renders a focus plan as csv, pdf or ics.
func (s *FocusPlanService) Export(ctx context.Context, userID string, query dto.FocusPlanQuery, format string) (*dto.ExportFile, error) {
	if format == "" {
		format = dto.ExportFormatCSV
	}
	query.Format = format
	plan, err := s.Plan(ctx, userID, query)
	if err != nil {
		return nil, err
	}
	first := plan.Days[0].Date
	filename := fmt.Sprintf("focus-plan-%s.%s", first, format)

	switch format {
	case dto.ExportFormatCSV:
		content, err := s.csv.Render(planDataset(plan))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &dto.ExportFile{Filename: filename, ContentType: "text/csv; charset=utf-8", Content: content}, nil
	case dto.ExportFormatPDF:
		content, err := s.pdf.Render(planDataset(plan))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &dto.ExportFile{Filename: filename, ContentType: "application/pdf", Content: content}, nil
	case dto.ExportFormatICS:
		content, err := s.ics.Render("Focus plan", planEntries(userID, plan))
		if errors.Is(err, export.ErrEmptyCalendar) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no focus blocks in the selected range")
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar")
		}
		return &dto.ExportFile{Filename: filename, ContentType: "text/calendar; charset=utf-8", Content: content}, nil
	default:
		return nil, appErrors.InvalidField("format", fmt.Sprintf("unsupported value %q", format))
	}
}

func planDataset(plan *dto.FocusPlanResponse) export.Dataset {
	data := export.Dataset{
		Title:   fmt.Sprintf("Focus plan (%d/%d min, %s)", plan.FocusMinutes, plan.BreakMinutes, plan.Timezone),
		Headers: focusPlanHeaders,
	}
	for _, day := range plan.Days {
		section := export.Section{Heading: day.Date}
		if len(day.Blocks) > 0 {
			section.Heading = fmt.Sprintf("%s %s", day.Blocks[0].Start.Weekday(), day.Date)
		}
		for _, b := range day.Blocks {
			section.Rows = append(section.Rows, []string{
				day.Date,
				b.Start.Format("15:04"),
				b.End.Format("15:04"),
				strconv.Itoa(b.Minutes()),
				string(b.Kind),
				b.Title,
				b.SourceEventID,
			})
		}
		data.Sections = append(data.Sections, section)
	}
	return data
}

// planEntries lists focus and break blocks; passthrough events already live
// in the user's calendar.
func planEntries(userID string, plan *dto.FocusPlanResponse) []export.CalendarEntry {
	var entries []export.CalendarEntry
	for _, day := range plan.Days {
		for _, b := range day.Blocks {
			if b.Kind == models.BlockKindPassthrough {
				continue
			}
			name := fmt.Sprintf("%s/%s/%s/%d", userID, b.SourceEventID, b.Kind, b.Start.Unix())
			entries = append(entries, export.CalendarEntry{
				UID:         uuid.NewSHA1(focusBlockNamespace, []byte(name)).String(),
				Summary:     b.Title,
				Description: fmt.Sprintf("%d minute %s block", b.Minutes(), b.Kind),
				Category:    string(b.Kind),
				Start:       b.Start,
				End:         b.End,
			})
		}
	}
	return entries
}
