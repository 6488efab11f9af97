package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-planner-api/internal/dto"
	"github.com/noah-isme/smart-planner-api/internal/models"
	appErrors "github.com/noah-isme/smart-planner-api/pkg/errors"
)

type eventLister interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
}

type eventStore interface {
	eventLister
	FindByID(ctx context.Context, userID, id string) (*models.Event, error)
}

type modelProvider interface {
	Model() (SlotModel, error)
	Reload() error
	Ready() bool
	Status() models.ModelStatus
}

// OptimizerServiceConfig governs windows and caching of suggestion runs.
type OptimizerServiceConfig struct {
	WindowDays      int
	DefaultTimezone string
}

// OptimizerService serves schedule suggestions for a user's planner events.
type OptimizerService struct {
	events    eventStore
	models    modelProvider
	policy    *RankingPolicy
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       OptimizerServiceConfig
	now       func() time.Time
}

// NewOptimizerService wires optimizer dependencies.
func NewOptimizerService(
	events eventStore,
	registry modelProvider,
	policy *RankingPolicy,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg OptimizerServiceConfig,
) *OptimizerService {
	if policy == nil {
		policy = DefaultRankingPolicy()
	}
	validate = newRequestValidator(validate)
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 7
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = "UTC"
	}
	svc := &OptimizerService{
		events:    events,
		models:    registry,
		policy:    policy,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
	metrics.SetModelReady(registry.Ready())
	return svc
}

// Suggest runs the optimizer over the user's pending events in the window.
func (s *OptimizerService) Suggest(ctx context.Context, userID string, req dto.SuggestRequest) (*dto.SuggestResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid suggestion payload")
	}
	loc, err := resolveLocation(req.Timezone, s.cfg.DefaultTimezone)
	if err != nil {
		return nil, err
	}
	today := s.now().In(loc)
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	if req.StartDate != "" {
		if start, err = time.ParseInLocation(dto.DateLayout, req.StartDate, loc); err != nil {
			return nil, appErrors.InvalidField("start_date", "must be YYYY-MM-DD")
		}
	}
	end := start.AddDate(0, 0, s.cfg.WindowDays)
	if req.EndDate != "" {
		if end, err = time.ParseInLocation(dto.DateLayout, req.EndDate, loc); err != nil {
			return nil, appErrors.InvalidField("end_date", "must be YYYY-MM-DD")
		}
	}
	if end.Before(start) {
		return nil, appErrors.InvalidField("end_date", "must not be before start_date")
	}

	model, err := s.models.Model()
	if err != nil {
		return nil, err
	}

	cacheKey := SuggestionKey{
		UserID:       userID,
		Start:        start.Format(dto.DateLayout),
		End:          end.Format(dto.DateLayout),
		Timezone:     loc.String(),
		ModelVersion: model.Version(),
	}
	if !req.Refresh {
		if cached, hit := s.cache.Suggestions(ctx, cacheKey); hit {
			return cached, nil
		}
	}

	events, err := s.loadEvents(ctx, models.EventFilter{
		UserID: userID,
		From:   start,
		To:     end.AddDate(0, 0, 1),
	}, loc)
	if err != nil {
		return nil, err
	}

	optimizer, err := NewScheduleOptimizer(model, s.policy, s.logger)
	if err != nil {
		return nil, err
	}
	began := time.Now()
	result, err := optimizer.Optimize(events, start, end)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordOptimization(string(result.Status), len(result.Suggestions), len(result.Rejected), time.Since(began))

	resp := &dto.SuggestResponse{
		RunID:         uuid.NewString(),
		Status:        result.Status,
		Message:       suggestMessage(result),
		StartDate:     start.Format(dto.DateLayout),
		EndDate:       end.Format(dto.DateLayout),
		Timezone:      loc.String(),
		PendingEvents: result.PendingEvents,
		Suggestions:   result.Suggestions,
		Rejected:      result.Rejected,
		ModelVersion:  result.ModelVersion,
		GeneratedAt:   s.now().UTC(),
	}
	s.logger.Info("optimization completed",
		zap.String("run_id", resp.RunID),
		zap.String("user_id", userID),
		zap.String("status", string(result.Status)),
		zap.Int("pending", result.PendingEvents),
		zap.Int("suggestions", len(result.Suggestions)))

	_ = s.cache.StoreSuggestions(ctx, cacheKey, resp)
	return resp, nil
}

func suggestMessage(result *models.OptimizationResult) string {
	switch result.Status {
	case models.OptimizationStatusInsufficientData:
		return fmt.Sprintf("insufficient data: %d pending event(s) in the window", result.PendingEvents)
	case models.OptimizationStatusAlreadyOptimal:
		return "schedule is already optimal"
	default:
		return fmt.Sprintf("%d suggestions found", len(result.Suggestions))
	}
}

// Predict scores the candidate hours of one prospective event against the
// user's events on that date. When the request names an existing event, that
// event must belong to the user; it is left out of the conflict check and its
// due date applies unless the request overrides it.
func (s *OptimizerService) Predict(ctx context.Context, userID string, req dto.PredictRequest) (*dto.PredictResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid prediction payload")
	}
	eventType, err := models.ParseEventType(req.EventType)
	if err != nil {
		return nil, err
	}
	priority, err := models.ParsePriority(req.Priority)
	if err != nil {
		return nil, err
	}
	loc, err := resolveLocation(req.Timezone, s.cfg.DefaultTimezone)
	if err != nil {
		return nil, err
	}
	date, err := time.ParseInLocation(dto.DateLayout, req.Date, loc)
	if err != nil {
		return nil, appErrors.InvalidField("date", "must be YYYY-MM-DD")
	}

	model, err := s.models.Model()
	if err != nil {
		return nil, err
	}

	var moving *models.Event
	if req.EventID != "" {
		if moving, err = s.findEvent(ctx, userID, req.EventID); err != nil {
			return nil, err
		}
	}

	today := s.now().In(loc)
	reference := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	daysToDeadline := DaysToDeadlineFromString(req.DueDate, reference)
	if req.DueDate == "" && moving != nil {
		daysToDeadline = DaysToDeadline(moving.DueDate, reference)
	}
	features := EventFeatures{
		EventType:      eventType,
		Priority:       priority,
		Duration:       RoundDuration(req.DurationHours),
		Weekday:        Weekday(date),
		DaysToDeadline: daysToDeadline,
	}

	dayEvents, err := s.loadEvents(ctx, models.EventFilter{UserID: userID, From: date, To: date.AddDate(0, 0, 1)}, loc)
	if err != nil {
		return nil, err
	}
	others := dayEvents[:0]
	for _, e := range dayEvents {
		if moving != nil && e.ID == moving.ID {
			continue
		}
		others = append(others, e)
	}

	optimizer, err := NewScheduleOptimizer(model, s.policy, s.logger)
	if err != nil {
		return nil, err
	}
	prediction, err := optimizer.PredictBestSlot(features, date, others)
	if err != nil {
		return nil, err
	}

	return &dto.PredictResponse{
		Date:           req.Date,
		Timezone:       loc.String(),
		DaysToDeadline: features.DaysToDeadline,
		ModelVersion:   model.Version(),
		Prediction:     *prediction,
	}, nil
}

// Status reports the model bundle state.
func (s *OptimizerService) Status() models.ModelStatus {
	return s.models.Status()
}

// Ready reports whether suggestions can be served.
func (s *OptimizerService) Ready() bool {
	return s.models.Ready()
}

// Reload re-reads the model artifacts and drops cached suggestion runs.
func (s *OptimizerService) Reload(ctx context.Context) (*dto.ReloadResponse, error) {
	err := s.models.Reload()
	s.metrics.RecordModelReload(err == nil)
	s.metrics.SetModelReady(s.models.Ready())
	if err != nil {
		return nil, err
	}
	_ = s.cache.InvalidateSuggestions(ctx)
	return &dto.ReloadResponse{Reloaded: true, Status: s.models.Status()}, nil
}

func (s *OptimizerService) findEvent(ctx context.Context, userID, id string) (*models.Event, error) {
	began := time.Now()
	event, err := s.events.FindByID(ctx, userID, id)
	s.metrics.ObserveDBQuery("events.find", time.Since(began))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("event %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planner event")
	}
	return event, nil
}

func (s *OptimizerService) loadEvents(ctx context.Context, filter models.EventFilter, loc *time.Location) ([]models.Event, error) {
	began := time.Now()
	events, err := s.events.List(ctx, filter)
	s.metrics.ObserveDBQuery("events.list", time.Since(began))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planner events")
	}
	return inLocation(events, loc), nil
}

// inLocation expresses zoned events in loc so hours and dates are the
// user's wall clock. Floating timestamps are left untouched.
func inLocation(events []models.Event, loc *time.Location) []models.Event {
	out := make([]models.Event, len(events))
	for i, e := range events {
		if !models.IsFloating(e.Start) {
			e.Start = e.Start.In(loc)
			e.End = e.End.In(loc)
		}
		out[i] = e
	}
	return out
}

func resolveLocation(name, fallback string) (*time.Location, error) {
	if name == "" {
		name = fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, appErrors.InvalidField("timezone", fmt.Sprintf("unknown timezone %q", name))
	}
	return loc, nil
}
