package models

import "time"

// CandidateSlot is one evaluated start hour for an event.
type CandidateSlot struct {
	Hour        int     `json:"hour"`
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
	Score       float64 `json:"score"`
	Available   bool    `json:"available"`
}

// SlotPrediction is the scored outcome of every candidate hour for one event.
type SlotPrediction struct {
	BestHour    int             `json:"best_hour"`
	BestLabel   string          `json:"best_label"`
	Probability float64         `json:"probability"`
	Score       float64         `json:"score"`
	Confidence  float64         `json:"confidence"`
	Available   bool            `json:"available"`
	Options     []CandidateSlot `json:"options"`
}

// Suggestion proposes moving an event to a better start hour.
type Suggestion struct {
	EventID          string          `json:"event_id"`
	Title            string          `json:"title"`
	CurrentStart     time.Time       `json:"current_start"`
	SuggestedStart   time.Time       `json:"suggested_start"`
	SuggestedEnd     time.Time       `json:"suggested_end"`
	BestHour         int             `json:"best_hour"`
	ImprovementScore float64         `json:"improvement_score"`
	Confidence       float64         `json:"confidence"`
	Reasons          []string        `json:"reasons"`
	Reason           string          `json:"reason"`
	Options          []CandidateSlot `json:"options,omitempty"`
}

// OptimizationStatus tags the outcome of a batch optimization.
type OptimizationStatus string

const (
	OptimizationStatusOK               OptimizationStatus = "ok"
	OptimizationStatusInsufficientData OptimizationStatus = "insufficient_data"
	OptimizationStatusAlreadyOptimal   OptimizationStatus = "already_optimal"
)

// OptimizationResult is the outcome of one optimize pass.
type OptimizationResult struct {
	Status        OptimizationStatus `json:"status"`
	PendingEvents int                `json:"pending_events"`
	Suggestions   []Suggestion       `json:"suggestions"`
	Rejected      []string           `json:"rejected_event_ids,omitempty"`
	ModelVersion  string             `json:"model_version,omitempty"`
}

// ModelStatus describes the artifact bundle currently serving predictions.
type ModelStatus struct {
	Ready       bool       `json:"ready"`
	Dir         string     `json:"dir"`
	Version     string     `json:"version,omitempty"`
	TrainedDate string     `json:"trained_date,omitempty"`
	LoadedAt    *time.Time `json:"loaded_at,omitempty"`
	MissingFile string     `json:"missing_file,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}
