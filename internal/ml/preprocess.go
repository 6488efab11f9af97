package ml

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Numeric feature names, in the column order the scaler was fitted with.
const (
	FeatureStartHour      = "start_hour"
	FeatureDuration       = "duration"
	FeatureWeekday        = "weekday"
	FeatureDaysToDeadline = "days_to_deadline"
)

// Categorical fields carried by the encoder artifact.
const (
	FieldEventType = "event_type"
	FieldPriority  = "priority"
)

var numericFeatures = []string{FeatureStartHour, FeatureDuration, FeatureWeekday, FeatureDaysToDeadline}

// ErrUnknownLabel is returned when an encoder never saw a category during training.
var ErrUnknownLabel = errors.New("ml: label not known to encoder")

// LabelEncoder maps categorical labels to their training index.
type LabelEncoder struct {
	index map[string]int
}

// NewLabelEncoder builds an encoder from its ordered class list.
func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, errors.New("encoder has no classes")
	}
	index := make(map[string]int, len(classes))
	for i, class := range classes {
		if _, dup := index[class]; dup {
			return nil, fmt.Errorf("duplicate class %q", class)
		}
		index[class] = i
	}
	return &LabelEncoder{index: index}, nil
}

// Transform returns the encoded value of label.
func (e *LabelEncoder) Transform(label string) (float64, error) {
	i, ok := e.index[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return float64(i), nil
}

// legacyLabels maps canonical labels onto the vocabulary older bundles were
// trained with.
var legacyLabels = map[string][]string{
	"task":   {"tarea", "estudio"},
	"class":  {"clase"},
	"break":  {"descanso"},
	"other":  {"otro"},
	"high":   {"alta"},
	"medium": {"media"},
	"low":    {"baja"},
}

// TransformCanonical encodes label, falling back to its legacy spellings.
func (e *LabelEncoder) TransformCanonical(label string) (float64, error) {
	v, err := e.Transform(label)
	if err == nil {
		return v, nil
	}
	for _, alias := range legacyLabels[label] {
		if v, aliasErr := e.Transform(alias); aliasErr == nil {
			return v, nil
		}
	}
	return 0, err
}

// Encoders groups the per-field label encoders.
type Encoders struct {
	EventType *LabelEncoder
	Priority  *LabelEncoder
}

// DecodeEncoders parses the encoder artifact: a map of field name to class list.
func DecodeEncoders(data []byte) (*Encoders, error) {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode encoders: %w", err)
	}
	eventType, err := buildEncoder(raw, FieldEventType)
	if err != nil {
		return nil, err
	}
	priority, err := buildEncoder(raw, FieldPriority)
	if err != nil {
		return nil, err
	}
	return &Encoders{EventType: eventType, Priority: priority}, nil
}

func buildEncoder(raw map[string][]string, field string) (*LabelEncoder, error) {
	classes, ok := raw[field]
	if !ok {
		return nil, fmt.Errorf("encoder for %s is missing", field)
	}
	enc, err := NewLabelEncoder(classes)
	if err != nil {
		return nil, fmt.Errorf("encoder for %s: %w", field, err)
	}
	return enc, nil
}

// StandardScaler centres and scales the numeric features.
type StandardScaler struct {
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
}

// DecodeScaler parses the scaler artifact.
func DecodeScaler(data []byte) (*StandardScaler, error) {
	var s StandardScaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}
	if len(s.Features) == 0 {
		s.Features = append([]string(nil), numericFeatures...)
	}
	if len(s.Features) != len(numericFeatures) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(numericFeatures), len(s.Features))
	}
	for i, name := range numericFeatures {
		if s.Features[i] != name {
			return nil, fmt.Errorf("scaler feature %d is %q, want %q", i, s.Features[i], name)
		}
	}
	if len(s.Mean) != len(s.Features) || len(s.Scale) != len(s.Features) {
		return nil, errors.New("scaler mean/scale length mismatch")
	}
	return &s, nil
}

// Transform scales values given in numeric feature order.
func (s *StandardScaler) Transform(values []float64) ([]float64, error) {
	if len(values) != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d, want %d", errFeatureCount, len(values), len(s.Mean))
	}
	out := make([]float64, len(values))
	for i, v := range values {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}
