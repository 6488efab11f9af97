// Package ml loads the pretrained schedule classifier and its preprocessors.
package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Artifact file names inside a bundle directory.
const (
	ClassifierFile = "smart_scheduler_model.json"
	EncodersFile   = "smart_scheduler_encoders.json"
	ScalerFile     = "smart_scheduler_scaler.json"
	MetadataFile   = "smart_scheduler_metadata.json"
)

// Metadata is informational only.
type Metadata struct {
	Version     string         `json:"version"`
	TrainedDate string         `json:"trained_date"`
	Extra       map[string]any `json:"-"`
}

// LoadError reports which required artifact could not be used.
type LoadError struct {
	Dir  string
	File string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("model artifact %s in %s: %v", e.File, e.Dir, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ErrMissingArtifact marks a required file that does not exist.
var ErrMissingArtifact = errors.New("artifact not found")

// FieldError ties an encoding failure to the input field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %v", e.Field, e.Err) }

func (e *FieldError) Unwrap() error { return e.Err }

// EncodedWidth is the length of the vector produced by Bundle.Encode.
const EncodedWidth = 6

// Features is the raw, unencoded input for one candidate hour.
type Features struct {
	EventType      string
	Priority       string
	StartHour      float64
	Duration       float64
	Weekday        int
	DaysToDeadline int
}

// Bundle is an immutable classifier with its preprocessors.
type Bundle struct {
	classifier Classifier
	encoders   *Encoders
	scaler     *StandardScaler
	metadata   *Metadata

	metadataErr error
}

// NewBundle assembles a bundle from already decoded parts. The classifier must
// accept the encoded feature vector.
func NewBundle(classifier Classifier, encoders *Encoders, scaler *StandardScaler, metadata *Metadata) (*Bundle, error) {
	if classifier == nil || encoders == nil || scaler == nil {
		return nil, errors.New("ml: classifier, encoders and scaler are required")
	}
	if n := classifier.NumFeatures(); n != EncodedWidth {
		return nil, fmt.Errorf("%w: classifier expects %d features, bundle encodes %d", errFeatureCount, n, EncodedWidth)
	}
	return &Bundle{classifier: classifier, encoders: encoders, scaler: scaler, metadata: metadata}, nil
}

// Load reads a bundle directory. Any missing or corrupt required artifact
// yields a *LoadError. Metadata problems never block loading; they are kept
// on the bundle and exposed through MetadataWarning.
func Load(dir string) (*Bundle, error) {
	classifierRaw, err := readRequired(dir, ClassifierFile)
	if err != nil {
		return nil, err
	}
	encodersRaw, err := readRequired(dir, EncodersFile)
	if err != nil {
		return nil, err
	}
	scalerRaw, err := readRequired(dir, ScalerFile)
	if err != nil {
		return nil, err
	}

	classifier, err := DecodeClassifier(classifierRaw)
	if err != nil {
		return nil, &LoadError{Dir: dir, File: ClassifierFile, Err: err}
	}
	encoders, err := DecodeEncoders(encodersRaw)
	if err != nil {
		return nil, &LoadError{Dir: dir, File: EncodersFile, Err: err}
	}
	scaler, err := DecodeScaler(scalerRaw)
	if err != nil {
		return nil, &LoadError{Dir: dir, File: ScalerFile, Err: err}
	}

	metadata, metaErr := readMetadata(dir)

	bundle, err := NewBundle(classifier, encoders, scaler, metadata)
	if err != nil {
		return nil, &LoadError{Dir: dir, File: ClassifierFile, Err: err}
	}
	bundle.metadataErr = metaErr
	return bundle, nil
}

func readRequired(dir, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Dir: dir, File: name, Err: ErrMissingArtifact}
		}
		return nil, &LoadError{Dir: dir, File: name, Err: err}
	}
	return data, nil
}

func readMetadata(dir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	meta := &Metadata{Extra: raw}
	if v, ok := raw["version"].(string); ok {
		meta.Version = v
	}
	if v, ok := raw["trained_date"].(string); ok {
		meta.TrainedDate = v
	}
	return meta, nil
}

// Metadata returns the optional bundle metadata, possibly nil.
func (b *Bundle) Metadata() *Metadata { return b.metadata }

// MetadataWarning reports why optional metadata could not be read.
func (b *Bundle) MetadataWarning() error { return b.metadataErr }

// Version returns the metadata version or "unversioned".
func (b *Bundle) Version() string {
	if b.metadata == nil || b.metadata.Version == "" {
		return "unversioned"
	}
	return b.metadata.Version
}

// Encode builds the scaled feature vector in training column order:
// start_hour, duration, event_type, priority, weekday, days_to_deadline.
func (b *Bundle) Encode(f Features) ([]float64, error) {
	eventType, err := b.encoders.EventType.TransformCanonical(f.EventType)
	if err != nil {
		return nil, &FieldError{Field: FieldEventType, Err: err}
	}
	priority, err := b.encoders.Priority.TransformCanonical(f.Priority)
	if err != nil {
		return nil, &FieldError{Field: FieldPriority, Err: err}
	}
	scaled, err := b.scaler.Transform([]float64{f.StartHour, f.Duration, float64(f.Weekday), float64(f.DaysToDeadline)})
	if err != nil {
		return nil, err
	}
	return []float64{scaled[0], scaled[1], eventType, priority, scaled[2], scaled[3]}, nil
}

// Predict returns the positive-class probability for f.
func (b *Bundle) Predict(f Features) (float64, error) {
	x, err := b.Encode(f)
	if err != nil {
		return 0, err
	}
	p, err := b.classifier.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	return p, nil
}
