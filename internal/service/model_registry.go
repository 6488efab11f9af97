package service

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/smart-planner-api/internal/ml"
	"github.com/noah-isme/smart-planner-api/internal/models"
	appErrors "github.com/noah-isme/smart-planner-api/pkg/errors"
)

// BundleLoader reads an artifact bundle from a directory.
type BundleLoader func(dir string) (*ml.Bundle, error)

type loadedBundle struct {
	bundle   *ml.Bundle
	loadedAt time.Time
}

// ModelRegistry owns the bundle serving predictions. Loaded bundles are
// immutable and swapped atomically on reload, so readers never lock.
type ModelRegistry struct {
	dir    string
	load   BundleLoader
	logger *zap.Logger
	now    func() time.Time

	current atomic.Pointer[loadedBundle]

	mu      sync.Mutex
	lastErr error
}

// NewModelRegistry creates a registry for dir; call Reload to load it.
func NewModelRegistry(dir string, load BundleLoader, logger *zap.Logger) *ModelRegistry {
	if load == nil {
		load = ml.Load
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelRegistry{dir: dir, load: load, logger: logger, now: time.Now}
}

// Reload loads the bundle from disk. On failure the previously loaded bundle,
// if any, keeps serving and the error is returned.
func (r *ModelRegistry) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bundle, err := r.load(r.dir)
	if err != nil {
		r.lastErr = err
		r.logger.Warn("model bundle not loaded", zap.String("dir", r.dir), zap.Error(err))
		return r.notReady(err)
	}
	r.lastErr = nil
	r.current.Store(&loadedBundle{bundle: bundle, loadedAt: r.now()})
	if warn := bundle.MetadataWarning(); warn != nil {
		r.logger.Warn("model metadata ignored", zap.String("dir", r.dir), zap.Error(warn))
	}
	r.logger.Info("model bundle loaded", zap.String("dir", r.dir), zap.String("version", bundle.Version()))
	return nil
}

// Ready reports whether a bundle is available.
func (r *ModelRegistry) Ready() bool {
	return r.current.Load() != nil
}

// Bundle returns the active bundle or an optimizer-unavailable error naming
// the artifact that failed to load.
func (r *ModelRegistry) Bundle() (*ml.Bundle, error) {
	if loaded := r.current.Load(); loaded != nil {
		return loaded.bundle, nil
	}
	r.mu.Lock()
	err := r.lastErr
	r.mu.Unlock()
	return nil, r.notReady(err)
}

// Model returns the active bundle as a slot model.
func (r *ModelRegistry) Model() (SlotModel, error) {
	bundle, err := r.Bundle()
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

// Status summarises the active bundle and the last load failure.
func (r *ModelRegistry) Status() models.ModelStatus {
	status := models.ModelStatus{Dir: r.dir}
	if loaded := r.current.Load(); loaded != nil {
		loadedAt := loaded.loadedAt
		status.Ready = true
		status.Version = loaded.bundle.Version()
		if meta := loaded.bundle.Metadata(); meta != nil {
			status.TrainedDate = meta.TrainedDate
		}
		status.LoadedAt = &loadedAt
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastErr != nil {
		status.LastError = r.lastErr.Error()
		var loadErr *ml.LoadError
		if errors.As(r.lastErr, &loadErr) && errors.Is(loadErr, ml.ErrMissingArtifact) {
			status.MissingFile = loadErr.File
		}
	}
	return status
}

func (r *ModelRegistry) notReady(cause error) error {
	message := fmt.Sprintf("optimizer unavailable: model artifacts not loaded from %s", r.dir)
	var loadErr *ml.LoadError
	if errors.As(cause, &loadErr) {
		message = fmt.Sprintf("optimizer unavailable: artifact %s could not be loaded from %s", loadErr.File, loadErr.Dir)
	}
	err := appErrors.Clone(appErrors.ErrModelNotReady, message)
	err.Err = cause
	return err
}
