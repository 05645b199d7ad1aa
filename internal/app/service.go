// Package service provides the core business service that implements
// the dependencies required by the HTTP layer.
package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/marathon/internal/adapters/cache"
	"github.com/okian/marathon/internal/adapters/fitfile"
	"github.com/okian/marathon/internal/adapters/regressor"
	"github.com/okian/marathon/internal/domain/inference"
	"github.com/okian/marathon/internal/domain/model"
	"github.com/okian/marathon/pkg/logger"
	"github.com/okian/marathon/pkg/metrics"
)

// describer is implemented by predictors that know which artifact they serve.
type describer interface {
	Info() regressor.Info
}

// Service turns runner submissions into predictions using an injected model.
type Service struct {
	mu sync.RWMutex

	// Core components
	model     inference.Predictor
	predictor inference.Predictor
	cache     *cache.Predictor

	// Configuration
	cacheSize  int
	windowDays int

	// State
	started   bool
	startedAt time.Time

	predictions atomic.Int64
	failures    atomic.Int64
	summaries   atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCacheSize sets the prediction cache capacity. Zero disables the cache.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.cacheSize = size
		}
	}
}

// WithTrainingWindowDays sets the trailing window used for FIT summaries.
func WithTrainingWindowDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.windowDays = days
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service around a loaded model.
func New(m inference.Predictor, opts ...Option) *Service {
	s := &Service{
		model:      m,
		windowDays: fitfile.DefaultWindowDays,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start wires the prediction path. It is safe to call more than once.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.model == nil {
		return ErrNilPredictor
	}

	s.predictor = s.model
	if s.cacheSize > 0 {
		c, err := cache.New(s.model, s.cacheSize)
		if err != nil {
			return fmt.Errorf("prediction cache: %w", err)
		}
		s.cache = c
		s.predictor = c
	}

	s.started = true
	s.startedAt = time.Now()

	fields := []logger.Field{
		logger.Int("cacheSize", s.cacheSize),
		logger.Int("trainingWindowDays", s.windowDays),
	}
	if info, ok := s.ModelInfo(); ok {
		fields = append(fields,
			logger.String("modelKind", info.Kind),
			logger.String("modelSHA256", info.Checksum),
		)
	}
	s.logger.Info(ctx, "prediction service started", fields...)
	return nil
}

// Stop releases cached predictions. The model itself is owned by the caller.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if s.cache != nil {
		s.cache.Purge()
		s.cache = nil
	}
	s.predictor = nil
	s.started = false
	s.logger.Info(context.Background(), "prediction service stopped")
}

// Predict assembles the feature vector for in and asks the model for a time.
// source labels the caller in metrics, e.g. inference.SourceForm.
func (s *Service) Predict(ctx context.Context, source string, in model.RawInput) (model.Prediction, error) {
	s.mu.RLock()
	p, started := s.predictor, s.started
	s.mu.RUnlock()
	if !started {
		return model.Prediction{}, ErrNotStarted
	}

	start := time.Now()
	fv, hours, err := inference.Estimate(ctx, p, in)
	metrics.RecordPredictionLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		stage := inference.StageOf(err)
		s.failures.Add(1)
		metrics.RecordPredictionError(source, stage)
		metrics.RecordErrorByComponent("service", stage+"_error")
		s.log().Debug(ctx, "prediction failed",
			logger.String("source", source),
			logger.String("stage", stage),
			logger.Error(err),
		)
		return model.Prediction{}, err
	}

	pred := model.Prediction{
		ID:       uuid.NewString(),
		Input:    in,
		Features: fv,
		Hours:    hours,
	}
	s.predictions.Add(1)
	metrics.RecordPrediction(source)
	metrics.RecordPredictedHours(hours)
	s.log().Debug(ctx, "prediction",
		logger.String("id", pred.ID),
		logger.String("source", source),
		logger.Any("features", fv.Values()),
		logger.Float64("hours", hours),
	)
	return pred, nil
}

// SummarizeTraining decodes FIT activity files and summarizes the trailing
// training window.
func (s *Service) SummarizeTraining(ctx context.Context, files ...io.Reader) (fitfile.Summary, error) {
	if len(files) == 0 {
		return fitfile.Summary{}, ErrNoActivities
	}

	var acts []fitfile.Activity
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return fitfile.Summary{}, err
		}
		decoded, err := fitfile.Decode(f)
		if err != nil {
			return fitfile.Summary{}, fmt.Errorf("activity %d: %w", i+1, err)
		}
		acts = append(acts, decoded...)
	}

	acts, dropped := fitfile.Unique(ctx, acts)
	sum, err := fitfile.Summarize(acts, s.windowDays)
	sum.Duplicates = dropped
	if err != nil {
		return sum, err
	}
	s.summaries.Add(1)
	s.log().Debug(ctx, "training summary",
		logger.Int("files", len(files)),
		logger.Int("duplicates", dropped),
		logger.Int("runs", sum.Runs),
		logger.Float64("km4week", sum.KmPerWeek),
		logger.Float64("sp4week", sum.SpeedPerWeek),
	)
	return sum, nil
}

// TrainingWindowDays returns the window used by SummarizeTraining.
func (s *Service) TrainingWindowDays() int { return s.windowDays }

// ModelInfo describes the loaded artifact when the model exposes it.
func (s *Service) ModelInfo() (regressor.Info, bool) {
	d, ok := s.model.(describer)
	if !ok {
		return regressor.Info{}, false
	}
	return d.Info(), true
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":            s.started,
		"predictions":        s.predictions.Load(),
		"failedPredictions":  s.failures.Load(),
		"trainingSummaries":  s.summaries.Load(),
		"cacheSize":          s.cacheSize,
		"trainingWindowDays": s.windowDays,
	}

	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	if s.cache != nil {
		stats["cacheEntries"] = s.cache.Len()
	}
	if info, ok := s.ModelInfo(); ok {
		stats["model"] = info
	}

	return stats
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Get().Named("service")
	}
	return s.logger
}
