// Package inference defines the contract for turning a runner's submission into a
// predicted marathon time.
package inference

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/marathon/internal/domain/model"
)

// Pipeline stages, used to label failures.
const (
	StageAssemble = "assemble"
	StagePredict  = "predict"
)

// Prediction sources, used to label metrics and logs.
const (
	SourceForm  = "form"
	SourceAPI   = "api"
	SourceBatch = "batch"
)

// Predictor computes a scalar prediction (hours) from a feature vector.
// Implementations must be safe for concurrent use and free of side effects.
type Predictor interface {
	Predict(ctx context.Context, fv model.FeatureVector) (float64, error)
}

// PredictorFunc adapts a function to the Predictor interface.
type PredictorFunc func(ctx context.Context, fv model.FeatureVector) (float64, error)

// Predict calls f(ctx, fv).
func (f PredictorFunc) Predict(ctx context.Context, fv model.FeatureVector) (float64, error) {
	return f(ctx, fv)
}

// StageError records which pipeline stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// StageOf returns the failed stage of err, or "" when err is not a StageError.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// Estimate runs the straight-line pipeline: assemble the feature vector from in,
// then hand it to p. There are no retries.
func Estimate(ctx context.Context, p Predictor, in model.RawInput) (model.FeatureVector, float64, error) {
	fv, err := model.Assemble(in)
	if err != nil {
		return model.FeatureVector{}, 0, &StageError{Stage: StageAssemble, Err: err}
	}
	hours, err := p.Predict(ctx, fv)
	if err != nil {
		return fv, 0, &StageError{Stage: StagePredict, Err: err}
	}
	return fv, hours, nil
}
