// Package regressor loads the pre-trained marathon time regression model and
// evaluates it.
package regressor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/marathon/internal/domain/model"
)

// Info describes a loaded artifact.
type Info struct {
	Path     string            `json:"path"`
	Kind     string            `json:"kind"`
	Version  int               `json:"version"`
	Checksum string            `json:"sha256"`
	Trees    int               `json:"trees,omitempty"`
	LoadedAt time.Time         `json:"loaded_at"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Model is a loaded, read-only regression model. It is safe for concurrent use.
type Model struct {
	info Info
	est  estimator
}

func newModel(a *artifact, info Info) *Model {
	m := &Model{info: info}
	switch a.Kind {
	case KindLinear:
		m.est = newLinear(a.Linear)
	case KindTreeEnsemble:
		m.est = newEnsemble(a.Ensemble)
		m.info.Trees = len(a.Ensemble.Trees)
	}
	return m
}

// Info returns the artifact description.
func (m *Model) Info() Info { return m.info }

// Predict returns the predicted marathon time in hours for fv.
func (m *Model) Predict(ctx context.Context, fv model.FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	y := m.est.eval(fv.Values())
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, ErrNonFinite
	}
	return y, nil
}
