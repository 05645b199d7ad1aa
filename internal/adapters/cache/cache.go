// Package cache memoizes model predictions by feature vector.
package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/marathon/internal/domain/inference"
	"github.com/okian/marathon/internal/domain/model"
	"github.com/okian/marathon/pkg/metrics"
)

// Predictor is an LRU-bounded memo in front of another predictor. Only
// successful predictions are stored.
type Predictor struct {
	next    inference.Predictor
	entries *lru.Cache[string, float64]
}

// New wraps next with a cache holding at most size vectors. size must be positive.
func New(next inference.Predictor, size int) (*Predictor, error) {
	if next == nil {
		return nil, ErrNilPredictor
	}
	entries, err := lru.New[string, float64](size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSize, err)
	}
	metrics.UpdateCacheEntries(0)
	return &Predictor{next: next, entries: entries}, nil
}

// Wrap returns next unchanged when size is zero or negative, and a caching
// Predictor otherwise.
func Wrap(next inference.Predictor, size int) (inference.Predictor, error) {
	if size <= 0 {
		return next, nil
	}
	return New(next, size)
}

// Predict returns the memoized value for fv or asks the wrapped predictor.
func (p *Predictor) Predict(ctx context.Context, fv model.FeatureVector) (float64, error) {
	key := fv.Key()
	if hours, ok := p.entries.Get(key); ok {
		metrics.RecordCacheHit()
		return hours, nil
	}
	metrics.RecordCacheMiss()

	hours, err := p.next.Predict(ctx, fv)
	if err != nil {
		return 0, err
	}
	p.entries.Add(key, hours)
	metrics.UpdateCacheEntries(p.entries.Len())
	return hours, nil
}

// Len returns the number of cached vectors.
func (p *Predictor) Len() int { return p.entries.Len() }

// Purge drops every cached prediction.
func (p *Predictor) Purge() {
	p.entries.Purge()
	metrics.UpdateCacheEntries(0)
}
