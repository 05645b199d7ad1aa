package cache

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrNilPredictor = errors.New("cache: nil predictor")
	ErrInvalidSize  = errors.New("cache: invalid size")
)
