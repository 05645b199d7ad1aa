package service

import "errors"

// Sentinel error kinds for the service.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrNilPredictor = errors.New("predictor is nil")
	ErrNoActivities = errors.New("no activity files")
)
