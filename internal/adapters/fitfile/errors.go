package fitfile

import "errors"

// Sentinel kinds for FIT errors.
var (
	ErrDecode       = errors.New("fit decode failed")
	ErrNotActivity  = errors.New("fit file is not an activity")
	ErrNoSessions   = errors.New("fit activity has no session")
	ErrNoRuns       = errors.New("no running activities")
	ErrInvalidRange = errors.New("training window must be positive")
)
