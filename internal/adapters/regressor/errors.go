package regressor

import "errors"

// Sentinel kinds for model artifact errors. ErrArtifactNotFound and
// ErrInvalidArtifact are always reported together with ErrLoad.
var (
	ErrLoad             = errors.New("model load failed")
	ErrArtifactNotFound = errors.New("model artifact not found")
	ErrInvalidArtifact  = errors.New("invalid model artifact")
	ErrNonFinite        = errors.New("model produced a non-finite prediction")
)
