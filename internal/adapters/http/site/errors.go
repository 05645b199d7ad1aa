package site

import "errors"

// Error constants.
var (
	ErrRender        = errors.New("page render failed")
	ErrMissingField  = errors.New("missing field")
	ErrInvalidNumber = errors.New("invalid number")
)
