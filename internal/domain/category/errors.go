package category

import (
	"errors"
	"fmt"
)

// Sentinel kinds for categorical encoding errors.
var (
	ErrUnknownLabel = errors.New("unknown label")
	ErrUnset        = errors.New("category not set")
)

// LabelError reports a label that is not part of a field's closed label set.
type LabelError struct {
	Field string
	Label string
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("unknown %s label %q", e.Field, e.Label)
}

// Unwrap lets callers match the error with errors.Is(err, ErrUnknownLabel).
func (e *LabelError) Unwrap() error { return ErrUnknownLabel }
