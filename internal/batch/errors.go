package batch

import "errors"

// Sentinel kinds for batch errors.
var (
	ErrMissingColumn = errors.New("missing column")
	ErrBadNumber     = errors.New("malformed number")
	ErrFieldCount    = errors.New("wrong number of fields")
	ErrUnknownFormat = errors.New("unknown output format")
	ErrEmptyInput    = errors.New("input has no rows")
)
