package model

import "errors"

// Sentinel kinds for input and feature assembly errors.
var (
	ErrOutOfRange = errors.New("value out of range")
)
