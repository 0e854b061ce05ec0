package kmsign

import "errors"

var (
	// ErrInvalidInput is returned when a request component is malformed
	ErrInvalidInput = errors.New("invalid input")
	// ErrMissingField is returned when signing needs a field that was never set
	ErrMissingField = errors.New("missing required field")
)
