package http

import "errors"

// ErrUnauthorized is returned when a request's credential scope or
// signature cannot be accepted.
var ErrUnauthorized = errors.New("unauthorized")
