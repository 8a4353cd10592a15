package memory

import "errors"

// ErrInvalidInput marks caller mistakes: limit violations, unknown enum
// values, malformed ids. No state changes when it surfaces.
var ErrInvalidInput = errors.New("invalid input")

// ErrNotFound marks references to missing or soft-deleted insights.
var ErrNotFound = errors.New("not found")
