package core

import "errors"

// Sentinel error kinds. Services wrap these with fmt.Errorf("...: %w", ...)
// so the web adapter can map failures to HTTP statuses with errors.Is.
var (
	// ErrValidation marks caller errors: bad amounts, over-allocation,
	// unknown statuses. Nothing was committed.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks references to rows that do not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks operations rejected because of the row's current
	// state, e.g. an illegal status value for the transition requested.
	ErrConflict = errors.New("conflict")
)
