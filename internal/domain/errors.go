package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// tag does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails a tag rule
// (e.g. missing name, name too long, name that slugs to nothing).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned by repo functions when an insert collides with an
// existing row on a unique key. The service layer recovers from it by
// re-reading the winning row; it never reaches callers.
var ErrConflict = errors.New("conflict")
