// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios. For example,
// ErrForbidden indicates that the current user is not authorized to read a
// rental owned by someone else, while ErrConflict signals that an update
// lost a race against concurrent state (a status compare-and-set matching
// zero rows, or an availability adjustment that would go negative).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an HTTP
// 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because the
// stored state changed concurrently, such as transitioning a rental whose
// status already advanced or reserving more units than remain available.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
