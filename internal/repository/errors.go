// Package repository implements MySQL persistence for the booking
// engine.  Repositories accept either the shared *sql.DB or a
// transaction, so the same code serves plain reads and the ledger's
// transactional operations.  Sentinel errors let handlers distinguish
// failure scenarios without inspecting driver errors.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrUserNotFound is returned when no user row matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrResourceNotFound is returned when a location or resource does not
// exist or is inactive.
var ErrResourceNotFound = errors.New("resource not found")

// ErrEmailExists is returned when registration hits the unique email
// constraint.
var ErrEmailExists = errors.New("email already exists")
