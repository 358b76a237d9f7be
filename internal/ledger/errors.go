// Package ledger owns booking lifecycle state and every mutation of a
// customer's balance and subscription hour pool.  Each public
// operation runs inside a single store transaction so booking state
// and account state can never diverge.
package ledger

import "errors"

// ErrValidation is returned when an operation's inputs are rejected
// before any mutation: an empty cart, a duration that is not a
// positive multiple of 30 minutes, a negative price, an unpriced
// rate-table cell.  Wrapped errors carry the specific rule that
// failed.
var ErrValidation = errors.New("validation failed")

// ErrConflict is returned when a cart item overlaps a confirmed,
// non-re-rent-listed booking at confirmation time.  Nothing is
// mutated; the caller should re-fetch availability.
var ErrConflict = errors.New("slot conflict")

// ErrPermission is returned when the cancellation policy denies the
// acting role, or when a required cancellation reason is missing.
var ErrPermission = errors.New("permission denied")

// ErrInsufficientFunds is returned when a cart's projected balance
// would exceed the customer's negative credit limit.  It is checked
// against the whole cart before any booking is created.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrNotFound is returned when the referenced booking or account does
// not exist.
var ErrNotFound = errors.New("not found")
