// Package repository implements the MySQL persistence layer. The
// sentinel errors defined here let higher layers distinguish failure
// scenarios without depending on driver error codes: handlers map
// them onto HTTP statuses and services branch on them for retry or
// compensation decisions.
package repository

import "errors"

// ErrNotFound is returned when a lookup targets a row that does not
// exist. Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on
// a resource they do not own. Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrInsufficientStock is returned when a conditional stock decrement
// matches no row, meaning the remaining stock is lower than the
// requested quantity. The enclosing transaction must be rolled back
// so that no partial reservation survives.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrSeatTaken is returned when inserting a seat booking collides
// with the unique (table_no, seat_no) key, i.e. another booking holds
// the seat. Handlers should translate this into an HTTP 409 response.
var ErrSeatTaken = errors.New("seat already taken")

// ErrQuotaExceeded is returned when a booking would push a user's
// active seat count past their per-user quota.
var ErrQuotaExceeded = errors.New("seat quota exceeded")

// ErrInsufficientBalance is returned when a wallet debit would drive
// the user's balance negative. The ledger is append-only, so the
// check and the insert happen inside one transaction.
var ErrInsufficientBalance = errors.New("insufficient wallet balance")

// ErrDuplicateNotification is returned when inserting a payment
// record collides with the unique (provider, payment_id) key. This
// is the persistence half of webhook idempotency: the first insert
// wins and every replay surfaces this error instead.
var ErrDuplicateNotification = errors.New("duplicate payment notification")

// ErrInvalidTransition is returned when an order status change is
// not permitted from the order's current status.
var ErrInvalidTransition = errors.New("invalid status transition")
