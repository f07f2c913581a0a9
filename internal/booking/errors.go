// Package booking implements the reservation write transaction: the
// locked validate-then-commit path through which every reservation
// mutation flows.
package booking

import "errors"

// Business rejections.  These are normal, expected outcomes a client
// resolves by choosing differently, and must stay distinguishable from
// infrastructure failures a client resolves by retrying.
var (
	// ErrValidation flags malformed input, rejected before any lock is
	// acquired.
	ErrValidation = errors.New("invalid request")
	// ErrDuplicateBooking flags a second non-cancelled reservation for
	// the same student on the same day.
	ErrDuplicateBooking = errors.New("student already booked that day")
	// ErrCapacityFull flags a booking against a slot with no remaining
	// capacity.
	ErrCapacityFull = errors.New("slot is full")
	// ErrSessionNotFound flags a target date/classroom with no session,
	// or one that has been cancelled.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNotFound flags an unknown reservation id.
	ErrNotFound = errors.New("reservation not found")
	// ErrNotOwner flags an operation on another student's reservation.
	ErrNotOwner = errors.New("reservation belongs to another student")
	// ErrImmutable flags an edit of a cancelled or completed
	// reservation.
	ErrImmutable = errors.New("reservation can no longer be modified")
)

// ErrLockTimeout is an infrastructure failure: the per-session lock
// could not be acquired within the bounded wait.  Clients should retry.
var ErrLockTimeout = errors.New("reservation system busy")
