// Package repository implements the authoritative MySQL stores for
// sessions, reservations, billing entries and students.  Sentinel
// errors defined here let higher layers distinguish failure scenarios
// with errors.Is instead of inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row.  Callers decide
// whether that is a normal outcome (an unscheduled date) or an error
// (an unknown reservation id).
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registering a student whose email is
// already taken.
var ErrEmailExists = errors.New("email already exists")
