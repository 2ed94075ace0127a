// Package repository implements all database access for the booking
// service on plain database/sql. Sentinel errors defined here let
// handlers distinguish failure cases without inspecting driver errors;
// the booking engine's own sentinels live in internal/booking.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint (duplicate email, replayed checkout reference). Handlers
// translate it into HTTP 409.
var ErrDuplicate = errors.New("duplicate")
