// Package repository contains the data access layer.  Repositories
// are plain database/sql; methods suffixed Tx participate in a
// caller-owned transaction and never commit or roll back themselves.
// Sentinel errors below let services distinguish the usual failure
// shapes without depending on driver details.
package repository

import "errors"

// ErrClubNotFound is returned when a club lookup matches no row.
var ErrClubNotFound = errors.New("club not found")

// ErrCourtNotFound is returned when a court lookup matches no row.
var ErrCourtNotFound = errors.New("court not found")

// ErrReservationNotFound is returned when a reservation lookup
// matches no row.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrNoDefinition is returned when a club has no active slot
// definition to drive generation.
var ErrNoDefinition = errors.New("no active slot definition")

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else.
var ErrForbidden = errors.New("forbidden")
