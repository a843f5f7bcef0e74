package model

import "time"

// Club represents a venue that owns courts and defines the weekly
// operating hours and the slot definition used when materializing
// bookable time slots.  Clubs are managed by OWNER users; the
// inventory and booking code only ever reads them.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – user ID of the club owner.
//  Name      – club display name.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Club struct {
	ID        uint64    // clubs.id
	OwnerID   uint64    // clubs.owner_id
	Name      string    // clubs.name
	CreatedAt time.Time // clubs.created_at
	UpdatedAt time.Time // clubs.updated_at
}

// ClubHours is one weekday open/close window for a club.  A club has
// at most one row per weekday; days without an active row produce no
// slots.  Weekday follows time.Weekday numbering (0 = Sunday).
// Times are stored as "HH:MM" strings in club local time.
//
// Invariant: OpensAt < ClosesAt for every active row.  The invariant
// is enforced when hours are written, not re-validated by generation.
type ClubHours struct {
	ID        uint64    // club_hours.id
	ClubID    uint64    // club_hours.club_id
	Weekday   int       // club_hours.weekday (0=Sunday .. 6=Saturday)
	OpensAt   string    // club_hours.opens_at ("HH:MM")
	ClosesAt  string    // club_hours.closes_at ("HH:MM")
	IsActive  bool      // club_hours.is_active
	CreatedAt time.Time // club_hours.created_at
	UpdatedAt time.Time // club_hours.updated_at
}

// SlotDefinition configures how a club's slot grid is cut: slot
// length, the step between consecutive slot starts, and an optional
// price override.  When PriceCents is nil each generated slot takes
// the price of its court.  step == duration yields adjacent,
// non-overlapping slots; step < duration yields overlapping starts.
type SlotDefinition struct {
	ID          uint64    // slot_definitions.id
	ClubID      uint64    // slot_definitions.club_id
	DurationMin int       // slot_definitions.duration_min
	StepMin     int       // slot_definitions.step_min
	PriceCents  *uint32   // slot_definitions.price_cents (nullable)
	IsActive    bool      // slot_definitions.is_active
	CreatedAt   time.Time // slot_definitions.created_at
	UpdatedAt   time.Time // slot_definitions.updated_at
}
