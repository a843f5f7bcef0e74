package model

import "time"

// TimeSlot lifecycle states.  AVAILABLE slots may be claimed by the
// booking engine, which flips them to RESERVED; cancellation returns
// them to AVAILABLE.  BLOCKED marks owner-initiated holds that the
// booking engine never touches.
const (
	SlotAvailable = "AVAILABLE"
	SlotReserved  = "RESERVED"
	SlotBlocked   = "BLOCKED"
)

// TimeSlot is one bookable interval on one court.  The triple
// (CourtID, StartsAt, EndsAt) is unique: generation must never create
// two slots with byte-identical bounds for the same court, and the
// database carries a unique index as the last line of defense.
//
// Slots are created by generation in batches, mutated only by the
// booking engine (status transitions under row locks) and never
// deleted by this service.
type TimeSlot struct {
	ID         uint64    // time_slots.id
	CourtID    uint64    // time_slots.court_id
	StartsAt   time.Time // time_slots.starts_at (UTC)
	EndsAt     time.Time // time_slots.ends_at (UTC)
	Status     string    // time_slots.status
	PriceCents uint32    // time_slots.price_cents
	CreatedAt  time.Time // time_slots.created_at
	UpdatedAt  time.Time // time_slots.updated_at
}
