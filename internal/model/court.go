package model

import "time"

// Court is a single bookable unit belonging to one club.  It is the
// partition key for every slot and reservation query.  PriceCents is
// the default price per slot when the club's slot definition does not
// override it.
//
// Fields:
//  ID         – primary key identifier.
//  ClubID     – owning club.
//  Name       – court name, unique per club.
//  Sport      – sport played on the court (e.g. "futbol5", "padel").
//  Surface    – playing surface description.
//  Indoor     – whether the court is covered.
//  Lighting   – whether the court has artificial lighting.
//  PriceCents – base price per slot in cents.
//  IsActive   – inactive courts are skipped by slot generation.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Court struct {
	ID         uint64    // courts.id
	ClubID     uint64    // courts.club_id
	Name       string    // courts.name
	Sport      string    // courts.sport
	Surface    string    // courts.surface
	Indoor     bool      // courts.indoor
	Lighting   bool      // courts.lighting
	PriceCents uint32    // courts.price_cents
	IsActive   bool      // courts.is_active
	CreatedAt  time.Time // courts.created_at
	UpdatedAt  time.Time // courts.updated_at
}
