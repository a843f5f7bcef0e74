package model

import "time"

// Reservation lifecycle states.  A reservation is created PENDING and
// either moves to PAID or is cancelled.  Cancellation releases the
// linked slots and removes the reservation, so CANCELLED only appears
// on rows retired by out-of-band tooling.
const (
	ReservationPending   = "PENDING"
	ReservationPaid      = "PAID"
	ReservationCancelled = "CANCELLED"
)

// Recognized reservation source channels.
const (
	SourceWeb      = "WEB"
	SourcePhone    = "PHONE"
	SourceOnsite   = "ONSITE"
	SourceWhatsapp = "WHATSAPP"
)

// ValidSource reports whether s is one of the recognized source
// channel values.
func ValidSource(s string) bool {
	switch s {
	case SourceWeb, SourcePhone, SourceOnsite, SourceWhatsapp:
		return true
	}
	return false
}

// Reservation is a customer's claim over one or more time slots on a
// single court.  Customers are walk-in data (name/phone/email), not
// user accounts.  TotalCents is the sum of the linked slots' prices
// at claim time.  Reference is an opaque UUID handed to the customer.
//
// Invariant: every linked slot belongs to CourtID and was AVAILABLE
// when the reservation was created; a slot is linked to at most one
// live reservation.
type Reservation struct {
	ID            uint64    // reservations.id
	Reference     string    // reservations.reference (uuid)
	CourtID       uint64    // reservations.court_id
	CustomerName  string    // reservations.customer_name
	CustomerPhone *string   // reservations.customer_phone (nullable)
	CustomerEmail string    // reservations.customer_email
	Status        string    // reservations.status
	Source        string    // reservations.source
	Addons        *string   // reservations.addons (nullable, comma separated)
	TotalCents    uint32    // reservations.total_cents
	CreatedAt     time.Time // reservations.created_at
	UpdatedAt     time.Time // reservations.updated_at
}

// ReservationSlot links a reservation to one of its time slots.  The
// price is snapshotted per slot so a later court price change does
// not rewrite reservation history.
type ReservationSlot struct {
	ID            uint64    // reservation_slots.id
	ReservationID uint64    // reservation_slots.reservation_id
	SlotID        uint64    // reservation_slots.slot_id
	PriceCents    uint32    // reservation_slots.price_cents
	CreatedAt     time.Time // reservation_slots.created_at
}
