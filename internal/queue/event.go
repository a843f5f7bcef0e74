// Package queue defines message payloads exchanged over the message broker.
package queue

// Event type values carried in ReservationEvent.Type.
const (
	EventReservationCreated   = "reservation.created"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationPaid      = "reservation.paid"
)

// ReservationEvent is published whenever a reservation is created,
// cancelled or paid. It carries enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type ReservationEvent struct {
	Type          string   `json:"type"`
	ReservationID uint64   `json:"reservation_id"`
	Reference     string   `json:"reference"`
	CourtID       uint64   `json:"court_id"`
	CustomerName  string   `json:"customer_name"`
	CustomerEmail string   `json:"customer_email"`
	Source        string   `json:"source"`
	SlotIDs       []uint64 `json:"slot_ids"`
	TotalCents    uint32   `json:"total_cents"`
	OccurredAt    string   `json:"occurred_at"`
}
