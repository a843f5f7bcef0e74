package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/openclub/court-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations and their
// slot links.  Creation and cancellation always happen inside a
// transaction owned by the booking engine; this repository never
// commits.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, reference, court_id, customer_name, customer_phone, customer_email,
	status, source, addons, total_cents, created_at, updated_at`

func scanReservation(row interface{ Scan(...interface{}) error }, res *model.Reservation) error {
	var phone, addons sql.NullString
	err := row.Scan(&res.ID, &res.Reference, &res.CourtID, &res.CustomerName, &phone,
		&res.CustomerEmail, &res.Status, &res.Source, &addons, &res.TotalCents,
		&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return err
	}
	if phone.Valid {
		p := phone.String
		res.CustomerPhone = &p
	}
	if addons.Valid {
		a := addons.String
		res.Addons = &a
	}
	return nil
}

// CreateTx inserts a reservation within the caller's transaction and
// populates the generated ID plus the DB-default fields on the given
// record.  Status must be a valid enumeration value.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
	           (reference, court_id, customer_name, customer_phone, customer_email, status, source, addons, total_cents)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var phone, addons interface{}
	if res.CustomerPhone != nil {
		phone = *res.CustomerPhone
	}
	if res.Addons != nil {
		addons = *res.Addons
	}
	result, err := tx.ExecContext(ctx, q, res.Reference, res.CourtID, res.CustomerName,
		phone, res.CustomerEmail, res.Status, res.Source, addons, res.TotalCents)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	const sel = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	return scanReservation(tx.QueryRowContext(ctx, sel, res.ID), res)
}

// CreateLinksBulkTx inserts the reservation_slots rows in one
// statement within the caller's transaction.  Passing an empty slice
// has no effect and returns nil.
func (r *ReservationRepo) CreateLinksBulkTx(ctx context.Context, tx *sql.Tx, links []model.ReservationSlot) error {
	if len(links) == 0 {
		return nil
	}
	query := `INSERT INTO reservation_slots (reservation_id, slot_id, price_cents) VALUES `
	args := make([]interface{}, 0, len(links)*3)
	for i, l := range links {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, l.ReservationID, l.SlotID, l.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID returns a reservation or ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	var res model.Reservation
	err := scanReservation(r.db.QueryRowContext(ctx, q, id), &res)
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetForUpdateTx loads a reservation under an exclusive row lock so
// concurrent cancel/pay calls on the same reservation serialize.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? FOR UPDATE`
	var res model.Reservation
	err := scanReservation(tx.QueryRowContext(ctx, q, id), &res)
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// SlotIDsTx returns the IDs of every slot linked to the reservation,
// within the caller's transaction.
func (r *ReservationRepo) SlotIDsTx(ctx context.Context, tx *sql.Tx, reservationID uint64) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT slot_id FROM reservation_slots WHERE reservation_id = ?`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteLinksTx removes every link row for the reservation.
func (r *ReservationRepo) DeleteLinksTx(ctx context.Context, tx *sql.Tx, reservationID uint64) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM reservation_slots WHERE reservation_id = ?`, reservationID)
	return err
}

// DeleteTx removes the reservation row itself.  Link rows must be
// deleted first; cancellation does both in one transaction.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, reservationID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, reservationID)
	return err
}

// UpdateStatusTx sets the reservation status within the caller's
// transaction.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, reservationID uint64, status string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ?`, status, reservationID)
	return err
}

// LinkedSlot is one booked interval as rendered in reservation detail
// responses.
type LinkedSlot struct {
	SlotID     uint64    `json:"slot_id"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	PriceCents uint32    `json:"price_cents"`
}

// LinkedSlots returns the reservation's booked intervals ordered by
// start time.
func (r *ReservationRepo) LinkedSlots(ctx context.Context, reservationID uint64) ([]LinkedSlot, error) {
	const q = `SELECT rs.slot_id, ts.starts_at, ts.ends_at, rs.price_cents
	           FROM reservation_slots rs
	           JOIN time_slots ts ON ts.id = rs.slot_id
	           WHERE rs.reservation_id = ?
	           ORDER BY ts.starts_at`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]LinkedSlot, 0)
	for rows.Next() {
		var s LinkedSlot
		if err := rows.Scan(&s.SlotID, &s.StartsAt, &s.EndsAt, &s.PriceCents); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// ListByClubAndDate returns the reservations whose court belongs to
// the club and whose slots start on the given day, newest first.
// Used by owners to review a day's bookings.
func (r *ReservationRepo) ListByClubAndDate(ctx context.Context, clubID uint64, day time.Time) ([]model.Reservation, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)
	const q = `SELECT DISTINCT r.id, r.reference, r.court_id, r.customer_name, r.customer_phone,
	                  r.customer_email, r.status, r.source, r.addons, r.total_cents,
	                  r.created_at, r.updated_at
	           FROM reservations r
	           JOIN courts c ON c.id = r.court_id
	           JOIN reservation_slots rs ON rs.reservation_id = r.id
	           JOIN time_slots ts ON ts.id = rs.slot_id
	           WHERE c.club_id = ? AND ts.starts_at >= ? AND ts.starts_at < ?
	           ORDER BY r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, clubID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		var res model.Reservation
		var phone, addons sql.NullString
		if err := rows.Scan(&res.ID, &res.Reference, &res.CourtID, &res.CustomerName, &phone,
			&res.CustomerEmail, &res.Status, &res.Source, &addons, &res.TotalCents,
			&res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		if phone.Valid {
			p := phone.String
			res.CustomerPhone = &p
		}
		if addons.Valid {
			a := addons.String
			res.Addons = &a
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// NormalizeAddons trims entries and drops empties from a comma
// separated addon list, returning nil for an effectively empty list.
func NormalizeAddons(raw string) *string {
	parts := strings.Split(raw, ",")
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	joined := strings.Join(kept, ",")
	return &joined
}
