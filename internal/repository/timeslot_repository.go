package repository

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/openclub/court-reservation/internal/model"
)

// TimeSlotRepo provides access to the time_slots table.  Generation
// only ever inserts new rows; the booking engine is the single writer
// of status transitions, always under row locks inside a transaction.
// All timestamps are stored and compared in UTC.
type TimeSlotRepo struct {
	db *sql.DB
}

// NewTimeSlotRepo returns a TimeSlotRepo bound to the given database.
func NewTimeSlotRepo(db *sql.DB) *TimeSlotRepo { return &TimeSlotRepo{db: db} }

// DB exposes the underlying handle for callers that open transactions
// spanning slot and reservation repositories.
func (r *TimeSlotRepo) DB() *sql.DB { return r.db }

const slotColumns = `id, court_id, starts_at, ends_at, status, price_cents, created_at, updated_at`

// ExistsOnDayTx reports whether any slot exists for the court on the
// given calendar day.  This is the coarse pre-filter used to skip a
// whole day during generation; it is a performance short-circuit, not
// the correctness guarantee (ExistsExactTx is).
func (r *TimeSlotRepo) ExistsOnDayTx(ctx context.Context, tx *sql.Tx, courtID uint64, day time.Time) (bool, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)
	const q = `SELECT EXISTS(SELECT 1 FROM time_slots WHERE court_id = ? AND starts_at >= ? AND starts_at < ?)`
	var exists bool
	err := tx.QueryRowContext(ctx, q, courtID, dayStart, dayEnd).Scan(&exists)
	return exists, err
}

// ExistsExactTx reports whether a slot with exactly these bounds
// already exists for the court.  This is the authoritative
// de-duplication gate: it runs in the same transaction as the insert
// so overlapping generation calls cannot both pass it, and the unique
// index on (court_id, starts_at, ends_at) backstops any interleaving
// the database still permits.
func (r *TimeSlotRepo) ExistsExactTx(ctx context.Context, tx *sql.Tx, courtID uint64, start, end time.Time) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM time_slots WHERE court_id = ? AND starts_at = ? AND ends_at = ?)`
	var exists bool
	err := tx.QueryRowContext(ctx, q, courtID, start, end).Scan(&exists)
	return exists, err
}

// BulkInsertTx inserts the slots in a single multi-VALUES statement
// inside the caller's transaction.  A failure aborts the whole batch:
// a partially generated day would leave adjoining hours silently
// missing.  Passing an empty slice has no effect and returns nil.
func (r *TimeSlotRepo) BulkInsertTx(ctx context.Context, tx *sql.Tx, slots []model.TimeSlot) error {
	if len(slots) == 0 {
		return nil
	}
	query := `INSERT INTO time_slots (court_id, starts_at, ends_at, status, price_cents) VALUES `
	args := make([]interface{}, 0, len(slots)*5)
	for i, s := range slots {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, s.CourtID, s.StartsAt.UTC(), s.EndsAt.UTC(), s.Status, s.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// LockByIDsTx loads exactly the rows named by ids under an exclusive
// row lock (SELECT ... FOR UPDATE).  IDs are deduplicated and locked
// in ascending order so two competing claims over overlapping sets
// always acquire locks in the same order and cannot deadlock each
// other.  The result may be shorter than ids when some ID is unknown;
// callers compare cardinalities.
func (r *TimeSlotRepo) LockByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) ([]model.TimeSlot, error) {
	if len(ids) == 0 {
		return []model.TimeSlot{}, nil
	}
	sorted := dedupSorted(ids)
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(sorted)), ",")
	q := `SELECT ` + slotColumns + ` FROM time_slots WHERE id IN (` + placeholders + `) ORDER BY id FOR UPDATE`
	args := make([]interface{}, len(sorted))
	for i, id := range sorted {
		args[i] = id
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]model.TimeSlot, 0, len(sorted))
	for rows.Next() {
		var s model.TimeSlot
		if err := rows.Scan(&s.ID, &s.CourtID, &s.StartsAt, &s.EndsAt, &s.Status,
			&s.PriceCents, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// BulkUpdateStatusTx sets the status of the given slots within the
// caller's transaction.  The rows are expected to already be locked
// by LockByIDsTx in the same transaction.
func (r *TimeSlotRepo) BulkUpdateStatusTx(ctx context.Context, tx *sql.Tx, ids []uint64, status string) error {
	if len(ids) == 0 {
		return nil
	}
	sorted := dedupSorted(ids)
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(sorted)), ",")
	q := `UPDATE time_slots SET status = ? WHERE id IN (` + placeholders + `)`
	args := make([]interface{}, 0, len(sorted)+1)
	args = append(args, status)
	for _, id := range sorted {
		args = append(args, id)
	}
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// SlotWithCourt is a slot joined with the denormalized court fields
// the availability grid renders.
type SlotWithCourt struct {
	model.TimeSlot
	CourtName  string
	Sport      string
	Indoor     bool
	Lighting   bool
}

// ByClubAndDate returns every slot (any status) for the club's courts
// on the given calendar day, joined with its court, ordered by start
// time then court ID.  The availability projection is built on top of
// this read.
func (r *TimeSlotRepo) ByClubAndDate(ctx context.Context, clubID uint64, day time.Time) ([]SlotWithCourt, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)
	const q = `SELECT ts.id, ts.court_id, ts.starts_at, ts.ends_at, ts.status, ts.price_cents,
	                  ts.created_at, ts.updated_at,
	                  c.name, c.sport, c.indoor, c.lighting
	           FROM time_slots ts
	           JOIN courts c ON c.id = ts.court_id
	           WHERE c.club_id = ? AND ts.starts_at >= ? AND ts.starts_at < ?
	           ORDER BY ts.starts_at, c.id`
	rows, err := r.db.QueryContext(ctx, q, clubID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]SlotWithCourt, 0)
	for rows.Next() {
		var s SlotWithCourt
		if err := rows.Scan(&s.ID, &s.CourtID, &s.StartsAt, &s.EndsAt, &s.Status,
			&s.PriceCents, &s.CreatedAt, &s.UpdatedAt,
			&s.CourtName, &s.Sport, &s.Indoor, &s.Lighting); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// dedupSorted returns the unique IDs in ascending order.
func dedupSorted(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
