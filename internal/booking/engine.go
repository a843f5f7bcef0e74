// Package booking implements the reservation engine.  Every mutation
// runs in a single database transaction with the affected slot rows
// held under exclusive locks, so two customers racing for the same
// court time can never both win.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openclub/court-reservation/internal/apperr"
	"github.com/openclub/court-reservation/internal/model"
	"github.com/openclub/court-reservation/internal/repository"
)

// Engine coordinates reservation transactions over the slot and
// reservation repositories.
type Engine struct {
	db           *sql.DB
	slots        *repository.TimeSlotRepo
	reservations *repository.ReservationRepo
	log          *zap.Logger
}

// NewEngine constructs the booking engine.
func NewEngine(db *sql.DB, slots *repository.TimeSlotRepo,
	reservations *repository.ReservationRepo, log *zap.Logger) *Engine {
	return &Engine{db: db, slots: slots, reservations: reservations, log: log}
}

// CreateParams carries everything needed to book a set of slots.
// SlotIDs may contain duplicates; they are collapsed before locking.
type CreateParams struct {
	SlotIDs       []uint64
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Source        string
	Addons        string
}

// CreateResult is a successful booking: the persisted reservation and
// the slots it claimed, in their post-commit RESERVED state.
type CreateResult struct {
	Reservation model.Reservation
	Slots       []model.TimeSlot
}

// CancelResult reports what a cancellation released, so callers can
// invalidate caches and publish events for the affected days.
type CancelResult struct {
	Reservation model.Reservation
	SlotIDs     []uint64
	Days        []time.Time
}

// Create books the given slots atomically.  The sequence is fixed:
// lock the slot rows in ascending ID order, verify every requested ID
// exists, verify every slot is AVAILABLE, verify all slots share one
// court, then insert the PENDING reservation, flip the slots to
// RESERVED and write the link rows, all before a single commit.  Any
// failure rolls the whole transaction back and the slots stay
// AVAILABLE.  An unavailable slot yields a Conflict error carrying
// the offending slot IDs.
func (e *Engine) Create(ctx context.Context, p CreateParams) (*CreateResult, error) {
	if err := validateCreate(&p); err != nil {
		return nil, err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "begin booking tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	slots, err := e.slots.LockByIDsTx(ctx, tx, p.SlotIDs)
	if err != nil {
		if repository.IsLockContention(err) {
			return nil, apperr.Wrap(apperr.Conflict, "slots are being booked by another request", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "lock slots", err)
	}

	requested := uniqueIDs(p.SlotIDs)
	if len(slots) != len(requested) {
		return nil, apperr.Newf(apperr.NotFound, "unknown slot ids: %s",
			missingIDs(requested, slots))
	}

	var taken []uint64
	for _, s := range slots {
		if s.Status != model.SlotAvailable {
			taken = append(taken, s.ID)
		}
	}
	if len(taken) > 0 {
		return nil, apperr.SlotConflict("requested slots are no longer available", taken)
	}

	courtID := slots[0].CourtID
	for _, s := range slots[1:] {
		if s.CourtID != courtID {
			return nil, apperr.New(apperr.Validation, "all slots must belong to the same court")
		}
	}

	var total uint32
	for _, s := range slots {
		total += s.PriceCents
	}

	res := model.Reservation{
		Reference:     uuid.NewString(),
		CourtID:       courtID,
		CustomerName:  strings.TrimSpace(p.CustomerName),
		CustomerEmail: strings.TrimSpace(p.CustomerEmail),
		Status:        model.ReservationPending,
		Source:        p.Source,
		Addons:        repository.NormalizeAddons(p.Addons),
		TotalCents:    total,
	}
	if phone := strings.TrimSpace(p.CustomerPhone); phone != "" {
		res.CustomerPhone = &phone
	}
	if err := e.reservations.CreateTx(ctx, tx, &res); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "insert reservation", err)
	}

	if err := e.slots.BulkUpdateStatusTx(ctx, tx, requested, model.SlotReserved); err != nil {
		if repository.IsLockContention(err) {
			return nil, apperr.Wrap(apperr.Conflict, "slots are being booked by another request", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "reserve slots", err)
	}

	links := make([]model.ReservationSlot, len(slots))
	for i, s := range slots {
		links[i] = model.ReservationSlot{
			ReservationID: res.ID,
			SlotID:        s.ID,
			PriceCents:    s.PriceCents,
		}
	}
	if err := e.reservations.CreateLinksBulkTx(ctx, tx, links); err != nil {
		if repository.IsDuplicate(err) {
			// Unique index on slot_id: another committed reservation
			// already links one of these slots.
			return nil, apperr.SlotConflict("requested slots are no longer available", requested)
		}
		return nil, apperr.Wrap(apperr.Internal, "link slots", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "commit booking", err)
	}
	committed = true

	for i := range slots {
		slots[i].Status = model.SlotReserved
	}
	e.log.Info("reservation created",
		zap.Uint64("reservation_id", res.ID),
		zap.String("reference", res.Reference),
		zap.Uint64("court_id", courtID),
		zap.Int("slots", len(slots)),
		zap.Uint32("total_cents", total))
	return &CreateResult{Reservation: res, Slots: slots}, nil
}

// Cancel releases a reservation: its slots flip back to AVAILABLE and
// the reservation and its link rows are deleted, all in one
// transaction.  The reservation row is locked first so a concurrent
// pay or second cancel serializes behind this call.
func (e *Engine) Cancel(ctx context.Context, id uint64) (*CancelResult, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "begin cancel tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := e.reservations.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, apperr.New(apperr.NotFound, "reservation not found")
		}
		if repository.IsLockContention(err) {
			return nil, apperr.Wrap(apperr.Conflict, "reservation is being modified by another request", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "lock reservation", err)
	}

	slotIDs, err := e.reservations.SlotIDsTx(ctx, tx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load reservation slots", err)
	}
	slots, err := e.slots.LockByIDsTx(ctx, tx, slotIDs)
	if err != nil {
		if repository.IsLockContention(err) {
			return nil, apperr.Wrap(apperr.Conflict, "slots are being modified by another request", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "lock slots", err)
	}
	if err := e.slots.BulkUpdateStatusTx(ctx, tx, slotIDs, model.SlotAvailable); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "release slots", err)
	}
	if err := e.reservations.DeleteLinksTx(ctx, tx, id); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "delete slot links", err)
	}
	if err := e.reservations.DeleteTx(ctx, tx, id); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "delete reservation", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "commit cancel", err)
	}
	committed = true

	e.log.Info("reservation cancelled",
		zap.Uint64("reservation_id", id),
		zap.String("reference", res.Reference),
		zap.Int("slots_released", len(slotIDs)))
	return &CancelResult{
		Reservation: *res,
		SlotIDs:     slotIDs,
		Days:        uniqueDays(slots),
	}, nil
}

// MarkPaid transitions a PENDING reservation to PAID.  Calling it on
// an already PAID reservation is a no-op returning the current state;
// a CANCELLED reservation is a Conflict.
func (e *Engine) MarkPaid(ctx context.Context, id uint64) (*model.Reservation, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "begin payment tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := e.reservations.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, apperr.New(apperr.NotFound, "reservation not found")
		}
		if repository.IsLockContention(err) {
			return nil, apperr.Wrap(apperr.Conflict, "reservation is being modified by another request", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "lock reservation", err)
	}
	switch res.Status {
	case model.ReservationPaid:
		if err := tx.Commit(); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "commit payment", err)
		}
		committed = true
		return res, nil
	case model.ReservationPending:
		// fall through to the transition below
	default:
		return nil, apperr.Newf(apperr.Conflict, "reservation is %s and cannot be paid", res.Status)
	}

	if err := e.reservations.UpdateStatusTx(ctx, tx, id, model.ReservationPaid); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "update reservation status", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "commit payment", err)
	}
	committed = true

	res.Status = model.ReservationPaid
	e.log.Info("reservation paid",
		zap.Uint64("reservation_id", id),
		zap.String("reference", res.Reference),
		zap.Uint32("total_cents", res.TotalCents))
	return res, nil
}

func validateCreate(p *CreateParams) error {
	if len(uniqueIDs(p.SlotIDs)) == 0 {
		return apperr.New(apperr.Validation, "at least one slot id is required")
	}
	if strings.TrimSpace(p.CustomerName) == "" {
		return apperr.New(apperr.Validation, "customer name is required")
	}
	if strings.TrimSpace(p.CustomerEmail) == "" {
		return apperr.New(apperr.Validation, "customer email is required")
	}
	if p.Source == "" {
		p.Source = model.SourceWeb
	}
	if !model.ValidSource(p.Source) {
		return apperr.Newf(apperr.Validation, "unknown reservation source %q", p.Source)
	}
	return nil
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// missingIDs formats the requested IDs the lock query did not return.
func missingIDs(requested []uint64, found []model.TimeSlot) string {
	have := make(map[uint64]struct{}, len(found))
	for _, s := range found {
		have[s.ID] = struct{}{}
	}
	var parts []string
	for _, id := range requested {
		if _, ok := have[id]; !ok {
			parts = append(parts, fmt.Sprintf("%d", id))
		}
	}
	return strings.Join(parts, ", ")
}

// uniqueDays collapses slot start times to their UTC calendar days.
func uniqueDays(slots []model.TimeSlot) []time.Time {
	seen := make(map[time.Time]struct{}, len(slots))
	var days []time.Time
	for _, s := range slots {
		y, m, d := s.StartsAt.UTC().Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if _, ok := seen[day]; !ok {
			seen[day] = struct{}{}
			days = append(days, day)
		}
	}
	return days
}
