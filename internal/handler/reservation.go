package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/openclub/court-reservation/internal/booking"
	"github.com/openclub/court-reservation/internal/cache"
	"github.com/openclub/court-reservation/internal/model"
	"github.com/openclub/court-reservation/internal/queue"
	"github.com/openclub/court-reservation/internal/repository"
	queuepub "github.com/openclub/court-reservation/internal/service"
)

// ReservationHandler exposes the booking endpoints.  Create is public
// (walk-in customers book without an account); cancel, pay and the
// reads are owner operations.
type ReservationHandler struct {
	Engine       *booking.Engine
	Reservations *repository.ReservationRepo
	Courts       *repository.CourtRepo
	Clubs        *repository.ClubRepo
	Cache        *cache.Availability
	Log          *zap.Logger
}

func NewReservationHandler(engine *booking.Engine, reservations *repository.ReservationRepo,
	courts *repository.CourtRepo, clubs *repository.ClubRepo,
	av *cache.Availability, log *zap.Logger) *ReservationHandler {
	return &ReservationHandler{
		Engine:       engine,
		Reservations: reservations,
		Courts:       courts,
		Clubs:        clubs,
		Cache:        av,
		Log:          log,
	}
}

type createReservationReq struct {
	SlotIDs       []uint64 `json:"slot_ids" validate:"required,min=1,dive,min=1"`
	CustomerName  string   `json:"customer_name" validate:"required,min=2,max=120"`
	CustomerPhone string   `json:"customer_phone" validate:"max=40"`
	CustomerEmail string   `json:"customer_email" validate:"required,email"`
	Source        string   `json:"source"`
	Addons        string   `json:"addons"`
}

type reservationResp struct {
	Reservation model.Reservation       `json:"reservation"`
	Slots       []repository.LinkedSlot `json:"slots,omitempty"`
}

// Create books a set of slots for a customer.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	result, err := h.Engine.Create(ctx, booking.CreateParams{
		SlotIDs:       req.SlotIDs,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Source:        req.Source,
		Addons:        req.Addons,
	})
	if err != nil {
		return respondError(c, err)
	}

	h.invalidateForCourt(ctx, result.Reservation.CourtID, slotDays(result.Slots))
	h.publish(queue.EventReservationCreated, result.Reservation, slotIDs(result.Slots))

	slots := make([]repository.LinkedSlot, len(result.Slots))
	for i, s := range result.Slots {
		slots[i] = repository.LinkedSlot{
			SlotID:     s.ID,
			StartsAt:   s.StartsAt,
			EndsAt:     s.EndsAt,
			PriceCents: s.PriceCents,
		}
	}
	return c.JSON(http.StatusCreated, reservationResp{Reservation: result.Reservation, Slots: slots})
}

// Get returns one reservation with its booked intervals.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrReservationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
	}
	if ok, err := h.ownsReservation(ctx, c, res); !ok {
		return err
	}
	slots, err := h.Reservations.LinkedSlots(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load slots failed"})
	}
	return c.JSON(http.StatusOK, reservationResp{Reservation: *res, Slots: slots})
}

// Cancel releases a reservation's slots and removes it.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrReservationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
	}
	if ok, err := h.ownsReservation(ctx, c, res); !ok {
		return err
	}

	result, err := h.Engine.Cancel(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	h.invalidateForCourt(ctx, result.Reservation.CourtID, result.Days)
	h.publish(queue.EventReservationCancelled, result.Reservation, result.SlotIDs)
	return c.NoContent(http.StatusNoContent)
}

// Pay marks a reservation as paid.
func (h *ReservationHandler) Pay(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	current, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrReservationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
	}
	if ok, err := h.ownsReservation(ctx, c, current); !ok {
		return err
	}

	res, err := h.Engine.MarkPaid(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	var ids []uint64
	if linked, err := h.Reservations.LinkedSlots(ctx, id); err == nil {
		for _, s := range linked {
			ids = append(ids, s.SlotID)
		}
	}
	h.publish(queue.EventReservationPaid, *res, ids)
	return c.JSON(http.StatusOK, reservationResp{Reservation: *res})
}

// ListByClub returns a club's reservations whose slots start on the
// given day.
func (h *ReservationHandler) ListByClub(c echo.Context) error {
	clubID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	day, err := queryDate(c, "date")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	_, err = h.Clubs.GetByIDAndOwner(ctx, clubID, currentUserID(c))
	switch err {
	case nil:
	case repository.ErrClubNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "club not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load club failed"})
	}

	reservations, err := h.Reservations.ListByClubAndDate(ctx, clubID, day)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservations failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"club_id":      clubID,
		"date":         day.Format("2006-01-02"),
		"reservations": reservations,
	})
}

// ownsReservation verifies the authenticated user owns the club the
// reservation's court belongs to.  On failure it writes the response
// and returns ok=false.
func (h *ReservationHandler) ownsReservation(ctx context.Context, c echo.Context, res *model.Reservation) (bool, error) {
	court, err := h.Courts.GetByID(ctx, res.CourtID)
	if err != nil {
		return false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "load court failed"})
	}
	_, err = h.Clubs.GetByIDAndOwner(ctx, court.ClubID, currentUserID(c))
	switch err {
	case nil:
		return true, nil
	case repository.ErrClubNotFound, repository.ErrForbidden:
		return false, c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "load club failed"})
	}
}

// invalidateForCourt drops the availability cache entries the booking
// change affected.  Cache trouble never fails the request.
func (h *ReservationHandler) invalidateForCourt(ctx context.Context, courtID uint64, days []time.Time) {
	if len(days) == 0 {
		return
	}
	court, err := h.Courts.GetByID(ctx, courtID)
	if err != nil {
		h.Log.Warn("cache invalidation skipped", zap.Uint64("court_id", courtID), zap.Error(err))
		return
	}
	h.Cache.Invalidate(ctx, court.ClubID, days...)
}

// publish sends a reservation event to the broker in the background;
// a broker outage must not fail a committed booking.
func (h *ReservationHandler) publish(eventType string, res model.Reservation, slotIDs []uint64) {
	ev := queue.ReservationEvent{
		Type:          eventType,
		ReservationID: res.ID,
		Reference:     res.Reference,
		CourtID:       res.CourtID,
		CustomerName:  res.CustomerName,
		CustomerEmail: res.CustomerEmail,
		Source:        res.Source,
		SlotIDs:       slotIDs,
		TotalCents:    res.TotalCents,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := queuepub.PublishReservationEvent(ctx, ev); err != nil {
			h.Log.Warn("publish reservation event failed",
				zap.String("type", eventType),
				zap.Uint64("reservation_id", res.ID),
				zap.Error(err))
		}
	}()
}

func slotDays(slots []model.TimeSlot) []time.Time {
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

func slotIDs(slots []model.TimeSlot) []uint64 {
	ids := make([]uint64, len(slots))
	for i, s := range slots {
		ids[i] = s.ID
	}
	return ids
}
