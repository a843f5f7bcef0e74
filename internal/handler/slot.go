package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openclub/court-reservation/internal/cache"
	"github.com/openclub/court-reservation/internal/inventory"
	"github.com/openclub/court-reservation/internal/repository"
)

// SlotHandler exposes slot generation (owner) and the availability
// grid (public).
type SlotHandler struct {
	Clubs     *repository.ClubRepo
	Inventory *inventory.Service
	Cache     *cache.Availability
}

func NewSlotHandler(clubs *repository.ClubRepo, inv *inventory.Service, av *cache.Availability) *SlotHandler {
	return &SlotHandler{Clubs: clubs, Inventory: inv, Cache: av}
}

type generateReq struct {
	From  string `json:"from" validate:"required"`
	To    string `json:"to" validate:"required"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Generate materializes the slot grid for a date range.  The owner of
// the club triggers this ahead of the booking horizon; repeated calls
// over the same range are harmless.
func (h *SlotHandler) Generate(c echo.Context) error {
	clubID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req generateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	from, err := time.ParseInLocation("2006-01-02", req.From, time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from, expected YYYY-MM-DD"})
	}
	to, err := time.ParseInLocation("2006-01-02", req.To, time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to, expected YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	if ok, err := h.ownedClub(ctx, c, clubID); !ok {
		return err
	}
	created, err := h.Inventory.GenerateSlots(ctx, inventory.GenerateParams{
		ClubID: clubID,
		From:   from,
		To:     to,
		Open:   req.Open,
		Close:  req.Close,
	})
	if err != nil {
		return respondError(c, err)
	}
	h.Cache.InvalidateRange(ctx, clubID, from, to)
	return c.JSON(http.StatusCreated, echo.Map{
		"club_id": clubID,
		"from":    req.From,
		"to":      req.To,
		"created": created,
	})
}

// Availability serves the per-start-time grid for one club and date,
// read through the Redis cache.
func (h *SlotHandler) Availability(c echo.Context) error {
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

	if payload, ok := h.Cache.Get(ctx, clubID, day); ok {
		return c.JSONBlob(http.StatusOK, []byte(payload))
	}

	avail, err := h.Inventory.Availability(ctx, clubID, day)
	if err != nil {
		return respondError(c, err)
	}
	if body, err := json.Marshal(avail); err == nil {
		h.Cache.Set(ctx, clubID, day, string(body))
	}
	return c.JSON(http.StatusOK, avail)
}

func (h *SlotHandler) ownedClub(ctx context.Context, c echo.Context, clubID uint64) (bool, error) {
	_, err := h.Clubs.GetByIDAndOwner(ctx, clubID, currentUserID(c))
	switch err {
	case nil:
		return true, nil
	case repository.ErrClubNotFound:
		return false, c.JSON(http.StatusNotFound, echo.Map{"error": "club not found"})
	case repository.ErrForbidden:
		return false, c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "load club failed"})
	}
}
