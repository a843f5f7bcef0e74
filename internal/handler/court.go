package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openclub/court-reservation/internal/model"
	"github.com/openclub/court-reservation/internal/repository"
)

// CourtHandler exposes court CRUD under a club.
type CourtHandler struct {
	Clubs  *repository.ClubRepo
	Courts *repository.CourtRepo
}

func NewCourtHandler(clubs *repository.ClubRepo, courts *repository.CourtRepo) *CourtHandler {
	return &CourtHandler{Clubs: clubs, Courts: courts}
}

type createCourtReq struct {
	Name       string `json:"name" validate:"required,min=1,max=120"`
	Sport      string `json:"sport" validate:"required,min=2,max=40"`
	Surface    string `json:"surface" validate:"max=40"`
	Indoor     bool   `json:"indoor"`
	Lighting   bool   `json:"lighting"`
	PriceCents uint32 `json:"price_cents" validate:"required,min=1"`
}

type updateCourtReq struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=120"`
	Sport      *string `json:"sport" validate:"omitempty,min=2,max=40"`
	Surface    *string `json:"surface" validate:"omitempty,max=40"`
	Indoor     *bool   `json:"indoor"`
	Lighting   *bool   `json:"lighting"`
	PriceCents *uint32 `json:"price_cents" validate:"omitempty,min=1"`
	IsActive   *bool   `json:"is_active"`
}

// Create adds a court to a club the authenticated user owns.
func (h *CourtHandler) Create(c echo.Context) error {
	clubID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req createCourtReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if ok, err := h.ownedClub(ctx, c, clubID); !ok {
		return err
	}
	court := model.Court{
		ClubID:     clubID,
		Name:       req.Name,
		Sport:      req.Sport,
		Surface:    req.Surface,
		Indoor:     req.Indoor,
		Lighting:   req.Lighting,
		PriceCents: req.PriceCents,
		IsActive:   true,
	}
	if err := h.Courts.Create(ctx, &court); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create court failed"})
	}
	return c.JSON(http.StatusCreated, court)
}

// List returns a club's courts.  ?active=true filters to bookable
// courts only.
func (h *CourtHandler) List(c echo.Context) error {
	clubID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	activeOnly := c.QueryParam("active") == "true"

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Clubs.GetByID(ctx, clubID); err != nil {
		if err == repository.ErrClubNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "club not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load club failed"})
	}
	courts, err := h.Courts.ListByClub(ctx, clubID, activeOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load courts failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"club_id": clubID, "courts": courts})
}

// Update applies a partial update to a court owned by the
// authenticated user.
func (h *CourtHandler) Update(c echo.Context) error {
	courtID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req updateCourtReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	court, err := h.Courts.GetByID(ctx, courtID)
	if err != nil {
		if err == repository.ErrCourtNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "court not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load court failed"})
	}
	if ok, err := h.ownedClub(ctx, c, court.ClubID); !ok {
		return err
	}

	p := repository.UpdateCourtParams{
		Name:       req.Name,
		Sport:      req.Sport,
		Surface:    req.Surface,
		Indoor:     req.Indoor,
		Lighting:   req.Lighting,
		PriceCents: req.PriceCents,
		IsActive:   req.IsActive,
	}
	if err := h.Courts.Update(ctx, courtID, p); err != nil {
		if err == repository.ErrCourtNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "court not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update court failed"})
	}
	updated, err := h.Courts.GetByID(ctx, courtID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load court failed"})
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *CourtHandler) ownedClub(ctx context.Context, c echo.Context, clubID uint64) (bool, error) {
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
