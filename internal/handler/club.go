package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openclub/court-reservation/internal/model"
	"github.com/openclub/court-reservation/internal/repository"
	"github.com/openclub/court-reservation/internal/slotgrid"
)

// ClubHandler exposes the owner-facing club configuration surface:
// the club itself, its weekly operating hours and its slot definition.
type ClubHandler struct {
	Clubs *repository.ClubRepo
}

func NewClubHandler(clubs *repository.ClubRepo) *ClubHandler {
	return &ClubHandler{Clubs: clubs}
}

type createClubReq struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

type hoursItem struct {
	Weekday  int    `json:"weekday" validate:"min=0,max=6"`
	OpensAt  string `json:"opens_at" validate:"required"`
	ClosesAt string `json:"closes_at" validate:"required"`
	IsActive *bool  `json:"is_active"`
}

type replaceHoursReq struct {
	Hours []hoursItem `json:"hours" validate:"required,dive"`
}

type setDefinitionReq struct {
	DurationMin int     `json:"duration_min" validate:"required,min=15,max=480"`
	StepMin     int     `json:"step_min" validate:"required,min=5,max=480"`
	PriceCents  *uint32 `json:"price_cents"`
}

// Create registers a new club owned by the authenticated user.
func (h *ClubHandler) Create(c echo.Context) error {
	var req createClubReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	club := model.Club{OwnerID: currentUserID(c), Name: req.Name}
	if err := h.Clubs.Create(ctx, &club); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create club failed"})
	}
	return c.JSON(http.StatusCreated, club)
}

// Get returns one club.
func (h *ClubHandler) Get(c echo.Context) error {
	clubID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	club, err := h.Clubs.GetByID(ctx, clubID)
	if err != nil {
		if err == repository.ErrClubNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "club not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load club failed"})
	}
	return c.JSON(http.StatusOK, club)
}

// GetHours returns the club's active weekly hours.
func (h *ClubHandler) GetHours(c echo.Context) error {
	clubID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Clubs.GetByID(ctx, clubID); err != nil {
		if err == repository.ErrClubNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "club not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load club failed"})
	}
	hours, err := h.Clubs.ActiveHours(ctx, clubID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load hours failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"club_id": clubID, "hours": hours})
}

// ReplaceHours swaps the club's full weekly hour table.  Each window
// must parse as HH:MM with opens_at strictly before closes_at; one
// window per weekday.
func (h *ClubHandler) ReplaceHours(c echo.Context) error {
	clubID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req replaceHoursReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	seen := make(map[int]bool, len(req.Hours))
	hours := make([]model.ClubHours, 0, len(req.Hours))
	for _, item := range req.Hours {
		if seen[item.Weekday] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "duplicate weekday in hours"})
		}
		seen[item.Weekday] = true
		open, err := slotgrid.ParseClock(item.OpensAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid opens_at, expected HH:MM"})
		}
		close, err := slotgrid.ParseClock(item.ClosesAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid closes_at, expected HH:MM"})
		}
		if open >= close {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "opens_at must be before closes_at"})
		}
		active := true
		if item.IsActive != nil {
			active = *item.IsActive
		}
		hours = append(hours, model.ClubHours{
			ClubID:   clubID,
			Weekday:  item.Weekday,
			OpensAt:  item.OpensAt,
			ClosesAt: item.ClosesAt,
			IsActive: active,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if ok, err := h.ownedClub(ctx, c, clubID); !ok {
		return err
	}
	if err := h.Clubs.ReplaceHours(ctx, clubID, hours); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save hours failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"club_id": clubID, "hours": hours})
}

// SetDefinition installs a new active slot definition for the club.
func (h *ClubHandler) SetDefinition(c echo.Context) error {
	clubID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req setDefinitionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.StepMin > req.DurationMin {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "step_min cannot exceed duration_min"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if ok, err := h.ownedClub(ctx, c, clubID); !ok {
		return err
	}
	def := model.SlotDefinition{
		ClubID:      clubID,
		DurationMin: req.DurationMin,
		StepMin:     req.StepMin,
		PriceCents:  req.PriceCents,
	}
	if err := h.Clubs.SetDefinition(ctx, &def); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save slot definition failed"})
	}
	return c.JSON(http.StatusOK, def)
}

// ownedClub verifies the authenticated user owns the club.  On
// failure it writes the error response and returns ok=false; callers
// must stop and return err as-is.
func (h *ClubHandler) ownedClub(ctx context.Context, c echo.Context, clubID uint64) (bool, error) {
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
