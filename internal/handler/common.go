package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/openclub/court-reservation/internal/apperr"
)

// Validator adapts go-playground/validator to Echo's Validator
// interface so handlers can call c.Validate on bound DTOs.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns an Echo-compatible request validator.
func NewValidator() *Validator {
	return &Validator{v: validator.New()}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i interface{}) error {
	if err := cv.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// respondError translates an application error into the JSON error
// shape every endpoint shares.  Conflict responses carry the offending
// slot IDs when the error knows them, so clients can refresh exactly
// the slots that went stale.
func respondError(c echo.Context, err error) error {
	var status int
	switch apperr.KindOf(err) {
	case apperr.Validation:
		status = http.StatusBadRequest
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Conflict:
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}
	body := echo.Map{"error": err.Error()}
	if status == http.StatusInternalServerError {
		body["error"] = "internal error"
	}
	var ae *apperr.Error
	if errors.As(err, &ae) && len(ae.SlotIDs) > 0 {
		body["slot_ids"] = ae.SlotIDs
	}
	return c.JSON(status, body)
}

// pathID parses a numeric path parameter, rejecting zero.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Newf(apperr.Validation, "invalid %s", name)
	}
	return id, nil
}

// queryDate parses a required "2006-01-02" query parameter as a UTC day.
func queryDate(c echo.Context, name string) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, apperr.Newf(apperr.Validation, "%s query parameter is required", name)
	}
	d, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, apperr.Newf(apperr.Validation, "invalid %s, expected YYYY-MM-DD", name)
	}
	return d, nil
}

// currentUserID reads the authenticated user injected by JWTAuth.
func currentUserID(c echo.Context) uint64 {
	if id, ok := c.Get("user_id").(uint64); ok {
		return id
	}
	return 0
}
