package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/openclub/court-reservation/internal/model"
)

// CourtRepo manages persistence for courts.
type CourtRepo struct {
	db *sql.DB
}

// NewCourtRepo constructs a CourtRepo with the given DB handle.
func NewCourtRepo(db *sql.DB) *CourtRepo { return &CourtRepo{db: db} }

const courtColumns = `id, club_id, name, sport, surface, indoor, lighting, price_cents, is_active, created_at, updated_at`

func scanCourt(row interface{ Scan(...interface{}) error }, c *model.Court) error {
	return row.Scan(&c.ID, &c.ClubID, &c.Name, &c.Sport, &c.Surface,
		&c.Indoor, &c.Lighting, &c.PriceCents, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
}

// Create inserts a court and populates the generated ID and defaults.
func (r *CourtRepo) Create(ctx context.Context, c *model.Court) error {
	const q = `INSERT INTO courts (club_id, name, sport, surface, indoor, lighting, price_cents, is_active)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.ClubID, c.Name, c.Sport, c.Surface,
		c.Indoor, c.Lighting, c.PriceCents, c.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return scanCourt(r.db.QueryRowContext(ctx,
		`SELECT `+courtColumns+` FROM courts WHERE id = ?`, c.ID), c)
}

// GetByID returns a court or ErrCourtNotFound.
func (r *CourtRepo) GetByID(ctx context.Context, id uint64) (*model.Court, error) {
	var c model.Court
	err := scanCourt(r.db.QueryRowContext(ctx,
		`SELECT `+courtColumns+` FROM courts WHERE id = ?`, id), &c)
	if err == sql.ErrNoRows {
		return nil, ErrCourtNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByClub returns the club's courts ordered by ID.  When
// activeOnly is set, inactive courts are filtered out (generation
// uses this; owner listings do not).
func (r *CourtRepo) ListByClub(ctx context.Context, clubID uint64, activeOnly bool) ([]model.Court, error) {
	q := `SELECT ` + courtColumns + ` FROM courts WHERE club_id = ?`
	if activeOnly {
		q += ` AND is_active = 1`
	}
	q += ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	courts := make([]model.Court, 0)
	for rows.Next() {
		var c model.Court
		if err := scanCourt(rows, &c); err != nil {
			return nil, err
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

// UpdateCourtParams is a partial update: only non-nil fields are
// written.  Explicit optional fields keep the update contract
// checkable at compile time, unlike a payload map.
type UpdateCourtParams struct {
	Name       *string
	Sport      *string
	Surface    *string
	Indoor     *bool
	Lighting   *bool
	PriceCents *uint32
	IsActive   *bool
}

// Update applies the supplied fields to a court.  With no fields set
// it is a no-op.  ErrCourtNotFound is returned when the ID matches no
// row.
func (r *CourtRepo) Update(ctx context.Context, id uint64, p UpdateCourtParams) error {
	sets := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)
	appendSet := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Name != nil {
		appendSet("name", *p.Name)
	}
	if p.Sport != nil {
		appendSet("sport", *p.Sport)
	}
	if p.Surface != nil {
		appendSet("surface", *p.Surface)
	}
	if p.Indoor != nil {
		appendSet("indoor", *p.Indoor)
	}
	if p.Lighting != nil {
		appendSet("lighting", *p.Lighting)
	}
	if p.PriceCents != nil {
		appendSet("price_cents", *p.PriceCents)
	}
	if p.IsActive != nil {
		appendSet("is_active", *p.IsActive)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	q := `UPDATE courts SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	// A zero row count can mean an identical update; confirm existence
	// before reporting not found.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
