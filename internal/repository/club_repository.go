package repository

import (
	"context"
	"database/sql"

	"github.com/openclub/court-reservation/internal/model"
)

// ClubRepo provides access to clubs, their weekly operating hours and
// their slot definition.  The inventory and booking services only
// read these tables; writes come from the owner CRUD surface.
type ClubRepo struct {
	db *sql.DB
}

// NewClubRepo returns a ClubRepo bound to the given database.
func NewClubRepo(db *sql.DB) *ClubRepo { return &ClubRepo{db: db} }

// DB exposes the underlying handle so callers can begin transactions
// spanning multiple repositories.
func (r *ClubRepo) DB() *sql.DB { return r.db }

// Create inserts a club and populates the generated ID and timestamp
// defaults on the given model.
func (r *ClubRepo) Create(ctx context.Context, c *model.Club) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO clubs (owner_id, name) VALUES (?, ?)`, c.OwnerID, c.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	const sel = `SELECT id, owner_id, name, created_at, updated_at FROM clubs WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, c.ID).
		Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
}

// GetByID returns a club or ErrClubNotFound.
func (r *ClubRepo) GetByID(ctx context.Context, id uint64) (*model.Club, error) {
	const q = `SELECT id, owner_id, name, created_at, updated_at FROM clubs WHERE id = ?`
	var c model.Club
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrClubNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByIDAndOwner returns a club after verifying ownership.  It
// returns ErrClubNotFound when the club does not exist and
// ErrForbidden when it belongs to a different owner.
func (r *ClubRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Club, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return c, nil
}

// ActiveHours returns the club's active weekday windows ordered by
// weekday.  A club with no active rows yields an empty slice, which
// generation interprets as "use the fixed window if one was given".
func (r *ClubRepo) ActiveHours(ctx context.Context, clubID uint64) ([]model.ClubHours, error) {
	const q = `SELECT id, club_id, weekday, opens_at, closes_at, is_active, created_at, updated_at
	           FROM club_hours
	           WHERE club_id = ? AND is_active = 1
	           ORDER BY weekday`
	rows, err := r.db.QueryContext(ctx, q, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hours := make([]model.ClubHours, 0, 7)
	for rows.Next() {
		var h model.ClubHours
		if err := rows.Scan(&h.ID, &h.ClubID, &h.Weekday, &h.OpensAt, &h.ClosesAt,
			&h.IsActive, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

// ReplaceHours swaps the full weekly table for a club in one
// transaction.  Hours are owner-maintained configuration, so a full
// replace keeps the contract simple: what you send is what is active.
func (r *ClubRepo) ReplaceHours(ctx context.Context, clubID uint64, hours []model.ClubHours) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM club_hours WHERE club_id = ?`, clubID); err != nil {
		return err
	}
	if len(hours) > 0 {
		query := `INSERT INTO club_hours (club_id, weekday, opens_at, closes_at, is_active) VALUES `
		args := make([]interface{}, 0, len(hours)*5)
		for i, h := range hours {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?)"
			args = append(args, clubID, h.Weekday, h.OpensAt, h.ClosesAt, h.IsActive)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ActiveDefinition returns the club's active slot definition or
// ErrNoDefinition when none is configured.
func (r *ClubRepo) ActiveDefinition(ctx context.Context, clubID uint64) (*model.SlotDefinition, error) {
	const q = `SELECT id, club_id, duration_min, step_min, price_cents, is_active, created_at, updated_at
	           FROM slot_definitions
	           WHERE club_id = ? AND is_active = 1
	           ORDER BY id DESC LIMIT 1`
	var d model.SlotDefinition
	var price sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, clubID).Scan(&d.ID, &d.ClubID, &d.DurationMin,
		&d.StepMin, &price, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoDefinition
	}
	if err != nil {
		return nil, err
	}
	if price.Valid {
		p := uint32(price.Int64)
		d.PriceCents = &p
	}
	return &d, nil
}

// SetDefinition deactivates previous definitions and inserts the new
// active one.  Runs in a transaction so a club never observes two
// active definitions.
func (r *ClubRepo) SetDefinition(ctx context.Context, d *model.SlotDefinition) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`UPDATE slot_definitions SET is_active = 0 WHERE club_id = ? AND is_active = 1`,
		d.ClubID); err != nil {
		return err
	}
	var price interface{}
	if d.PriceCents != nil {
		price = *d.PriceCents
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO slot_definitions (club_id, duration_min, step_min, price_cents, is_active) VALUES (?, ?, ?, ?, 1)`,
		d.ClubID, d.DurationMin, d.StepMin, price)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	d.IsActive = true
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
