// Package inventory owns the persisted slot grid: it materializes
// candidate intervals from the slotgrid generator into time_slots
// rows without ever duplicating an interval, and projects the grid
// into the per-start-time availability view.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/openclub/court-reservation/internal/apperr"
	"github.com/openclub/court-reservation/internal/model"
	"github.com/openclub/court-reservation/internal/repository"
	"github.com/openclub/court-reservation/internal/slotgrid"
)

// Service generates and queries slot inventory.  All dependencies
// are injected; the service holds no global state.
type Service struct {
	db     *sql.DB
	clubs  *repository.ClubRepo
	courts *repository.CourtRepo
	slots  *repository.TimeSlotRepo
	log    *zap.Logger
}

// NewService constructs the inventory service.
func NewService(db *sql.DB, clubs *repository.ClubRepo, courts *repository.CourtRepo,
	slots *repository.TimeSlotRepo, log *zap.Logger) *Service {
	return &Service{db: db, clubs: clubs, courts: courts, slots: slots, log: log}
}

// GenerateParams describes one generation request.  From and To are
// inclusive calendar dates.  Open/Close ("HH:MM") are the optional
// fixed daily window; they are only honored when the club has no
// active weekly hours, which otherwise always win.
type GenerateParams struct {
	ClubID uint64
	From   time.Time
	To     time.Time
	Open   string
	Close  string
}

// GenerateSlots materializes the slot grid for every active court of
// the club over the date range.  The call is idempotent: days that
// already have slots are skipped wholesale, and every remaining
// candidate passes an exact-interval existence check inside the same
// transaction as the insert, so repeated or overlapping calls never
// create duplicate slots.  It returns the number of slots created;
// zero is a normal outcome for a fully covered range.
func (s *Service) GenerateSlots(ctx context.Context, p GenerateParams) (int, error) {
	if p.From.After(p.To) {
		return 0, apperr.New(apperr.Validation, "from date is after to date")
	}
	if _, err := s.clubs.GetByID(ctx, p.ClubID); err != nil {
		if errors.Is(err, repository.ErrClubNotFound) {
			return 0, apperr.New(apperr.NotFound, "club not found")
		}
		return 0, apperr.Wrap(apperr.Internal, "load club", err)
	}
	def, err := s.clubs.ActiveDefinition(ctx, p.ClubID)
	if err != nil {
		if errors.Is(err, repository.ErrNoDefinition) {
			return 0, apperr.New(apperr.Validation, "club has no active slot definition")
		}
		return 0, apperr.Wrap(apperr.Internal, "load slot definition", err)
	}
	courts, err := s.courts.ListByClub(ctx, p.ClubID, true)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "load courts", err)
	}
	if len(courts) == 0 {
		return 0, apperr.New(apperr.Validation, "club has no active courts")
	}

	weekly, fixed, err := s.resolveWindows(ctx, p)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "begin generation tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var batch []model.TimeSlot
	for _, court := range courts {
		price := court.PriceCents
		if def.PriceCents != nil {
			price = *def.PriceCents
		}
		for day := dateOf(p.From); !day.After(dateOf(p.To)); day = day.AddDate(0, 0, 1) {
			// Whole-day short-circuit; correctness comes from the
			// exact check below, not from this.
			exists, err := s.slots.ExistsOnDayTx(ctx, tx, court.ID, day)
			if err != nil {
				return 0, apperr.Wrap(apperr.Internal, "day existence check", err)
			}
			if exists {
				continue
			}
			candidates, err := slotgrid.Candidates(slotgrid.Params{
				CourtID:     court.ID,
				From:        day,
				To:          day,
				DurationMin: def.DurationMin,
				StepMin:     def.StepMin,
				Weekly:      weekly,
				Fixed:       fixed,
			})
			if err != nil {
				return 0, err
			}
			for iv := range candidates {
				dup, err := s.slots.ExistsExactTx(ctx, tx, iv.CourtID, iv.Start, iv.End)
				if err != nil {
					return 0, apperr.Wrap(apperr.Internal, "exact existence check", err)
				}
				if dup {
					continue
				}
				batch = append(batch, model.TimeSlot{
					CourtID:    iv.CourtID,
					StartsAt:   iv.Start,
					EndsAt:     iv.End,
					Status:     model.SlotAvailable,
					PriceCents: price,
				})
			}
		}
	}

	if err := s.slots.BulkInsertTx(ctx, tx, batch); err != nil {
		if repository.IsDuplicate(err) {
			// A concurrent generation slipped an identical interval
			// past our existence check; the unique index caught it.
			return 0, apperr.Wrap(apperr.Conflict, "concurrent generation created overlapping slots", err)
		}
		return 0, apperr.Wrap(apperr.Internal, "bulk insert slots", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, apperr.Wrap(apperr.Internal, "commit generation", err)
	}
	committed = true
	s.log.Info("slots generated",
		zap.Uint64("club_id", p.ClubID),
		zap.Int("created", len(batch)),
		zap.String("from", dateOf(p.From).Format("2006-01-02")),
		zap.String("to", dateOf(p.To).Format("2006-01-02")))
	return len(batch), nil
}

// resolveWindows decides which generation mode applies: active weekly
// hours take precedence; a fixed window is used only when the club
// has none.  Having neither is a validation error.
func (s *Service) resolveWindows(ctx context.Context, p GenerateParams) (map[time.Weekday]slotgrid.Window, *slotgrid.Window, error) {
	hours, err := s.clubs.ActiveHours(ctx, p.ClubID)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.Internal, "load operating hours", err)
	}
	if len(hours) > 0 {
		weekly := make(map[time.Weekday]slotgrid.Window, len(hours))
		for _, h := range hours {
			open, err := slotgrid.ParseClock(h.OpensAt)
			if err != nil {
				return nil, nil, apperr.Wrap(apperr.Internal, "stored opening time", err)
			}
			close, err := slotgrid.ParseClock(h.ClosesAt)
			if err != nil {
				return nil, nil, apperr.Wrap(apperr.Internal, "stored closing time", err)
			}
			weekly[time.Weekday(h.Weekday)] = slotgrid.Window{Open: open, Close: close}
		}
		return weekly, nil, nil
	}
	if p.Open == "" || p.Close == "" {
		return nil, nil, apperr.New(apperr.Validation,
			"club has no operating hours; supply an explicit open/close window")
	}
	open, err := slotgrid.ParseClock(p.Open)
	if err != nil {
		return nil, nil, apperr.New(apperr.Validation, "invalid open time, expected HH:MM")
	}
	close, err := slotgrid.ParseClock(p.Close)
	if err != nil {
		return nil, nil, apperr.New(apperr.Validation, "invalid close time, expected HH:MM")
	}
	if open >= close {
		return nil, nil, apperr.New(apperr.Validation, "open time must be before close time")
	}
	return nil, &slotgrid.Window{Open: open, Close: close}, nil
}

// CourtSlot is one available court at a given start time, with the
// denormalized fields the booking UI renders directly.
type CourtSlot struct {
	SlotID     uint64    `json:"slot_id"`
	CourtID    uint64    `json:"court_id"`
	CourtName  string    `json:"name"`
	Sport      string    `json:"sport"`
	Indoor     bool      `json:"indoor"`
	Lighting   bool      `json:"lighting"`
	PriceCents uint32    `json:"price_cents"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
}

// StartTimeGroup is every available court at one start time.  Start
// times whose courts are all taken still appear with an empty list so
// consumers can render a gapless day grid.
type StartTimeGroup struct {
	Time      string      `json:"time"` // "HH:MM"
	Available []CourtSlot `json:"available"`
}

// Availability is the read model for one club and date.
type Availability struct {
	ClubID         uint64           `json:"club_id"`
	Date           string           `json:"date"` // "2006-01-02"
	SlotsGenerated bool             `json:"slots_generated"`
	Times          []StartTimeGroup `json:"times"`
}

// Availability projects the slot inventory for a club and calendar
// day into per-start-time groups.  An unknown club is NotFound; a
// known club with no slots that day returns SlotsGenerated=false so
// the caller knows to trigger generation rather than treat the empty
// grid as fully booked.
func (s *Service) Availability(ctx context.Context, clubID uint64, day time.Time) (*Availability, error) {
	if _, err := s.clubs.GetByID(ctx, clubID); err != nil {
		if errors.Is(err, repository.ErrClubNotFound) {
			return nil, apperr.New(apperr.NotFound, "club not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "load club", err)
	}
	slots, err := s.slots.ByClubAndDate(ctx, clubID, day)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load slots", err)
	}
	out := &Availability{
		ClubID:         clubID,
		Date:           dateOf(day).Format("2006-01-02"),
		SlotsGenerated: len(slots) > 0,
		Times:          []StartTimeGroup{},
	}
	if len(slots) == 0 {
		return out, nil
	}

	groups := make(map[string][]CourtSlot)
	for _, sl := range slots {
		key := sl.StartsAt.UTC().Format("15:04")
		if _, ok := groups[key]; !ok {
			groups[key] = []CourtSlot{}
		}
		if sl.Status != model.SlotAvailable {
			continue
		}
		groups[key] = append(groups[key], CourtSlot{
			SlotID:     sl.ID,
			CourtID:    sl.CourtID,
			CourtName:  sl.CourtName,
			Sport:      sl.Sport,
			Indoor:     sl.Indoor,
			Lighting:   sl.Lighting,
			PriceCents: sl.PriceCents,
			StartsAt:   sl.StartsAt,
			EndsAt:     sl.EndsAt,
		})
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out.Times = append(out.Times, StartTimeGroup{Time: k, Available: groups[k]})
	}
	return out, nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
