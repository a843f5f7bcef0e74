// Package slotgrid materializes candidate booking intervals from
// operating-hours rules.  It is pure calendar arithmetic: nothing in
// this package touches the database, and the returned sequence can be
// iterated any number of times.  Persisting (and de-duplicating) the
// candidates is the inventory service's job.
package slotgrid

import (
	"fmt"
	"iter"
	"time"

	"github.com/openclub/court-reservation/internal/apperr"
)

// Window is one open/close pair, both in minutes from midnight.
// A window with Open >= Close produces no intervals.
type Window struct {
	Open  int
	Close int
}

// ParseClock converts an "HH:MM" string into minutes from midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	return h*60 + m, nil
}

// Interval is one candidate slot: [Start, End) on a single court.
type Interval struct {
	CourtID uint64
	Start   time.Time
	End     time.Time
}

// Params describes one generation request for one court.
//
// Exactly one of Weekly or Fixed drives the per-day window: when
// Weekly has entries it wins and Fixed is ignored; days missing from
// Weekly are skipped silently so partial schedules are possible.
type Params struct {
	CourtID     uint64
	From        time.Time // inclusive, date component only
	To          time.Time // inclusive, date component only
	DurationMin int
	StepMin     int
	Weekly      map[time.Weekday]Window
	Fixed       *Window
}

func (p Params) validate() error {
	if p.DurationMin <= 0 {
		return apperr.New(apperr.Validation, "slot duration must be positive")
	}
	if p.StepMin <= 0 {
		return apperr.New(apperr.Validation, "slot step must be positive")
	}
	from, to := dateOf(p.From), dateOf(p.To)
	if from.After(to) {
		return apperr.New(apperr.Validation, "from date is after to date")
	}
	if len(p.Weekly) == 0 && p.Fixed == nil {
		return apperr.New(apperr.Validation, "no operating window supplied")
	}
	return nil
}

// window resolves the open/close pair for a calendar day.  The second
// return is false when the day has no window and must be skipped.
func (p Params) window(day time.Time) (Window, bool) {
	if len(p.Weekly) > 0 {
		w, ok := p.Weekly[day.Weekday()]
		return w, ok
	}
	return *p.Fixed, true
}

// Candidates validates p and returns the ordered sequence of
// candidate intervals for every day in [From, To].  The sequence is
// finite and restartable; each call to iterate walks the full grid
// again.
func Candidates(p Params) (iter.Seq[Interval], error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	from, to := dateOf(p.From), dateOf(p.To)
	dur := time.Duration(p.DurationMin) * time.Minute
	step := time.Duration(p.StepMin) * time.Minute

	return func(yield func(Interval) bool) {
		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			w, ok := p.window(day)
			if !ok || w.Open >= w.Close {
				continue
			}
			start := day.Add(time.Duration(w.Open) * time.Minute)
			close := day.Add(time.Duration(w.Close) * time.Minute)
			for t := start; !t.Add(dur).After(close); t = t.Add(step) {
				if !yield(Interval{CourtID: p.CourtID, Start: t, End: t.Add(dur)}) {
					return
				}
			}
		}
	}, nil
}

// dateOf truncates t to its UTC calendar day.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
