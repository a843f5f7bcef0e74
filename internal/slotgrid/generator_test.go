package slotgrid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclub/court-reservation/internal/apperr"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func collect(t *testing.T, p Params) []Interval {
	t.Helper()
	seq, err := Candidates(p)
	require.NoError(t, err)
	var out []Interval
	for iv := range seq {
		out = append(out, iv)
	}
	return out
}

func TestParseClock(t *testing.T) {
	min, err := ParseClock("08:30")
	require.NoError(t, err)
	assert.Equal(t, 8*60+30, min)

	min, err = ParseClock("00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, min)

	_, err = ParseClock("24:00")
	assert.Error(t, err)
	_, err = ParseClock("aa:bb")
	assert.Error(t, err)
}

func TestCandidatesFixedWindow(t *testing.T) {
	// 08:00-10:00 with 60-minute slots on a 60-minute step: the last
	// slot must end exactly at close, giving 08:00 and 09:00 only.
	got := collect(t, Params{
		CourtID:     7,
		From:        day(2026, time.March, 2),
		To:          day(2026, time.March, 2),
		DurationMin: 60,
		StepMin:     60,
		Fixed:       &Window{Open: 8 * 60, Close: 10 * 60},
	})
	require.Len(t, got, 2)
	assert.Equal(t, day(2026, time.March, 2).Add(8*time.Hour), got[0].Start)
	assert.Equal(t, day(2026, time.March, 2).Add(9*time.Hour), got[0].End)
	assert.Equal(t, day(2026, time.March, 2).Add(9*time.Hour), got[1].Start)
	assert.Equal(t, day(2026, time.March, 2).Add(10*time.Hour), got[1].End)
	for _, iv := range got {
		assert.Equal(t, uint64(7), iv.CourtID)
	}
}

func TestCandidatesOverlappingStep(t *testing.T) {
	// 90-minute slots every 30 minutes inside 09:00-12:00:
	// starts 09:00, 09:30, 10:00, 10:30 (ends 12:00).
	got := collect(t, Params{
		CourtID:     1,
		From:        day(2026, time.March, 2),
		To:          day(2026, time.March, 2),
		DurationMin: 90,
		StepMin:     30,
		Fixed:       &Window{Open: 9 * 60, Close: 12 * 60},
	})
	require.Len(t, got, 4)
	assert.Equal(t, day(2026, time.March, 2).Add(10*time.Hour+30*time.Minute), got[3].Start)
	assert.Equal(t, day(2026, time.March, 2).Add(12*time.Hour), got[3].End)
}

func TestCandidatesWeeklySkipsMissingDays(t *testing.T) {
	// 2026-03-02 is a Monday.  Only Monday and Wednesday have windows,
	// so Tuesday produces nothing.
	weekly := map[time.Weekday]Window{
		time.Monday:    {Open: 8 * 60, Close: 9 * 60},
		time.Wednesday: {Open: 8 * 60, Close: 9 * 60},
	}
	got := collect(t, Params{
		CourtID:     1,
		From:        day(2026, time.March, 2),
		To:          day(2026, time.March, 4),
		DurationMin: 60,
		StepMin:     60,
		Weekly:      weekly,
	})
	require.Len(t, got, 2)
	assert.Equal(t, time.Monday, got[0].Start.Weekday())
	assert.Equal(t, time.Wednesday, got[1].Start.Weekday())
}

func TestCandidatesWeeklyWinsOverFixed(t *testing.T) {
	weekly := map[time.Weekday]Window{
		time.Monday: {Open: 8 * 60, Close: 9 * 60},
	}
	fixed := &Window{Open: 6 * 60, Close: 22 * 60}
	got := collect(t, Params{
		CourtID:     1,
		From:        day(2026, time.March, 2), // Monday
		To:          day(2026, time.March, 2),
		DurationMin: 60,
		StepMin:     60,
		Weekly:      weekly,
		Fixed:       fixed,
	})
	require.Len(t, got, 1)
	assert.Equal(t, day(2026, time.March, 2).Add(8*time.Hour), got[0].Start)
}

func TestCandidatesEmptyWindow(t *testing.T) {
	// Open >= close yields no intervals rather than an error: the
	// window was validated when the hours were stored.
	got := collect(t, Params{
		CourtID:     1,
		From:        day(2026, time.March, 2),
		To:          day(2026, time.March, 2),
		DurationMin: 60,
		StepMin:     60,
		Fixed:       &Window{Open: 10 * 60, Close: 10 * 60},
	})
	assert.Empty(t, got)
}

func TestCandidatesDurationLongerThanWindow(t *testing.T) {
	got := collect(t, Params{
		CourtID:     1,
		From:        day(2026, time.March, 2),
		To:          day(2026, time.March, 2),
		DurationMin: 180,
		StepMin:     60,
		Fixed:       &Window{Open: 8 * 60, Close: 10 * 60},
	})
	assert.Empty(t, got)
}

func TestCandidatesValidation(t *testing.T) {
	base := Params{
		CourtID:     1,
		From:        day(2026, time.March, 2),
		To:          day(2026, time.March, 2),
		DurationMin: 60,
		StepMin:     60,
		Fixed:       &Window{Open: 8 * 60, Close: 10 * 60},
	}

	p := base
	p.DurationMin = 0
	_, err := Candidates(p)
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	p = base
	p.StepMin = -5
	_, err = Candidates(p)
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	p = base
	p.From = p.To.AddDate(0, 0, 3)
	_, err = Candidates(p)
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	p = base
	p.Fixed = nil
	p.Weekly = nil
	_, err = Candidates(p)
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestCandidatesRestartable(t *testing.T) {
	seq, err := Candidates(Params{
		CourtID:     1,
		From:        day(2026, time.March, 2),
		To:          day(2026, time.March, 2),
		DurationMin: 60,
		StepMin:     60,
		Fixed:       &Window{Open: 8 * 60, Close: 11 * 60},
	})
	require.NoError(t, err)

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	assert.Equal(t, 3, count())
	assert.Equal(t, 3, count())
}
