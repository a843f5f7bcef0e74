package inventory

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openclub/court-reservation/internal/apperr"
	"github.com/openclub/court-reservation/internal/model"
	"github.com/openclub/court-reservation/internal/repository"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewService(db,
		repository.NewClubRepo(db),
		repository.NewCourtRepo(db),
		repository.NewTimeSlotRepo(db),
		zap.NewNop())
	return svc, mock, db
}

var (
	clubCols  = []string{"id", "owner_id", "name", "created_at", "updated_at"}
	defCols   = []string{"id", "club_id", "duration_min", "step_min", "price_cents", "is_active", "created_at", "updated_at"}
	courtCols = []string{"id", "club_id", "name", "sport", "surface", "indoor", "lighting", "price_cents", "is_active", "created_at", "updated_at"}
	hoursCols = []string{"id", "club_id", "weekday", "opens_at", "closes_at", "is_active", "created_at", "updated_at"}
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func expectClub(mock sqlmock.Sqlmock, clubID uint64) {
	mock.ExpectQuery("SELECT (.+) FROM clubs WHERE id = ?").
		WillReturnRows(sqlmock.NewRows(clubCols).AddRow(clubID, 1, "Padel Nord", now, now))
}

func expectDefinition(mock sqlmock.Sqlmock, durationMin, stepMin int) {
	mock.ExpectQuery("SELECT (.+) FROM slot_definitions WHERE club_id = (.+) AND is_active = 1").
		WillReturnRows(sqlmock.NewRows(defCols).AddRow(1, 1, durationMin, stepMin, nil, true, now, now))
}

func expectCourts(mock sqlmock.Sqlmock, courtIDs ...uint64) {
	rows := sqlmock.NewRows(courtCols)
	for _, id := range courtIDs {
		rows.AddRow(id, 1, "Court", "PADEL", "artificial_grass", false, true, 2000, true, now, now)
	}
	mock.ExpectQuery("SELECT (.+) FROM courts WHERE club_id = (.+) AND is_active = 1 ORDER BY id").
		WillReturnRows(rows)
}

func expectNoHours(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT (.+) FROM club_hours").
		WillReturnRows(sqlmock.NewRows(hoursCols))
}

func TestGenerateSlotsFixedWindow(t *testing.T) {
	svc, mock, _ := newTestService(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	expectClub(mock, 1)
	expectDefinition(mock, 60, 60)
	expectCourts(mock, 10)
	expectNoHours(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM time_slots WHERE court_id = \? AND starts_at >=`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	// Two candidates in 08:00-10:00 at 60/60; neither exists yet.
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM time_slots WHERE court_id = \? AND starts_at = \? AND ends_at = \?\)`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	}
	mock.ExpectExec("INSERT INTO time_slots").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	created, err := svc.GenerateSlots(context.Background(), GenerateParams{
		ClubID: 1,
		From:   day,
		To:     day,
		Open:   "08:00",
		Close:  "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateSlotsSkipsCoveredDay(t *testing.T) {
	svc, mock, _ := newTestService(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	expectClub(mock, 1)
	expectDefinition(mock, 60, 60)
	expectCourts(mock, 10)
	expectNoHours(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM time_slots WHERE court_id = \? AND starts_at >=`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	// Covered day: no exact checks, no insert.
	mock.ExpectCommit()

	created, err := svc.GenerateSlots(context.Background(), GenerateParams{
		ClubID: 1,
		From:   day,
		To:     day,
		Open:   "08:00",
		Close:  "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateSlotsWeeklyHoursWinOverFixedWindow(t *testing.T) {
	svc, mock, _ := newTestService(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday

	expectClub(mock, 1)
	expectDefinition(mock, 60, 60)
	expectCourts(mock, 10)
	mock.ExpectQuery("SELECT (.+) FROM club_hours").
		WillReturnRows(sqlmock.NewRows(hoursCols).
			AddRow(1, 1, 1, "08:00", "09:00", true, now, now)) // Monday only

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM time_slots WHERE court_id = \? AND starts_at >=`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	// One candidate only: hours trump the wide request window.
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM time_slots WHERE court_id = \? AND starts_at = \? AND ends_at = \?\)`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO time_slots").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	created, err := svc.GenerateSlots(context.Background(), GenerateParams{
		ClubID: 1,
		From:   day,
		To:     day,
		Open:   "06:00",
		Close:  "22:00",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateSlotsUnknownClub(t *testing.T) {
	svc, mock, _ := newTestService(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM clubs WHERE id = ?").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GenerateSlots(context.Background(), GenerateParams{
		ClubID: 404, From: day, To: day, Open: "08:00", Close: "10:00",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestGenerateSlotsRequiresWindowOrHours(t *testing.T) {
	svc, mock, _ := newTestService(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	expectClub(mock, 1)
	expectDefinition(mock, 60, 60)
	expectCourts(mock, 10)
	expectNoHours(mock)

	_, err := svc.GenerateSlots(context.Background(), GenerateParams{
		ClubID: 1, From: day, To: day,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestGenerateSlotsInvertedRange(t *testing.T) {
	svc, _, _ := newTestService(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.GenerateSlots(context.Background(), GenerateParams{
		ClubID: 1, From: day.AddDate(0, 0, 5), To: day, Open: "08:00", Close: "10:00",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestAvailabilityGroupsByStartTime(t *testing.T) {
	svc, mock, _ := newTestService(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	expectClub(mock, 1)
	slotRows := sqlmock.NewRows([]string{
		"id", "court_id", "starts_at", "ends_at", "status", "price_cents",
		"created_at", "updated_at", "name", "sport", "indoor", "lighting",
	}).
		AddRow(1, 10, day.Add(8*time.Hour), day.Add(9*time.Hour), model.SlotAvailable, 2000, now, now, "Court 1", "PADEL", false, true).
		AddRow(2, 11, day.Add(8*time.Hour), day.Add(9*time.Hour), model.SlotReserved, 2500, now, now, "Court 2", "PADEL", true, true).
		AddRow(3, 10, day.Add(9*time.Hour), day.Add(10*time.Hour), model.SlotAvailable, 2000, now, now, "Court 1", "PADEL", false, true)
	mock.ExpectQuery("SELECT (.+) FROM time_slots ts").
		WillReturnRows(slotRows)

	avail, err := svc.Availability(context.Background(), 1, day)
	require.NoError(t, err)
	assert.True(t, avail.SlotsGenerated)
	assert.Equal(t, "2026-03-02", avail.Date)
	require.Len(t, avail.Times, 2)

	assert.Equal(t, "08:00", avail.Times[0].Time)
	require.Len(t, avail.Times[0].Available, 1)
	assert.Equal(t, uint64(1), avail.Times[0].Available[0].SlotID)
	assert.Equal(t, "Court 1", avail.Times[0].Available[0].CourtName)

	assert.Equal(t, "09:00", avail.Times[1].Time)
	require.Len(t, avail.Times[1].Available, 1)
}

func TestAvailabilityFullyBookedStartTimeStaysVisible(t *testing.T) {
	svc, mock, _ := newTestService(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	expectClub(mock, 1)
	slotRows := sqlmock.NewRows([]string{
		"id", "court_id", "starts_at", "ends_at", "status", "price_cents",
		"created_at", "updated_at", "name", "sport", "indoor", "lighting",
	}).
		AddRow(1, 10, day.Add(8*time.Hour), day.Add(9*time.Hour), model.SlotReserved, 2000, now, now, "Court 1", "PADEL", false, true)
	mock.ExpectQuery("SELECT (.+) FROM time_slots ts").
		WillReturnRows(slotRows)

	avail, err := svc.Availability(context.Background(), 1, day)
	require.NoError(t, err)
	require.Len(t, avail.Times, 1)
	assert.Equal(t, "08:00", avail.Times[0].Time)
	assert.Empty(t, avail.Times[0].Available)
	assert.NotNil(t, avail.Times[0].Available)
}

func TestAvailabilityNoSlotsGenerated(t *testing.T) {
	svc, mock, _ := newTestService(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	expectClub(mock, 1)
	mock.ExpectQuery("SELECT (.+) FROM time_slots ts").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "court_id", "starts_at", "ends_at", "status", "price_cents",
			"created_at", "updated_at", "name", "sport", "indoor", "lighting",
		}))

	avail, err := svc.Availability(context.Background(), 1, day)
	require.NoError(t, err)
	assert.False(t, avail.SlotsGenerated)
	assert.Empty(t, avail.Times)
}

func TestAvailabilityUnknownClub(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery("SELECT (.+) FROM clubs WHERE id = ?").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Availability(context.Background(), 404, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}
