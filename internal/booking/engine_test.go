package booking

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

func newTestEngine(t *testing.T) (*Engine, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	eng := NewEngine(db, repository.NewTimeSlotRepo(db), repository.NewReservationRepo(db), zap.NewNop())
	return eng, mock, db
}

var slotCols = []string{"id", "court_id", "starts_at", "ends_at", "status", "price_cents", "created_at", "updated_at"}

var reservationCols = []string{"id", "reference", "court_id", "customer_name", "customer_phone",
	"customer_email", "status", "source", "addons", "total_cents", "created_at", "updated_at"}

func slotRow(rows *sqlmock.Rows, id, courtID uint64, start time.Time, status string, price uint32) *sqlmock.Rows {
	return rows.AddRow(id, courtID, start, start.Add(time.Hour), status, price, start, start)
}

func validParams(ids ...uint64) CreateParams {
	return CreateParams{
		SlotIDs:       ids,
		CustomerName:  "Dana Reyes",
		CustomerEmail: "dana@example.com",
		Source:        model.SourceWeb,
	}
}

func TestCreateBooksSlots(t *testing.T) {
	eng, mock, _ := newTestEngine(t)
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	locked := sqlmock.NewRows(slotCols)
	slotRow(locked, 1, 5, start, model.SlotAvailable, 2000)
	slotRow(locked, 2, 5, start.Add(time.Hour), model.SlotAvailable, 2500)
	mock.ExpectQuery("SELECT (.+) FROM time_slots WHERE id IN (.+) ORDER BY id FOR UPDATE").
		WithArgs(1, 2).
		WillReturnRows(locked)
	mock.ExpectExec("INSERT INTO reservations").
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id = ?").
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(10, "ref-uuid", 5, "Dana Reyes", nil, "dana@example.com",
				model.ReservationPending, model.SourceWeb, nil, 4500, start, start))
	mock.ExpectExec("UPDATE time_slots SET status").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO reservation_slots").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	result, err := eng.Create(context.Background(), validParams(1, 2))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), result.Reservation.ID)
	assert.Equal(t, model.ReservationPending, result.Reservation.Status)
	assert.Equal(t, uint32(4500), result.Reservation.TotalCents)
	require.Len(t, result.Slots, 2)
	for _, s := range result.Slots {
		assert.Equal(t, model.SlotReserved, s.Status)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLocksInAscendingOrder(t *testing.T) {
	eng, mock, _ := newTestEngine(t)
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	// IDs arrive shuffled with a duplicate; the lock query must see
	// them deduplicated and ascending.
	mock.ExpectBegin()
	locked := sqlmock.NewRows(slotCols)
	slotRow(locked, 3, 5, start, model.SlotAvailable, 1000)
	slotRow(locked, 8, 5, start.Add(time.Hour), model.SlotAvailable, 1000)
	mock.ExpectQuery("SELECT (.+) FROM time_slots WHERE id IN (.+) ORDER BY id FOR UPDATE").
		WithArgs(3, 8).
		WillReturnRows(locked)
	mock.ExpectExec("INSERT INTO reservations").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id = ?").
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(11, "ref-uuid", 5, "Dana Reyes", nil, "dana@example.com",
				model.ReservationPending, model.SourceWeb, nil, 2000, start, start))
	mock.ExpectExec("UPDATE time_slots SET status").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO reservation_slots").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	_, err := eng.Create(context.Background(), validParams(8, 3, 8))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateConflictOnTakenSlot(t *testing.T) {
	eng, mock, _ := newTestEngine(t)
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	locked := sqlmock.NewRows(slotCols)
	slotRow(locked, 1, 5, start, model.SlotAvailable, 2000)
	slotRow(locked, 2, 5, start.Add(time.Hour), model.SlotReserved, 2000)
	mock.ExpectQuery("SELECT (.+) FROM time_slots WHERE id IN (.+) ORDER BY id FOR UPDATE").
		WillReturnRows(locked)
	mock.ExpectRollback()

	_, err := eng.Create(context.Background(), validParams(1, 2))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Conflict))

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, []uint64{2}, ae.SlotIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUnknownSlotIsNotFound(t *testing.T) {
	eng, mock, _ := newTestEngine(t)
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	locked := sqlmock.NewRows(slotCols)
	slotRow(locked, 1, 5, start, model.SlotAvailable, 2000)
	mock.ExpectQuery("SELECT (.+) FROM time_slots WHERE id IN (.+) ORDER BY id FOR UPDATE").
		WillReturnRows(locked)
	mock.ExpectRollback()

	_, err := eng.Create(context.Background(), validParams(1, 999))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
	assert.Contains(t, err.Error(), "999")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsMixedCourts(t *testing.T) {
	eng, mock, _ := newTestEngine(t)
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	locked := sqlmock.NewRows(slotCols)
	slotRow(locked, 1, 5, start, model.SlotAvailable, 2000)
	slotRow(locked, 2, 6, start, model.SlotAvailable, 2000)
	mock.ExpectQuery("SELECT (.+) FROM time_slots WHERE id IN (.+) ORDER BY id FOR UPDATE").
		WillReturnRows(locked)
	mock.ExpectRollback()

	_, err := eng.Create(context.Background(), validParams(1, 2))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Validation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateValidatesInput(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	_, err := eng.Create(context.Background(), CreateParams{
		CustomerName:  "Dana Reyes",
		CustomerEmail: "dana@example.com",
	})
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	p := validParams(1)
	p.CustomerName = "  "
	_, err = eng.Create(context.Background(), p)
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	p = validParams(1)
	p.CustomerEmail = ""
	_, err = eng.Create(context.Background(), p)
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	p = validParams(1)
	p.Source = "CARRIER_PIGEON"
	_, err = eng.Create(context.Background(), p)
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestCancelReleasesSlots(t *testing.T) {
	eng, mock, _ := newTestEngine(t)
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id = (.+) FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(10, "ref-uuid", 5, "Dana Reyes", nil, "dana@example.com",
				model.ReservationPending, model.SourceWeb, nil, 4500, start, start))
	mock.ExpectQuery("SELECT slot_id FROM reservation_slots").
		WillReturnRows(sqlmock.NewRows([]string{"slot_id"}).AddRow(1).AddRow(2))
	locked := sqlmock.NewRows(slotCols)
	slotRow(locked, 1, 5, start, model.SlotReserved, 2000)
	slotRow(locked, 2, 5, start.Add(time.Hour), model.SlotReserved, 2500)
	mock.ExpectQuery("SELECT (.+) FROM time_slots WHERE id IN (.+) ORDER BY id FOR UPDATE").
		WillReturnRows(locked)
	mock.ExpectExec("UPDATE time_slots SET status").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM reservation_slots").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM reservations").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := eng.Cancel(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, result.SlotIDs)
	require.Len(t, result.Days, 1)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), result.Days[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelUnknownReservation(t *testing.T) {
	eng, mock, _ := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id = (.+) FOR UPDATE").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := eng.Cancel(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaidTransitionsPending(t *testing.T) {
	eng, mock, _ := newTestEngine(t)
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id = (.+) FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(10, "ref-uuid", 5, "Dana Reyes", nil, "dana@example.com",
				model.ReservationPending, model.SourceWeb, nil, 4500, start, start))
	mock.ExpectExec("UPDATE reservations SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := eng.MarkPaid(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPaid, res.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaidIdempotent(t *testing.T) {
	eng, mock, _ := newTestEngine(t)
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id = (.+) FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(10, "ref-uuid", 5, "Dana Reyes", nil, "dana@example.com",
				model.ReservationPaid, model.SourceWeb, nil, 4500, start, start))
	mock.ExpectCommit()

	res, err := eng.MarkPaid(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPaid, res.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaidCancelledIsConflict(t *testing.T) {
	eng, mock, _ := newTestEngine(t)
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id = (.+) FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(10, "ref-uuid", 5, "Dana Reyes", nil, "dana@example.com",
				model.ReservationCancelled, model.SourceWeb, nil, 4500, start, start))
	mock.ExpectRollback()

	_, err := eng.MarkPaid(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Conflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}
