package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solea-tours/experience-api/internal/models"
	appErrors "github.com/solea-tours/experience-api/pkg/errors"
)

func newBookingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func testSlotDate(t *testing.T) time.Time {
	t.Helper()
	date, err := time.Parse(models.DateFormat, "2026-09-12")
	require.NoError(t, err)
	return date
}

func TestBookingRepositorySumParticipants(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	date := testSlotDate(t)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(adults \+ children\), 0\)`).
		WithArgs(int64(42), date, "10:00").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7))

	total, err := repo.SumParticipants(context.Background(), 42, date, "10:00")
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryTryReserveCommits(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	date := testSlotDate(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("booking:42:2026-09-12:10:00").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(adults \+ children\), 0\)`).
		WithArgs(int64(42), date, "10:00").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(6))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	booking := &models.Booking{ProductID: 42, Date: date, Time: "10:00", Adults: 2, Children: 1, Status: models.BookingPending}
	require.NoError(t, repo.TryReserve(context.Background(), booking, 10))
	assert.NotEmpty(t, booking.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryTryReserveCapacityExceeded(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	date := testSlotDate(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("booking:42:2026-09-12:10:00").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(adults \+ children\), 0\)`).
		WithArgs(int64(42), date, "10:00").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(9))
	mock.ExpectRollback()

	booking := &models.Booking{ProductID: 42, Date: date, Time: "10:00", Adults: 2, Status: models.BookingPending}
	err := repo.TryReserve(context.Background(), booking, 10)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateStatusNotFound(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs(models.BookingConfirmed, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.BookingConfirmed)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryExpireStalePending(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	date := testSlotDate(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"product_id", "date", "time"}).
		AddRow(int64(42), date, "10:00").
		AddRow(int64(7), date, "14:30")
	mock.ExpectQuery(`UPDATE bookings SET status = 'cancelled'`).
		WithArgs(now).
		WillReturnRows(rows)

	keys, err := repo.ExpireStalePending(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, int64(42), keys[0].ProductID)
	assert.Equal(t, "14:30", keys[1].Time)
	assert.NoError(t, mock.ExpectationsWereMet())
}
