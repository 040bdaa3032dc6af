package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/car_rental/internal/adapter/repository/postgres"
	"github.com/srgjo27/car_rental/internal/core/domain"
)

func TestAuditAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewAuditRepository(db)
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	success := domain.NewBookingAudit("user-1", "car-1", domain.Reserved(), at)
	failure := domain.NewBookingAudit("user-1", "car-1", domain.Rejected(domain.ReasonNotFound), at)

	mock.ExpectExec("INSERT INTO booking_audit_log").
		WithArgs(success.ID, "book_car", "user-1", "car-1", domain.OutcomeSuccess, nil, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO booking_audit_log").
		WithArgs(failure.ID, "book_car", "user-1", "car-1", domain.OutcomeFailure, "NOT_FOUND", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Append(context.Background(), success))
	require.NoError(t, repo.Append(context.Background(), failure))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditAppend_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO booking_audit_log").WillReturnError(errors.New("disk full"))

	err = postgres.NewAuditRepository(db).Append(context.Background(), domain.NewBookingAudit("u", "c", domain.Reserved(), time.Now()))

	assert.ErrorContains(t, err, "failed to insert audit entry")
}

func TestAuditListByResource(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	first, second := uuid.New(), uuid.New()
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM booking_audit_log").
		WithArgs("car-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "action", "actor", "resource_id", "outcome", "reason", "created_at"}).
			AddRow(first.String(), "book_car", "alice", "car-1", "success", nil, at).
			AddRow(second.String(), "book_car", "bob", "car-1", "failure", "ALREADY_BOOKED", at.Add(time.Millisecond)))

	entries, err := postgres.NewAuditRepository(db).ListByResource(context.Background(), "car-1")

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.OutcomeSuccess, entries[0].Outcome)
	assert.Equal(t, domain.ReasonNone, entries[0].Reason)
	assert.Equal(t, "bob", entries[1].Actor)
	assert.Equal(t, domain.ReasonAlreadyBooked, entries[1].Reason)
}
