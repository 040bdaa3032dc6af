package domain_test

import (
	"testing"
	"time"

	"github.com/srgjo27/car_rental/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestReservationResult_Error(t *testing.T) {
	assert.Equal(t, "", domain.Reserved().Error())
	assert.Equal(t, "NOT_FOUND: Car not found", domain.Rejected(domain.ReasonNotFound).Error())
	assert.Equal(t, "ALREADY_BOOKED: Car is already booked", domain.Rejected(domain.ReasonAlreadyBooked).Error())
	assert.Contains(t, domain.Rejected(domain.ReasonStorageError).Error(), "STORAGE_ERROR")
}

func TestFailureReason_Retryable(t *testing.T) {
	assert.True(t, domain.ReasonStorageError.Retryable())
	assert.False(t, domain.ReasonNotFound.Retryable())
	assert.False(t, domain.ReasonAlreadyBooked.Retryable())
}

func TestParseFailureReason(t *testing.T) {
	for _, reason := range []domain.FailureReason{domain.ReasonNotFound, domain.ReasonAlreadyBooked, domain.ReasonStorageError} {
		assert.Equal(t, reason, domain.ParseFailureReason(domain.Rejected(reason).Error()))
	}
	assert.Equal(t, domain.ReasonStorageError, domain.ParseFailureReason("connection reset"))
}

func TestLookupFailureReason(t *testing.T) {
	reason, ok := domain.LookupFailureReason("ALREADY_BOOKED: Car is already booked")
	assert.True(t, ok)
	assert.Equal(t, domain.ReasonAlreadyBooked, reason)

	_, ok = domain.LookupFailureReason("unauthorized")
	assert.False(t, ok)
}

func TestNewBookingAudit(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	ok := domain.NewBookingAudit("user-1", "car-1", domain.Reserved(), at)
	assert.Equal(t, domain.ActionBookCar, ok.Action)
	assert.Equal(t, domain.OutcomeSuccess, ok.Outcome)
	assert.Equal(t, domain.ReasonNone, ok.Reason)
	assert.Equal(t, at, ok.Timestamp)

	failed := domain.NewBookingAudit("user-1", "car-1", domain.Rejected(domain.ReasonAlreadyBooked), at)
	assert.Equal(t, domain.OutcomeFailure, failed.Outcome)
	assert.Equal(t, domain.ReasonAlreadyBooked, failed.Reason)
	assert.NotEqual(t, ok.ID, failed.ID)
}
