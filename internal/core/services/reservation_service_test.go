package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	rediscache "github.com/srgjo27/car_rental/internal/adapter/cache/redis"
	"github.com/srgjo27/car_rental/internal/core/domain"
	"github.com/srgjo27/car_rental/internal/core/ports/mocks"
	"github.com/srgjo27/car_rental/internal/core/services"
	"github.com/srgjo27/car_rental/internal/platform/auth"
	"github.com/srgjo27/car_rental/internal/platform/logger"
)

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func auditWith(resourceID string, outcome domain.AuditOutcome, reason domain.FailureReason) interface{} {
	return mock.MatchedBy(func(e domain.AuditLogEntry) bool {
		return e.Action == domain.ActionBookCar &&
			e.Actor == "user-1" &&
			e.ResourceID == resourceID &&
			e.Outcome == outcome &&
			e.Reason == reason &&
			e.Timestamp.Equal(fixedNow)
	})
}

func TestBookCarAtomic_Success(t *testing.T) {
	mockCarRepo := mocks.NewCarRepository(t)
	mockAuditRepo := mocks.NewAuditRepository(t)
	mockEvents := mocks.NewEventPublisher(t)
	db, mockRedis := redismock.NewClientMock()

	service := services.NewReservationService(mockCarRepo, mockAuditRepo, rediscache.NewCarCache(db, time.Minute),
		logger.Component(logger.Discard(), "test"), services.WithClock(clock), services.WithEventPublisher(mockEvents))

	carID := uuid.New()
	caller := auth.Identity{UserID: "user-1"}

	mockCarRepo.On("Reserve", mock.Anything, carID, "user-1", fixedNow).Return(nil)
	mockAuditRepo.On("Append", mock.Anything, auditWith(carID.String(), domain.OutcomeSuccess, domain.ReasonNone)).Return(nil)
	mockEvents.On("PublishCarBooked", mock.Anything, domain.CarBookedEvent{CarID: carID.String(), BookedBy: "user-1", BookedAt: fixedNow}).Return(nil)
	mockRedis.ExpectDel(rediscache.AvailableCarsKey).SetVal(1)

	result := service.BookCarAtomic(context.Background(), caller, carID.String())

	assert.True(t, result.Success)
	assert.Equal(t, domain.ReasonNone, result.Reason)

	if err := mockRedis.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestBookCarAtomic_RejectionsMapToReasons(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
		reason  domain.FailureReason
	}{
		{"already booked", domain.ErrAlreadyBooked, domain.ReasonAlreadyBooked},
		{"not found", domain.ErrCarNotFound, domain.ReasonNotFound},
		{"storage", errors.New("pq: connection refused"), domain.ReasonStorageError},
		{"timeout", context.DeadlineExceeded, domain.ReasonStorageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCarRepo := mocks.NewCarRepository(t)
			mockAuditRepo := mocks.NewAuditRepository(t)
			mockEvents := mocks.NewEventPublisher(t)
			db, mockRedis := redismock.NewClientMock()

			service := services.NewReservationService(mockCarRepo, mockAuditRepo, rediscache.NewCarCache(db, time.Minute),
				logger.Component(logger.Discard(), "test"), services.WithClock(clock), services.WithEventPublisher(mockEvents))

			carID := uuid.New()
			mockCarRepo.On("Reserve", mock.Anything, carID, "user-1", fixedNow).Return(tt.repoErr)
			if errors.Is(tt.repoErr, context.DeadlineExceeded) {
				mockCarRepo.On("GetByID", mock.Anything, carID).Return(&domain.Car{ID: carID, BookingStatus: domain.CarAvailable}, nil)
			}
			mockAuditRepo.On("Append", mock.Anything, auditWith(carID.String(), domain.OutcomeFailure, tt.reason)).Return(nil)

			result := service.BookCarAtomic(context.Background(), auth.Identity{UserID: "user-1"}, carID.String())

			assert.False(t, result.Success)
			assert.Equal(t, tt.reason, result.Reason)
			assert.Equal(t, tt.reason == domain.ReasonStorageError, result.Reason.Retryable())
			assert.NoError(t, mockRedis.ExpectationsWereMet())
		})
	}
}

func TestBookCarAtomic_MalformedIDIsNotFoundWithoutStorageAccess(t *testing.T) {
	mockCarRepo := mocks.NewCarRepository(t)
	mockAuditRepo := mocks.NewAuditRepository(t)

	service := services.NewReservationService(mockCarRepo, mockAuditRepo, nil,
		logger.Component(logger.Discard(), "test"), services.WithClock(clock))

	mockAuditRepo.On("Append", mock.Anything, auditWith("not-a-uuid", domain.OutcomeFailure, domain.ReasonNotFound)).Return(nil)

	result := service.BookCarAtomic(context.Background(), auth.Identity{UserID: "user-1"}, "not-a-uuid")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error(), "Car not found")
	mockCarRepo.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookCarAtomic_AuditFailureDoesNotMaskSuccess(t *testing.T) {
	mockCarRepo := mocks.NewCarRepository(t)
	mockAuditRepo := mocks.NewAuditRepository(t)

	service := services.NewReservationService(mockCarRepo, mockAuditRepo, nil,
		logger.Component(logger.Discard(), "test"), services.WithClock(clock))

	carID := uuid.New()
	mockCarRepo.On("Reserve", mock.Anything, carID, "user-1", fixedNow).Return(nil)
	mockAuditRepo.On("Append", mock.Anything, mock.Anything).Return(errors.New("audit table locked"))

	result := service.BookCarAtomic(context.Background(), auth.Identity{UserID: "user-1"}, carID.String())

	assert.True(t, result.Success)
}

func TestBookCarAtomic_SideEffectFailuresDoNotMaskSuccess(t *testing.T) {
	mockCarRepo := mocks.NewCarRepository(t)
	mockAuditRepo := mocks.NewAuditRepository(t)
	mockEvents := mocks.NewEventPublisher(t)
	db, mockRedis := redismock.NewClientMock()

	service := services.NewReservationService(mockCarRepo, mockAuditRepo, rediscache.NewCarCache(db, time.Minute),
		logger.Component(logger.Discard(), "test"), services.WithClock(clock), services.WithEventPublisher(mockEvents))

	carID := uuid.New()
	mockCarRepo.On("Reserve", mock.Anything, carID, "user-1", fixedNow).Return(nil)
	mockAuditRepo.On("Append", mock.Anything, mock.Anything).Return(nil)
	mockEvents.On("PublishCarBooked", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	mockRedis.ExpectDel(rediscache.AvailableCarsKey).SetErr(errors.New("redis down"))

	result := service.BookCarAtomic(context.Background(), auth.Identity{UserID: "user-1"}, carID.String())

	assert.True(t, result.Success)
}

func TestBookCarAtomic_AuditSurvivesCallerCancellation(t *testing.T) {
	mockCarRepo := mocks.NewCarRepository(t)
	mockAuditRepo := mocks.NewAuditRepository(t)

	service := services.NewReservationService(mockCarRepo, mockAuditRepo, nil,
		logger.Component(logger.Discard(), "test"), services.WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	carID := uuid.New()

	mockCarRepo.On("Reserve", mock.Anything, carID, "user-1", fixedNow).
		Run(func(mock.Arguments) { cancel() }).
		Return(context.Canceled)
	mockCarRepo.On("GetByID", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), carID).
		Return(nil, domain.ErrCarNotFound)
	mockAuditRepo.On("Append", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything).Return(nil)

	result := service.BookCarAtomic(ctx, auth.Identity{UserID: "user-1"}, carID.String())

	assert.Equal(t, domain.ReasonStorageError, result.Reason)
}

func TestBookCarAtomic_AppliesReservationTimeout(t *testing.T) {
	mockCarRepo := mocks.NewCarRepository(t)
	mockAuditRepo := mocks.NewAuditRepository(t)

	service := services.NewReservationService(mockCarRepo, mockAuditRepo, nil,
		logger.Component(logger.Discard(), "test"), services.WithClock(clock),
		services.WithReservationTimeout(50*time.Millisecond))

	carID := uuid.New()
	hasDeadline := mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= 50*time.Millisecond
	})

	mockCarRepo.On("Reserve", hasDeadline, carID, "user-1", fixedNow).Return(nil)
	mockAuditRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

	result := service.BookCarAtomic(context.Background(), auth.Identity{UserID: "user-1"}, carID.String())

	assert.True(t, result.Success)
}

func TestBookCarAtomic_DeadlineAfterCommitIsSuccess(t *testing.T) {
	booked := func(by string, at time.Time) *domain.Car {
		return &domain.Car{ID: uuid.New(), BookingStatus: domain.CarBooked, BookedBy: &by, BookedAt: &at}
	}

	tests := []struct {
		name    string
		current *domain.Car
		reason  domain.FailureReason
	}{
		{"own write landed", booked("user-1", fixedNow), domain.ReasonNone},
		{"held by another caller", booked("user-2", fixedNow), domain.ReasonStorageError},
		{"earlier booking by same caller", booked("user-1", fixedNow.Add(-time.Hour)), domain.ReasonStorageError},
		{"still available", &domain.Car{BookingStatus: domain.CarAvailable}, domain.ReasonStorageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCarRepo := mocks.NewCarRepository(t)
			mockAuditRepo := mocks.NewAuditRepository(t)

			service := services.NewReservationService(mockCarRepo, mockAuditRepo, nil,
				logger.Component(logger.Discard(), "test"), services.WithClock(clock))

			carID := uuid.New()
			outcome := domain.OutcomeFailure
			if tt.reason == domain.ReasonNone {
				outcome = domain.OutcomeSuccess
			}

			mockCarRepo.On("Reserve", mock.Anything, carID, "user-1", fixedNow).Return(context.DeadlineExceeded)
			mockCarRepo.On("GetByID", mock.Anything, carID).Return(tt.current, nil)
			mockAuditRepo.On("Append", mock.Anything, auditWith(carID.String(), outcome, tt.reason)).Return(nil)

			result := service.BookCarAtomic(context.Background(), auth.Identity{UserID: "user-1"}, carID.String())

			assert.Equal(t, tt.reason == domain.ReasonNone, result.Success)
			assert.Equal(t, tt.reason, result.Reason)
		})
	}
}

func TestBookCarAtomic_PlainStorageErrorIsNotReconciled(t *testing.T) {
	mockCarRepo := mocks.NewCarRepository(t)
	mockAuditRepo := mocks.NewAuditRepository(t)

	service := services.NewReservationService(mockCarRepo, mockAuditRepo, nil,
		logger.Component(logger.Discard(), "test"), services.WithClock(clock))

	carID := uuid.New()
	mockCarRepo.On("Reserve", mock.Anything, carID, "user-1", fixedNow).Return(errors.New("pq: connection refused"))
	mockAuditRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

	result := service.BookCarAtomic(context.Background(), auth.Identity{UserID: "user-1"}, carID.String())

	assert.Equal(t, domain.ReasonStorageError, result.Reason)
	mockCarRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}
