package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/srgjo27/car_rental/internal/core/domain"
	"github.com/srgjo27/car_rental/internal/core/ports"
	"github.com/srgjo27/car_rental/internal/platform/auth"
)

const (
	DefaultReservationTimeout = 5 * time.Second
	DefaultAuditTimeout       = 3 * time.Second
)

type ReservationService struct {
	carRepo   ports.CarRepository
	auditRepo ports.AuditRepository
	cache     ports.CarCache
	events    ports.EventPublisher
	log       *log.Entry

	reservationTimeout time.Duration
	auditTimeout       time.Duration
	now                func() time.Time
}

type ReservationOption func(*ReservationService)

func WithReservationTimeout(d time.Duration) ReservationOption {
	return func(s *ReservationService) { s.reservationTimeout = d }
}

func WithAuditTimeout(d time.Duration) ReservationOption {
	return func(s *ReservationService) { s.auditTimeout = d }
}

func WithClock(now func() time.Time) ReservationOption {
	return func(s *ReservationService) { s.now = now }
}

func WithEventPublisher(p ports.EventPublisher) ReservationOption {
	return func(s *ReservationService) { s.events = p }
}

func NewReservationService(carRepo ports.CarRepository, auditRepo ports.AuditRepository, cache ports.CarCache, logger *log.Entry, opts ...ReservationOption) *ReservationService {
	s := &ReservationService{
		carRepo:            carRepo,
		auditRepo:          auditRepo,
		cache:              cache,
		log:                logger,
		reservationTimeout: DefaultReservationTimeout,
		auditTimeout:       DefaultAuditTimeout,
		now:                time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// BookCarAtomic tries to move the car from available to booked for the caller.
// Exactly one of any number of concurrent calls for the same car succeeds; the
// storage layer's conditional write decides which. Every call leaves one audit
// entry, whatever the outcome.
func (s *ReservationService) BookCarAtomic(ctx context.Context, caller auth.Identity, resourceID string) domain.ReservationResult {
	// Postgres keeps microseconds; the reconcile check compares booked_at exactly.
	at := s.now().UTC().Truncate(time.Microsecond)
	result := s.reserve(ctx, caller, resourceID, at)

	s.writeAudit(ctx, domain.NewBookingAudit(caller.UserID, resourceID, result, at))

	if result.Success {
		s.afterReserve(ctx, caller, resourceID, at)
	}

	return result
}

func (s *ReservationService) reserve(ctx context.Context, caller auth.Identity, resourceID string, at time.Time) domain.ReservationResult {
	carID, err := uuid.Parse(resourceID)
	if err != nil {
		return domain.Rejected(domain.ReasonNotFound)
	}

	opCtx, cancel := context.WithTimeout(ctx, s.reservationTimeout)
	defer cancel()

	err = s.carRepo.Reserve(opCtx, carID, caller.UserID, at)
	switch {
	case err == nil:
		return domain.Reserved()
	case errors.Is(err, domain.ErrCarNotFound):
		return domain.Rejected(domain.ReasonNotFound)
	case errors.Is(err, domain.ErrAlreadyBooked):
		return domain.Rejected(domain.ReasonAlreadyBooked)
	default:
		if isContextErr(err) && s.committedBy(ctx, carID, caller, at) {
			s.log.WithField("car_id", resourceID).Warn("reservation committed after its deadline")
			return domain.Reserved()
		}

		s.log.WithError(err).WithFields(log.Fields{
			"car_id": resourceID,
			"actor":  caller.UserID,
		}).Error("reservation storage failure")
		return domain.Rejected(domain.ReasonStorageError)
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// committedBy reports whether a write that returned a context error landed
// anyway. Only this attempt's own write matches both holder and timestamp.
func (s *ReservationService) committedBy(ctx context.Context, carID uuid.UUID, caller auth.Identity, at time.Time) bool {
	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.auditTimeout)
	defer cancel()

	car, err := s.carRepo.GetByID(checkCtx, carID)
	if err != nil {
		return false
	}

	return car.BookedBy != nil && *car.BookedBy == caller.UserID &&
		car.BookedAt != nil && car.BookedAt.Equal(at)
}

// writeAudit is detached from the caller's cancellation: once the reservation
// write was issued the attempt must still be recorded.
func (s *ReservationService) writeAudit(ctx context.Context, entry domain.AuditLogEntry) {
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.auditTimeout)
	defer cancel()

	if err := s.auditRepo.Append(auditCtx, entry); err != nil {
		s.log.WithError(err).WithFields(log.Fields{
			"car_id":  entry.ResourceID,
			"actor":   entry.Actor,
			"outcome": entry.Outcome,
			"reason":  entry.Reason,
		}).Warn("failed to write booking audit entry")
	}
}

func (s *ReservationService) afterReserve(ctx context.Context, caller auth.Identity, carID string, at time.Time) {
	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.auditTimeout)
	defer cancel()

	if s.cache != nil {
		if err := s.cache.InvalidateAvailable(sideCtx); err != nil {
			s.log.WithError(err).Warn("failed to invalidate available cars cache")
		}
	}

	if s.events != nil {
		event := domain.CarBookedEvent{CarID: carID, BookedBy: caller.UserID, BookedAt: at}
		if err := s.events.PublishCarBooked(sideCtx, event); err != nil {
			s.log.WithError(err).WithField("car_id", carID).Warn("failed to publish car booked event")
		}
	}

	s.log.WithFields(log.Fields{"car_id": carID, "actor": caller.UserID}).Info("car booked")
}
