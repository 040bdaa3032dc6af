package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/car_rental/internal/core/domain"
)

type CarRepository interface {
	Create(ctx context.Context, car *domain.Car) error
	GetByID(ctx context.Context, carID uuid.UUID) (*domain.Car, error)
	ListAvailable(ctx context.Context) ([]domain.Car, error)
	// Reserve flips an available car to booked in one conditional write.
	// Returns domain.ErrCarNotFound or domain.ErrAlreadyBooked when nothing was written.
	Reserve(ctx context.Context, carID uuid.UUID, actor string, at time.Time) error
}

type AuditRepository interface {
	Append(ctx context.Context, entry domain.AuditLogEntry) error
	ListByResource(ctx context.Context, resourceID string) ([]domain.AuditLogEntry, error)
}

type CarCache interface {
	GetAvailable(ctx context.Context) ([]domain.Car, bool, error)
	SetAvailable(ctx context.Context, cars []domain.Car) error
	InvalidateAvailable(ctx context.Context) error
}

type EventPublisher interface {
	PublishCarBooked(ctx context.Context, event domain.CarBookedEvent) error
}
