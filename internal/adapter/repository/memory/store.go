// Package memory keeps cars and audit entries in process memory. The store
// mutex plays the part of the database's row atomicity, so it is only
// correct for a single process: local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/srgjo27/car_rental/internal/core/domain"
)

type Store struct {
	mu    sync.Mutex
	cars  map[uuid.UUID]domain.Car
	audit []domain.AuditLogEntry
}

func NewStore() *Store {
	return &Store{cars: make(map[uuid.UUID]domain.Car)}
}

func (s *Store) Create(ctx context.Context, car *domain.Car) error {
	if err := car.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cars[car.ID] = copyCar(*car)
	return nil
}

func (s *Store) GetByID(ctx context.Context, carID uuid.UUID) (*domain.Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	car, ok := s.cars[carID]
	if !ok {
		return nil, domain.ErrCarNotFound
	}

	c := copyCar(car)
	return &c, nil
}

func (s *Store) ListAvailable(ctx context.Context) ([]domain.Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cars := make([]domain.Car, 0, len(s.cars))
	for _, car := range s.cars {
		if car.IsAvailable() {
			cars = append(cars, copyCar(car))
		}
	}

	sort.Slice(cars, func(i, j int) bool { return cars[i].ID.String() < cars[j].ID.String() })
	return cars, nil
}

func (s *Store) Reserve(ctx context.Context, carID uuid.UUID, actor string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	car, ok := s.cars[carID]
	if !ok {
		return domain.ErrCarNotFound
	}
	if !car.IsAvailable() {
		return domain.ErrAlreadyBooked
	}

	holder := actor
	bookedAt := at
	car.BookingStatus = domain.CarBooked
	car.BookedBy = &holder
	car.BookedAt = &bookedAt
	s.cars[carID] = car

	return nil
}

func (s *Store) Append(ctx context.Context, entry domain.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audit = append(s.audit, entry)
	return nil
}

func (s *Store) ListByResource(ctx context.Context, resourceID string) ([]domain.AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []domain.AuditLogEntry
	for _, e := range s.audit {
		if e.ResourceID == resourceID {
			entries = append(entries, e)
		}
	}

	return entries, nil
}

func copyCar(c domain.Car) domain.Car {
	if c.BookedBy != nil {
		v := *c.BookedBy
		c.BookedBy = &v
	}
	if c.BookedAt != nil {
		v := *c.BookedAt
		c.BookedAt = &v
	}
	return c
}
