package services

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/srgjo27/car_rental/internal/core/domain"
	"github.com/srgjo27/car_rental/internal/core/ports"
)

// CarService serves read access to car records. Booking fields are only ever
// written by ReservationService.
type CarService struct {
	carRepo ports.CarRepository
	cache   ports.CarCache
	log     *log.Entry
}

func NewCarService(carRepo ports.CarRepository, cache ports.CarCache, logger *log.Entry) *CarService {
	return &CarService{carRepo: carRepo, cache: cache, log: logger}
}

func (s *CarService) AddCar(ctx context.Context, price domain.Money) (*domain.Car, error) {
	car := domain.NewCar(price)
	if err := car.Validate(); err != nil {
		return nil, err
	}

	if err := s.carRepo.Create(ctx, car); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateAvailable(ctx); err != nil {
			s.log.WithError(err).Warn("failed to invalidate available cars cache")
		}
	}

	return car, nil
}

func (s *CarService) GetCar(ctx context.Context, id string) (*domain.Car, error) {
	carID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrCarNotFound
	}

	return s.carRepo.GetByID(ctx, carID)
}

func (s *CarService) ListAvailable(ctx context.Context) ([]domain.Car, error) {
	if s.cache != nil {
		cars, hit, err := s.cache.GetAvailable(ctx)
		if err != nil {
			s.log.WithError(err).Warn("available cars cache read failed")
		} else if hit {
			return cars, nil
		}
	}

	cars, err := s.carRepo.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetAvailable(ctx, cars); err != nil {
			s.log.WithError(err).Warn("available cars cache write failed")
		}
	}

	return cars, nil
}
