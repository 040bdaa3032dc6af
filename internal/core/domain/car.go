package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type BookingStatus string

const (
	CarAvailable BookingStatus = "available"
	CarBooked    BookingStatus = "booked"
)

// Money is a price in minor units (cents, sen) of Currency.
type Money struct {
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

type Car struct {
	ID            uuid.UUID     `json:"id"`
	BookingStatus BookingStatus `json:"booking_status"`
	BookedBy      *string       `json:"booked_by,omitempty"`
	BookedAt      *time.Time    `json:"booked_at,omitempty"`
	Price         Money         `json:"price"`
}

func NewCar(price Money) *Car {
	return &Car{
		ID:            uuid.New(),
		BookingStatus: CarAvailable,
		Price:         price,
	}
}

func (c *Car) IsAvailable() bool {
	return c.BookingStatus == CarAvailable
}

// Validate checks that the booking fields are consistent: an available car has
// neither holder nor timestamp, a booked car has both.
func (c *Car) Validate() error {
	if c.ID == uuid.Nil {
		return errors.Wrap(ErrInvalidCar, "missing id")
	}

	switch c.BookingStatus {
	case CarAvailable:
		if c.BookedBy != nil || c.BookedAt != nil {
			return errors.Wrapf(ErrInvalidCar, "car %s is available but carries a reservation", c.ID)
		}
	case CarBooked:
		if c.BookedBy == nil || *c.BookedBy == "" || c.BookedAt == nil {
			return errors.Wrapf(ErrInvalidCar, "car %s is booked without holder or timestamp", c.ID)
		}
	default:
		return errors.Wrapf(ErrInvalidCar, "unknown booking status %q", c.BookingStatus)
	}

	if c.Price.AmountMinor < 0 {
		return errors.Wrap(ErrInvalidCar, "negative price")
	}
	if len(c.Price.Currency) != 3 {
		return errors.Wrapf(ErrInvalidCar, "currency must be a 3-letter code, got %q", c.Price.Currency)
	}

	return nil
}
