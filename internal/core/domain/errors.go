package domain

import "github.com/pkg/errors"

var (
	ErrCarNotFound   = errors.New("car not found")
	ErrAlreadyBooked = errors.New("car is already booked")
	ErrInvalidCar    = errors.New("invalid car record")
)
