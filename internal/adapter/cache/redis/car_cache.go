package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/srgjo27/car_rental/internal/core/domain"
)

const AvailableCarsKey = "cars:available"

type CarCache struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func NewCarCache(client goredis.Cmdable, ttl time.Duration) *CarCache {
	return &CarCache{client: client, ttl: ttl}
}

func (c *CarCache) GetAvailable(ctx context.Context) ([]domain.Car, bool, error) {
	raw, err := c.client.Get(ctx, AvailableCarsKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get available cars")
	}

	var cars []domain.Car
	if err := json.Unmarshal(raw, &cars); err != nil {
		return nil, false, errors.Wrap(err, "decode cached cars")
	}

	return cars, true, nil
}

func (c *CarCache) SetAvailable(ctx context.Context, cars []domain.Car) error {
	if cars == nil {
		cars = []domain.Car{}
	}

	raw, err := json.Marshal(cars)
	if err != nil {
		return errors.Wrap(err, "encode cars")
	}

	return errors.Wrap(c.client.Set(ctx, AvailableCarsKey, raw, c.ttl).Err(), "redis set available cars")
}

func (c *CarCache) InvalidateAvailable(ctx context.Context) error {
	return errors.Wrap(c.client.Del(ctx, AvailableCarsKey).Err(), "redis del available cars")
}
