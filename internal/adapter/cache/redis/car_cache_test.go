package redis_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rediscache "github.com/srgjo27/car_rental/internal/adapter/cache/redis"
	"github.com/srgjo27/car_rental/internal/core/domain"
)

func TestCarCache_GetAvailable_Miss(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	cache := rediscache.NewCarCache(db, time.Minute)

	mockRedis.ExpectGet(rediscache.AvailableCarsKey).RedisNil()

	cars, hit, err := cache.GetAvailable(context.Background())

	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, cars)
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestCarCache_GetAvailable_Hit(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	cache := rediscache.NewCarCache(db, time.Minute)

	cached := []domain.Car{{ID: uuid.New(), BookingStatus: domain.CarAvailable, Price: domain.Money{AmountMinor: 500, Currency: "USD"}}}
	raw, _ := json.Marshal(cached)
	mockRedis.ExpectGet(rediscache.AvailableCarsKey).SetVal(string(raw))

	cars, hit, err := cache.GetAvailable(context.Background())

	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, cached, cars)
}

func TestCarCache_GetAvailable_Error(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	cache := rediscache.NewCarCache(db, time.Minute)

	mockRedis.ExpectGet(rediscache.AvailableCarsKey).SetErr(errors.New("connection refused"))

	_, hit, err := cache.GetAvailable(context.Background())

	assert.Error(t, err)
	assert.False(t, hit)
}

func TestCarCache_SetAndInvalidate(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	cache := rediscache.NewCarCache(db, 30*time.Second)

	cars := []domain.Car{{ID: uuid.New(), BookingStatus: domain.CarAvailable, Price: domain.Money{AmountMinor: 1, Currency: "EUR"}}}
	raw, _ := json.Marshal(cars)

	mockRedis.ExpectSet(rediscache.AvailableCarsKey, raw, 30*time.Second).SetVal("OK")
	mockRedis.ExpectDel(rediscache.AvailableCarsKey).SetVal(1)

	require.NoError(t, cache.SetAvailable(context.Background(), cars))
	require.NoError(t, cache.InvalidateAvailable(context.Background()))

	if err := mockRedis.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}
