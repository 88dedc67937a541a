package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/timey-uz/timey-backend/internal/domain"
	"github.com/timey-uz/timey-backend/pkg/config"
)

// AvailabilityCache is a short-lived snapshot of a master's computed
// today-availability, invalidated on any write that could change it.
type AvailabilityCache interface {
	Get(ctx context.Context, masterID int64, date time.Time) (*domain.TodayAvailability, error)
	Set(ctx context.Context, masterID int64, date time.Time, avail *domain.TodayAvailability) error
	Invalidate(ctx context.Context, masterID int64, date time.Time) error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(cfg config.RedisConfig, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		ttl:    ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context, masterID int64, date time.Time) (*domain.TodayAvailability, error) {
	data, err := c.client.Get(ctx, availabilityKey(masterID, date)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var avail domain.TodayAvailability
	if err := json.Unmarshal(data, &avail); err != nil {
		return nil, err
	}
	return &avail, nil
}

func (c *RedisCache) Set(ctx context.Context, masterID int64, date time.Time, avail *domain.TodayAvailability) error {
	payload, err := json.Marshal(avail)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, availabilityKey(masterID, date), payload, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, masterID int64, date time.Time) error {
	return c.client.Del(ctx, availabilityKey(masterID, date)).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func availabilityKey(masterID int64, date time.Time) string {
	return fmt.Sprintf("availability:%d:%s", masterID, date.Format("2006-01-02"))
}
