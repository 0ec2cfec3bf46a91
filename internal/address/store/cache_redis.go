package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"clinic/internal/address/models"
	"clinic/pkg/platform/sentinel"
)

const keyPrefix = "clinic:cep:"

// RedisCache keeps CEP lookup results for ttl.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns sentinel.ErrNotFound on a cache miss.
func (c *RedisCache) Get(ctx context.Context, zipCode string) (*models.Address, error) {
	raw, err := c.client.Get(ctx, keyPrefix+zipCode).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached cep: %w", err)
	}
	var address models.Address
	if err := json.Unmarshal(raw, &address); err != nil {
		return nil, fmt.Errorf("decode cached cep: %w", err)
	}
	return &address, nil
}

func (c *RedisCache) Set(ctx context.Context, address *models.Address) error {
	raw, err := json.Marshal(address)
	if err != nil {
		return fmt.Errorf("encode cep: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+address.ZipCode, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache cep: %w", err)
	}
	return nil
}
