package lockout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "clinic:login:"

// RedisStore shares lockout state between instances. Failure counters
// expire with their window and locks with their duration.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func failuresKey(key string) string { return keyPrefix + "fail:" + key }
func lockKey(key string) string     { return keyPrefix + "lock:" + key }

func (s *RedisStore) Get(ctx context.Context, key string, now time.Time) (Record, error) {
	var (
		failures *redis.StringCmd
		ttl      *redis.DurationCmd
	)
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		failures = pipe.Get(ctx, failuresKey(key))
		ttl = pipe.PTTL(ctx, lockKey(key))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return Record{}, fmt.Errorf("read lockout: %w", err)
	}

	var record Record
	count, err := failures.Int()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return Record{}, fmt.Errorf("parse failure count: %w", err)
	default:
		record.Failures = count
	}
	// PTTL reports -2 for a missing key and -1 for one without expiry.
	if remaining := ttl.Val(); remaining > 0 {
		record.LockedUntil = now.Add(remaining)
	}
	return record, nil
}

func (s *RedisStore) RecordFailure(ctx context.Context, key string, window time.Duration, _ time.Time) (int, error) {
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, failuresKey(key))
		pipe.ExpireNX(ctx, failuresKey(key), window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("record login failure: %w", err)
	}
	return int(incr.Val()), nil
}

func (s *RedisStore) Lock(ctx context.Context, key string, until, now time.Time) error {
	if err := s.client.Set(ctx, lockKey(key), until.Unix(), until.Sub(now)).Err(); err != nil {
		return fmt.Errorf("lock login: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, failuresKey(key), lockKey(key)).Err(); err != nil {
		return fmt.Errorf("clear login failures: %w", err)
	}
	return nil
}
