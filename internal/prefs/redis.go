package prefs

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores preferences as plain redis strings without expiry.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(ctx context.Context, addr, password string, db int) (*RedisBackend, error) {
	if addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisBackend{client: client}, nil
}

func (r *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
