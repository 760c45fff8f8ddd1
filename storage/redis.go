package storage

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	dbredis "github.com/octabyte/pharmacy-session/db/redis"
)

// Redis stores each key as a plain string under prefix+key, without TTL.
type Redis struct {
	client goredis.UniversalClient
	prefix string
}

func NewRedis(client goredis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, found, err := dbredis.Get(ctx, r.client, r.prefix+key)
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	if !found {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := dbredis.Set(ctx, r.client, r.prefix+key, value); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := dbredis.Del(ctx, r.client, r.prefix+key); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
