package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Set stores value under key without expiry.
func Set(ctx context.Context, client redis.UniversalClient, key, value string) error {
	return client.Set(ctx, key, value, 0).Err()
}

// Get returns the value of key. found is false when the key does not exist.
func Get(ctx context.Context, client redis.UniversalClient, key string) (value string, found bool, err error) {
	value, err = client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Del deletes keys; missing keys are not an error.
func Del(ctx context.Context, client redis.UniversalClient, keys ...string) error {
	return client.Del(ctx, keys...).Err()
}

func Exists(ctx context.Context, client redis.UniversalClient, key string) (bool, error) {
	n, err := client.Exists(ctx, key).Result()
	return n > 0, err
}
