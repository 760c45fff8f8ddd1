package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Config holds the configuration for the Redis client
type Config struct {
	Addr     string `validate:"required,hostname_port"`
	Password string
	DB       int `validate:"gte=0"`
}

// NewRedisClient connects and pings the server. The client is closed again
// when the ping fails.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	return client, nil
}

func Ping(ctx context.Context, client redis.UniversalClient) error {
	return client.Ping(ctx).Err()
}
