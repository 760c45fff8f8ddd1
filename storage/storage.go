// Package storage provides the durable string key-value stores the session
// is persisted in.
package storage

import (
	"context"
	"errors"
	"fmt"

	dbredis "github.com/octabyte/pharmacy-session/db/redis"
	"github.com/octabyte/pharmacy-session/enums"
)

var ErrKeyNotFound = errors.New("key not found")

type Storage interface {
	// Get returns ErrKeyNotFound when key has never been set or was removed.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Remove is idempotent.
	Remove(ctx context.Context, key string) error
}

type Config struct {
	Driver    string `validate:"required,oneof=memory file redis"`
	FilePath  string `validate:"required_if=Driver file"`
	KeyPrefix string
	Redis     dbredis.Config `validate:"-"`
}

// Open builds the driver named by cfg. The returned close function releases
// the driver's resources and is never nil.
func Open(ctx context.Context, cfg Config) (Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case enums.StorageDriverMemory, "":
		return NewMemory(), noop, nil
	case enums.StorageDriverFile:
		return NewFile(cfg.FilePath), noop, nil
	case enums.StorageDriverRedis:
		client, err := dbredis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		return NewRedis(client, cfg.KeyPrefix), client.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
