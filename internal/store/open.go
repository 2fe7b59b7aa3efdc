package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Config selects and configures a Backend.
type Config struct {
	Kind          string // sqlite, redis or memory
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open creates the backend described by cfg.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Kind {
	case "", "sqlite":
		s, err := NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemory(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		return NewRedis(client, RedisConfig{KeyPrefix: cfg.RedisPrefix})
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Kind)
	}
}
