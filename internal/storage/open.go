package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/surajkumarsah0/bazar-frontend/internal/config"
)

const redisPrefix = "bazar"

// Openは設定に合わせてStoreを作る。
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return NewMemoryStore(), nil

	case config.StorageFile, "":
		return NewFileStore(cfg.DataDir)

	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisStore(client, redisPrefix), nil

	case config.StoragePostgres:
		db, err := Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s := NewGormStore(db)
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("migrate kv table: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}
