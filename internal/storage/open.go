package storage

import (
	"fmt"

	"dummyshop/storefront/internal/config"
)

// Open builds the backend selected by cfg.Backend.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.File)
	case config.BackendSQLite:
		return OpenSQLiteStore(cfg.SQLitePath)
	case config.BackendPostgres:
		return OpenPostgresStore(cfg.DatabaseURL)
	case config.BackendRedis:
		return OpenRedisStore(RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
