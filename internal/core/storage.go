package core

import (
	"context"
	"familycore/internal/blob"
	"familycore/internal/infra/persistence/memory"
	"familycore/internal/infra/persistence/objectstore"
	"familycore/internal/infra/persistence/postgres"
	"familycore/internal/infra/persistence/redis"
	"familycore/internal/infra/persistence/sqlite"
	"familycore/pkg/domain"
	"fmt"
	"strings"
)

// StorageDriver identifies a concrete storage backend implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageRedis    StorageDriver = "redis"    // redis string keys
	StorageBlob     StorageDriver = "blob"     // JSON objects in the configured blob store
)

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Driver        string
	SQLitePath    string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	BlobPrefix    string
}

// OpenBackend builds the backend selected by cfg.Driver. Defaults to sqlite
// when unset. The blob driver stores records in blobs, which must be non-nil.
func OpenBackend(ctx context.Context, cfg StorageConfig, blobs blob.Store) (domain.Backend, error) {
	driver := StorageDriver(strings.ToLower(strings.TrimSpace(cfg.Driver)))
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath)
	case StoragePostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	case StorageRedis:
		return redis.NewStore(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	case StorageBlob:
		if blobs == nil {
			return nil, fmt.Errorf("storage driver %s: %w", driver, ErrNoBlobStore)
		}
		return objectstore.NewStore(blobs, cfg.BlobPrefix)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
