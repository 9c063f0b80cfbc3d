package managers

import (
	"context"
	"fmt"

	"github.com/chrissnell/lunarmansion/internal/storage"
	"github.com/chrissnell/lunarmansion/internal/storage/memory"
	"github.com/chrissnell/lunarmansion/internal/storage/postgres"
	"github.com/chrissnell/lunarmansion/internal/storage/redis"
	"github.com/chrissnell/lunarmansion/internal/storage/sqlite"
	"github.com/chrissnell/lunarmansion/pkg/config"
	"go.uber.org/zap"
)

// NewResultStore creates the result cache selected by the configuration.
// The "none" backend returns a nil store, which disables caching.
func NewResultStore(ctx context.Context, c config.CacheData, logger *zap.SugaredLogger) (storage.ResultStore, error) {
	logger.Infof("using %s result cache", c.Backend)

	switch c.Backend {
	case config.CacheNone:
		return nil, nil
	case config.CacheMemory, "":
		return memory.New(), nil
	case config.CacheSQLite:
		s, err := sqlite.New(ctx, c.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("could not add SQLite result cache: %v", err)
		}
		return s, nil
	case config.CachePostgres:
		s, err := postgres.New(ctx, c.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("could not add PostgreSQL result cache: %v", err)
		}
		return s, nil
	case config.CacheRedis:
		s, err := redis.New(ctx, redis.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("could not add Redis result cache: %v", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown result cache backend %q", c.Backend)
}
