// Package redis is a result store backed by Redis
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrissnell/lunarmansion/internal/engine"
	"github.com/chrissnell/lunarmansion/internal/storage"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KeyPrefix namespaces every cache key
const KeyPrefix = "lunarmansion:result:"

// Options selects the Redis server
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Store keeps msgpack-encoded results as plain Redis strings without expiry
type Store struct {
	client *goredis.Client
	logger *zap.SugaredLogger
}

// New connects to Redis and verifies the connection
func New(ctx context.Context, opts Options, logger *zap.SugaredLogger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	logger.Infof("connected to redis result cache at %s", opts.Addr)

	return &Store{client: client, logger: logger}, nil
}

func (s *Store) Get(ctx context.Context, key string) (*engine.Result, bool, error) {
	b, err := s.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if errors.Is(err, goredis.ErrClosed) {
		return nil, false, storage.ErrClosed
	}
	if err != nil {
		return nil, false, fmt.Errorf("error reading result cache: %w", err)
	}

	res, err := storage.Decode(b)
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

func (s *Store) Put(ctx context.Context, key string, res *engine.Result) error {
	b, err := storage.Encode(res)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, KeyPrefix+key, b, 0).Err(); err != nil {
		return fmt.Errorf("could not store result: %w", err)
	}
	return nil
}

func (s *Store) CheckHealth(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
