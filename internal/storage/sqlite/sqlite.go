// Package sqlite is a result store backed by a local SQLite file
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chrissnell/lunarmansion/internal/engine"
	"github.com/chrissnell/lunarmansion/internal/storage"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS cached_results (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Store keeps msgpack-encoded results in the cached_results table
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// New opens (creating if needed) the SQLite database at path
func New(ctx context.Context, path string, logger *zap.SugaredLogger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite has a single writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	logger.Debugf("creating result cache table in %s", path)
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create result cache table: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Get(ctx context.Context, key string) (*engine.Result, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM cached_results WHERE key = ?`, key).Scan(&payload)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case errors.Is(err, sql.ErrConnDone):
		return nil, false, storage.ErrClosed
	case err != nil:
		return nil, false, fmt.Errorf("error querying result cache: %w", err)
	}

	res, err := storage.Decode(payload)
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

func (s *Store) Put(ctx context.Context, key string, res *engine.Result) error {
	payload, err := storage.Encode(res)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO cached_results (key, payload) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`, key, payload)
	if err != nil {
		return fmt.Errorf("could not store result: %w", err)
	}
	return nil
}

func (s *Store) CheckHealth(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
