// Package postgres is a result store backed by PostgreSQL through GORM
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chrissnell/lunarmansion/internal/engine"
	"github.com/chrissnell/lunarmansion/internal/log"
	"github.com/chrissnell/lunarmansion/internal/storage"
	"go.uber.org/zap"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store keeps results in the cached_results table
type Store struct {
	DB     *gorm.DB
	logger *zap.SugaredLogger
}

// CreateConnection opens a GORM connection with the standard logger configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true, // a miss is routine for a cache
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(pgdriver.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// New connects and migrates the cache table
func New(ctx context.Context, connectionString string, zl *zap.SugaredLogger) (*Store, error) {
	if zl == nil {
		zl = zap.NewNop().Sugar()
	}

	zl.Info("connecting to PostgreSQL result cache...")
	db, err := CreateConnection(connectionString)
	if err != nil {
		zl.Warnf("unable to create a PostgreSQL connection: %v", err)
		return nil, err
	}

	if err := db.WithContext(ctx).AutoMigrate(&CachedResult{}); err != nil {
		return nil, fmt.Errorf("could not migrate result cache table: %w", err)
	}
	zl.Info("PostgreSQL result cache ready")

	return &Store{DB: db, logger: zl}, nil
}

func (s *Store) Get(ctx context.Context, key string) (*engine.Result, bool, error) {
	var row CachedResult
	err := s.DB.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error querying result cache: %w", err)
	}

	res, err := storage.Decode(row.Payload)
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

	row := CachedResult{Key: key, Payload: payload}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		s.logger.Errorf("could not store result %s: %v", key, err)
		return err
	}
	return nil
}

func (s *Store) CheckHealth(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
