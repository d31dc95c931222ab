// Package store persists small client-local slots such as the vehicle selection.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/autopeer-io/tripdash/pkg/log"
	"github.com/autopeer-io/tripdash/pkg/options"
)

// Well-known slots. KeyLocation keeps the last navigation state of the
// command line client.
const (
	KeySelectedVehicles = "selected_vehicle_ids"
	KeyTimeRange        = "trip_filter_range"
	KeyCookies          = "session_cookies"
	KeyLocation         = "last_location"
)

// Store is a small client-local key/value store. Each key is a slot holding
// one string value, written atomically.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Slot is the table row behind a key.
type Slot struct {
	Key       string `gorm:"primaryKey;size:191"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

type gormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open database and migrates the slot table.
func NewGormStore(db *gorm.DB) (Store, error) {
	if err := db.AutoMigrate(&Slot{}); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}
	return &gormStore{db: db}, nil
}

// Open connects to the store described by opts.
func Open(opts *options.StoreOptions) (Store, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case "memory":
		return NewMemory(), nil
	case "postgres":
		dialector = postgres.Open(opts.DSN)
	case "sqlite":
		if err := ensureDir(opts.DSN); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", opts.Driver)
	}

	level := logger.Silent
	if opts.Debug {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(logWriter{log.WithName("store").Logr()}, logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	return NewGormStore(db)
}

func ensureDir(dsn string) error {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}
	return nil
}

func (s *gormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var slot Slot
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return slot.Value, true, nil
}

func (s *gormStore) Set(ctx context.Context, key, value string) error {
	slot := Slot{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&slot).Error
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	return nil
}

func (s *gormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&Slot{}).Error; err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}

func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetJSON decodes the slot into v. found is false for a missing slot.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("slot %s holds invalid JSON: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v into the slot.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode slot %s: %w", key, err)
	}
	return s.Set(ctx, key, string(raw))
}

// logWriter routes gorm's printf-style output into the structured logger.
type logWriter struct {
	l logr.Logger
}

func (w logWriter) Printf(format string, args ...any) {
	w.l.V(1).Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
