// Package store is the device's non-volatile key/value storage. Values are
// opaque byte blobs; callers own their encoding.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bedclock/internal/model"
)

// Store defines the storage operations the rest of the device relies on.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, bool, error)
	Write(ctx context.Context, key string, value []byte) error
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for handlers that need it.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// Read returns the value stored under key. A missing key is not an error.
func (s *gormStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var pref model.Preference
	err := s.db.WithContext(ctx).First(&pref, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return pref.Value, true, nil
}

// Write stores value under key, replacing what was there. The write is
// synchronous: when it returns nil the value is committed.
func (s *gormStore) Write(ctx context.Context, key string, value []byte) error {
	pref := model.Preference{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}
