package store

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore persists readings in a local SQLite database.
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLite opens (and migrates) the readings database at path.
// Use ":memory:" for an ephemeral database in tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	if err := db.AutoMigrate(&Reading{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, r *Reading) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("store: save reading: %w", err)
	}
	return nil
}

// Recent implements Store.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Reading, error) {
	var readings []Reading
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Limit(n).
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("store: list readings: %w", err)
	}
	return readings, nil
}
