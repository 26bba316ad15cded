package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sessiondeck/folderdeck/internal/capability"
)

// StateEntry is one persisted document in the extension state table.
type StateEntry struct {
	Key       string         `gorm:"primaryKey;size:191"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName keeps the table clearly namespaced inside a shared host database.
func (StateEntry) TableName() string { return "extension_state" }

// DatabaseStore implements the storage capability over a SQL database.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore migrates the state table and returns a store over db.
func NewDatabaseStore(db *gorm.DB) (*DatabaseStore, error) {
	if db == nil {
		return nil, errors.New("storage: db is required")
	}
	if err := db.AutoMigrate(&StateEntry{}); err != nil {
		return nil, fmt.Errorf("storage: migrate state table: %w", err)
	}
	return &DatabaseStore{db: db}, nil
}

// Read returns the stored document for key, or capability.ErrKeyNotFound.
func (s *DatabaseStore) Read(ctx context.Context, key string) ([]byte, error) {
	var entry StateEntry
	err := s.db.WithContext(ctx).Take(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, capability.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return entry.Value, nil
}

// Write upserts the document for key.
func (s *DatabaseStore) Write(ctx context.Context, key string, value []byte) error {
	entry := StateEntry{
		Key:   key,
		Value: datatypes.JSON(value),
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	return nil
}
