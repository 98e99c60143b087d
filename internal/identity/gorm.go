package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceSetting is a single persisted key-value pair
type DeviceSetting struct {
	Key       string    `gorm:"primaryKey;size:191"`
	Value     string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the table name
func (DeviceSetting) TableName() string {
	return "device_settings"
}

// GormStore persists values in a database table. Inserts use
// ON CONFLICT DO NOTHING and the stored row is read back, so separate
// processes sharing the database converge on the first written value.
type GormStore struct {
	mu sync.Mutex
	db *gorm.DB
}

// NewGormStore migrates the settings table and returns the store
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&DeviceSetting{}); err != nil {
		return nil, fmt.Errorf("failed to migrate device settings: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) GetOrCreate(ctx context.Context, key string, gen func() (string, error)) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.db.WithContext(ctx)

	var existing DeviceSetting
	err := db.Where(&DeviceSetting{Key: key}).Take(&existing).Error
	if err == nil && existing.Value != "" {
		return existing.Value, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}

	value, err := generate(gen)
	if err != nil {
		return "", err
	}

	row := DeviceSetting{Key: key, Value: value}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return "", fmt.Errorf("failed to store setting %s: %w", key, err)
	}

	var stored DeviceSetting
	if err := db.Where(&DeviceSetting{Key: key}).Take(&stored).Error; err != nil {
		return "", fmt.Errorf("failed to read back setting %s: %w", key, err)
	}
	return stored.Value, nil
}
