package storage

import (
	"fmt"

	"github.com/gravadigital/smartpolls/internal/config"
	"github.com/gravadigital/smartpolls/internal/storage/database"
)

// StorageType represents the type of storage backend
type StorageType string

const (
	// StorageTypeMemory keeps polls in process memory
	StorageTypeMemory StorageType = "memory"
	// StorageTypeSQLite represents a local SQLite file
	StorageTypeSQLite StorageType = "sqlite"
	// StorageTypePostgres represents PostgreSQL storage
	StorageTypePostgres StorageType = "postgres"
)

// Factory provides a factory pattern for creating poll stores
type Factory struct {
	storageType StorageType
	opts        []Option
}

// NewFactory creates a new storage factory
func NewFactory(storageType StorageType, opts ...Option) *Factory {
	return &Factory{
		storageType: storageType,
		opts:        opts,
	}
}

// CreateStore creates a poll store based on the configured type
func (f *Factory) CreateStore(cfg *config.Config) (PollStore, error) {
	switch f.storageType {
	case StorageTypeMemory:
		return NewMemoryStore(f.opts...), nil
	case StorageTypeSQLite, StorageTypePostgres:
		db, err := database.Connect(cfg, string(f.storageType))
		if err != nil {
			return nil, err
		}
		store, err := NewGormStore(db, f.opts...)
		if err != nil {
			_ = database.Close(db)
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", f.storageType)
	}
}

// GetSupportedTypes returns a list of supported storage types
func GetSupportedTypes() []StorageType {
	return []StorageType{
		StorageTypeMemory,
		StorageTypeSQLite,
		StorageTypePostgres,
	}
}

// ValidateStorageType validates if a storage type is supported
func ValidateStorageType(storageType string) (StorageType, error) {
	st := StorageType(storageType)

	for _, supported := range GetSupportedTypes() {
		if st == supported {
			return st, nil
		}
	}

	return "", fmt.Errorf("unsupported storage type: %s. Supported types: %v", storageType, GetSupportedTypes())
}

// DefaultFactory returns a factory configured with the default storage type
func DefaultFactory() *Factory {
	return NewFactory(StorageTypeMemory)
}
