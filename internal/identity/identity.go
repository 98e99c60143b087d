// Package identity keeps the per-device voter token used by the backend to
// reject repeat votes. The token is created once and reused until the
// device storage is cleared.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/smartpolls/internal/logger"
)

// VoterKey is the storage key of the device voter token
const VoterKey = "smart-polls:voterId"

// ErrEmptyValue is returned when a generator produces an empty value
var ErrEmptyValue = errors.New("generated value is empty")

// Store is a device-local key-value store. GetOrCreate must behave as an
// atomic read-if-absent-then-write: concurrent callers for the same key all
// observe the same value.
type Store interface {
	GetOrCreate(ctx context.Context, key string, gen func() (string, error)) (string, error)
}

// Voter hands out the device voter ID
type Voter struct {
	store Store
	gen   func() (string, error)
	log   *log.Logger
}

// NewVoter creates a Voter backed by store, generating random UUIDs
func NewVoter(store Store) *Voter {
	return &Voter{
		store: store,
		gen:   NewToken,
		log:   logger.Identity(),
	}
}

// NewToken returns a new globally unique opaque token
func NewToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate voter id: %w", err)
	}
	return id.String(), nil
}

// VoterID returns the persisted voter ID, creating it on first use
func (v *Voter) VoterID(ctx context.Context) (string, error) {
	created := false
	id, err := v.store.GetOrCreate(ctx, VoterKey, func() (string, error) {
		created = true
		return v.gen()
	})
	if err != nil {
		return "", fmt.Errorf("failed to load voter id: %w", err)
	}

	if created {
		v.log.Debug("Generated device voter id")
	}
	return id, nil
}

func generate(gen func() (string, error)) (string, error) {
	value, err := gen()
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", ErrEmptyValue
	}
	return value, nil
}
