package identity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/smartpolls/internal/config"
	"github.com/gravadigital/smartpolls/internal/storage/database"
)

// assertConcurrentSingleValue hammers a store and checks every caller saw
// the same value and the generator ran exactly once.
func assertConcurrentSingleValue(t *testing.T, store Store) {
	t.Helper()

	var calls atomic.Int32
	gen := func() (string, error) {
		calls.Add(1)
		return uuid.NewString(), nil
	}

	const workers = 32
	results := make([]string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := store.GetOrCreate(context.Background(), VoterKey, gen)
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, v := range results {
		assert.Equal(t, results[0], v)
	}
}

func TestMemoryStoreConcurrentGetOrCreate(t *testing.T) {
	assertConcurrentSingleValue(t, NewMemoryStore())
}

func TestFileStoreConcurrentGetOrCreate(t *testing.T) {
	assertConcurrentSingleValue(t, NewFileStore(filepath.Join(t.TempDir(), "device.json")))
}

func TestFileStoreInstancesShareOneValue(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	for round := range 20 {
		path := filepath.Join(dir, fmt.Sprintf("device-%d.json", round))
		stores := []*FileStore{NewFileStore(path), NewFileStore(path)}

		values := make([]string, len(stores))
		var wg sync.WaitGroup
		for i, store := range stores {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := store.GetOrCreate(ctx, VoterKey, NewToken)
				assert.NoError(t, err)
				values[i] = v
			}()
		}
		wg.Wait()

		require.Equal(t, values[0], values[1], "round %d", round)
		persisted, err := NewFileStore(path).GetOrCreate(ctx, VoterKey, func() (string, error) {
			return "", errors.New("value should already exist")
		})
		require.NoError(t, err)
		assert.Equal(t, values[0], persisted)
	}
}

func TestFileStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileStore(filepath.Join(t.TempDir(), "device.json")).GetOrCreate(ctx, VoterKey, NewToken)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "device.json")
	ctx := context.Background()

	first, err := NewVoter(NewFileStore(path)).VoterID(ctx)
	require.NoError(t, err)
	_, err = uuid.Parse(first)
	require.NoError(t, err)

	second, err := NewVoter(NewFileStore(path)).VoterID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFileStoreKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark"}`), 0o600))

	store := NewFileStore(path)
	_, err := store.GetOrCreate(context.Background(), VoterKey, NewToken)
	require.NoError(t, err)

	theme, err := store.GetOrCreate(context.Background(), "theme", func() (string, error) {
		t.Fatal("generator must not run for an existing key")
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := NewFileStore(path).GetOrCreate(context.Background(), VoterKey, NewToken)
	assert.ErrorContains(t, err, "corrupt store file")
}

func TestGeneratorErrorsAreNotPersisted(t *testing.T) {
	store := NewMemoryStore()
	boom := errors.New("entropy exhausted")

	_, err := store.GetOrCreate(context.Background(), VoterKey, func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)

	_, err = store.GetOrCreate(context.Background(), VoterKey, func() (string, error) { return "", nil })
	assert.ErrorIs(t, err, ErrEmptyValue)

	v, err := store.GetOrCreate(context.Background(), VoterKey, func() (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestVoterIDIsStable(t *testing.T) {
	voter := NewVoter(NewMemoryStore())
	n := 0
	voter.gen = func() (string, error) {
		n++
		return "device-1", nil
	}

	for range 3 {
		id, err := voter.VoterID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "device-1", id)
	}
	assert.Equal(t, 1, n)
}

func TestVoterIDCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewVoter(NewMemoryStore()).VoterID(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGormStoreSQLite(t *testing.T) {
	cfg := &config.Config{}
	cfg.DB.SQLitePath = filepath.Join(t.TempDir(), "device.db")

	db, err := database.Connect(cfg, database.DriverSQLite)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	store, err := NewGormStore(db)
	require.NoError(t, err)

	assertConcurrentSingleValue(t, store)

	reopened, err := NewGormStore(db)
	require.NoError(t, err)
	v, err := reopened.GetOrCreate(context.Background(), VoterKey, func() (string, error) {
		return "should-not-win", nil
	})
	require.NoError(t, err)
	assert.NotEqual(t, "should-not-win", v)
}

func TestOpen(t *testing.T) {
	cfg := &config.Config{}
	cfg.Voter.Path = filepath.Join(t.TempDir(), "device.json")

	cfg.Voter.Store = StoreMemory
	store, closeFn, err := Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	assert.NoError(t, closeFn())

	cfg.Voter.Store = StoreFile
	store, _, err = Open(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Voter.Path, store.(*FileStore).Path())

	cfg.Voter.Store = StoreSQLite
	store, closeFn, err = Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, &GormStore{}, store)
	assert.FileExists(t, filepath.Join(filepath.Dir(cfg.Voter.Path), "device.db"))
	assert.NoError(t, closeFn())

	cfg.Voter.Store = "redis"
	_, _, err = Open(cfg)
	assert.ErrorContains(t, err, "unsupported voter store")
}
