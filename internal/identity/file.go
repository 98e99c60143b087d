package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryDelay is how often a busy lock file is retried
const lockRetryDelay = 10 * time.Millisecond

// FileStore persists values as a JSON object in a single file. Writes go
// through a temp file and rename so a crash never leaves a torn file.
// GetOrCreate holds an flock on path+".lock", so processes sharing the file
// agree on one value.
type FileStore struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

// NewFileStore returns a store backed by the file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

// GetOrCreate returns the value stored under key, generating and persisting
// it first when absent
func (s *FileStore) GetOrCreate(ctx context.Context, key string, gen func() (string, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create store directory: %w", err)
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return "", fmt.Errorf("failed to lock %s: %w", s.lock.Path(), err)
	}
	if !locked {
		return "", fmt.Errorf("failed to lock %s", s.lock.Path())
	}
	defer s.lock.Unlock()

	values, err := s.read()
	if err != nil {
		return "", err
	}
	if value, ok := values[key]; ok && value != "" {
		return value, nil
	}

	value, err := generate(gen)
	if err != nil {
		return "", err
	}
	values[key] = value

	if err := s.write(values); err != nil {
		return "", err
	}
	return value, nil
}

func (s *FileStore) read() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return values, nil
	}

	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("corrupt store file %s: %w", s.path, err)
	}
	return values, nil
}

func (s *FileStore) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".device-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}
