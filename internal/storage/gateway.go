package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// Gateway errors.
var (
	ErrEmptyBlob  = errors.New("empty blob")
	ErrInvalidKey = errors.New("invalid storage key")
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Gateway persists opaque blobs under string keys.
type Gateway interface {
	// Load returns the blob for key, or ok=false when nothing is stored.
	Load(key string) (blob []byte, ok bool, err error)
	Save(key string, blob []byte) error
	Close() error
}

// FileGateway stores each key as <dir>/<key>.cbor.
type FileGateway struct {
	mu  sync.Mutex
	dir string
}

// NewFileGateway creates a gateway rooted at dir, creating it if needed.
func NewFileGateway(dir string) (*FileGateway, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileGateway{dir: dir}, nil
}

// Load reads the blob stored under key.
func (gateway *FileGateway) Load(key string) ([]byte, bool, error) {
	path, err := gateway.path(key)
	if err != nil {
		return nil, false, err
	}

	gateway.mu.Lock()
	defer gateway.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return data, true, nil
}

// Save replaces the blob stored under key. The write goes through a temp file
// and a rename so a crash never leaves a truncated snapshot.
func (gateway *FileGateway) Save(key string, blob []byte) error {
	path, err := gateway.path(key)
	if err != nil {
		return err
	}

	gateway.mu.Lock()
	defer gateway.mu.Unlock()

	tmp, err := os.CreateTemp(gateway.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// Close is a no-op for the file gateway.
func (gateway *FileGateway) Close() error {
	return nil
}

func (gateway *FileGateway) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(gateway.dir, key+".cbor"), nil
}
