package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"chronos/internal/config"
)

const sqliteFileName = "chronos.db"

// SQLiteGateway stores blobs in a single key/value table.
type SQLiteGateway struct {
	db *sql.DB
}

// NewSQLiteGateway opens (or creates) the database at path.
func NewSQLiteGateway(path string) (*SQLiteGateway, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps writes serialized without SQLITE_BUSY retries.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	gateway := &SQLiteGateway{db: db}
	if err := gateway.initTables(); err != nil {
		db.Close()
		return nil, err
	}
	return gateway, nil
}

func (gateway *SQLiteGateway) initTables() error {
	_, err := gateway.db.Exec(`
        CREATE TABLE IF NOT EXISTS blobs (
            key TEXT PRIMARY KEY,
            blob BLOB NOT NULL,
            updated_at TIMESTAMP NOT NULL
        )
    `)
	if err != nil {
		return fmt.Errorf("create blobs table: %w", err)
	}
	return nil
}

// Load reads the blob stored under key.
func (gateway *SQLiteGateway) Load(key string) ([]byte, bool, error) {
	if !keyPattern.MatchString(key) {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	var blob []byte
	err := gateway.db.QueryRow(`SELECT blob FROM blobs WHERE key = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query %s: %w", key, err)
	}
	return blob, true, nil
}

// Save upserts the blob stored under key.
func (gateway *SQLiteGateway) Save(key string, blob []byte) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	_, err := gateway.db.Exec(`
        INSERT INTO blobs (key, blob, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at
    `, key, blob, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Close releases the database handle.
func (gateway *SQLiteGateway) Close() error {
	return gateway.db.Close()
}

// Open returns the gateway selected by settings.
func Open(settings config.Settings) (Gateway, error) {
	switch settings.StorageBackend {
	case config.BackendSQLite:
		return NewSQLiteGateway(filepath.Join(settings.DataDir, sqliteFileName))
	case config.BackendFile, "":
		return NewFileGateway(settings.DataDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", settings.StorageBackend)
	}
}
