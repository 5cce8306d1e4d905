package internal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"
)

// Settings keys persisted across invocations. The names are fixed: they are
// part of the on-disk contract and must not be renamed.
const (
	KeyBaseURL        = "baseUrl"
	KeyAPIKey         = "apiKey"
	KeyToken          = "kivo_token"
	KeyActiveKB       = "kbId"
	KeySelectedByUser = "kbSelectedByUser"
	KeyLastIngestAt   = "lastIngestAt"
	KeyLastLatencyMs  = "lastLatencyMs"
	KeyAvgLatencyMs   = "avgLatencyMs"
	KeyQueryCount     = "queryCount"
)

// DefaultBaseURL is used when no connection has been configured yet
const DefaultBaseURL = "http://127.0.0.1:8000"

// Store is the persisted settings contract. Getters never fail: missing or
// malformed values yield the fallback. Every tracked in-memory change is
// mirrored through Set immediately, with no batching.
type Store interface {
	Get(key, fallback string) string
	GetInt(key string, fallback int) int
	Set(key, value string) error
	SetInt(key string, value int) error
	Delete(key string) error
	Close() error
}

// SQLiteStore persists settings in a single key-value table
type SQLiteStore struct {
	db *sql.DB
}

// OpenSettings opens (creating if needed) the settings database at path
func OpenSettings(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &SettingsError{Op: "mkdir", Key: dir, Err: err}
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &SettingsError{Op: "open", Key: path, Err: err}
	}
	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wraps an already-open database, creating the settings table
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if err := db.Ping(); err != nil {
		return nil, &SettingsError{Op: "ping", Err: err}
	}
	const schema = `CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return nil, &SettingsError{Op: "migrate", Err: err}
	}
	return &SQLiteStore{db: db}, nil
}

// Get returns the stored value or fallback when the key is absent
func (s *SQLiteStore) Get(key, fallback string) string {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			LogDebug("settings read failed for %q: %v", key, err)
		}
		return fallback
	}
	return value
}

// GetInt parses the stored value as an integer, falling back on missing or
// non-numeric values. Never fails.
func (s *SQLiteStore) GetInt(key string, fallback int) int {
	raw := s.Get(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// Set writes a value, replacing any previous one
func (s *SQLiteStore) Set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return &SettingsError{Op: "write", Key: key, Err: err}
	}
	return nil
}

// SetInt writes an integer value
func (s *SQLiteStore) SetInt(key string, value int) error {
	return s.Set(key, strconv.Itoa(value))
}

// Delete removes a key; deleting an absent key is not an error
func (s *SQLiteStore) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM settings WHERE key = ?", key); err != nil {
		return &SettingsError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Close releases the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadConnection assembles the connection config from the store, applying
// environment overrides for values that were never configured.
func LoadConnection(store Store) ConnectionConfig {
	cfg := ConnectionConfig{
		BaseURL: store.Get(KeyBaseURL, ""),
		APIKey:  store.Get(KeyAPIKey, ""),
	}
	if cfg.BaseURL == "" {
		if env := os.Getenv("KIVO_BASE_URL"); env != "" {
			cfg.BaseURL = env
		} else {
			cfg.BaseURL = DefaultBaseURL
		}
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("KIVO_API_KEY")
	}
	return cfg
}

// DefaultSettingsPath returns the standard location of the settings database
func DefaultSettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".kivoctl", "settings.db"), nil
}
