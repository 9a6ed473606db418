// Package localcache is the durable key-value mirror of in-memory state.
// Values are JSON-encoded; every key is owned by exactly one component.
package localcache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type Cache struct {
	db *sql.DB
}

// Open creates or opens the cache database at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// SQLite does not benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging cache database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS cache (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache table: %w", err)
	}

	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get reads the value stored under key into out. It returns false when the
// key is absent. A stored value that no longer decodes is reported as an
// error so callers can fall back to their default.
func (c *Cache) Get(key string, out any) (bool, error) {
	var raw string

	err := c.db.QueryRow("SELECT value FROM cache WHERE key = ?", key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("reading cache key %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decoding cache key %q: %w", key, err)
	}

	return true, nil
}

// Set stores v under key, replacing any previous value. The write completes
// before Set returns; there is no batching window.
func (c *Cache) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding cache key %q: %w", key, err)
	}

	if _, err := c.db.Exec(
		"INSERT INTO cache (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		key, string(raw),
	); err != nil {
		return fmt.Errorf("writing cache key %q: %w", key, err)
	}

	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (c *Cache) Delete(key string) error {
	if _, err := c.db.Exec("DELETE FROM cache WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting cache key %q: %w", key, err)
	}

	return nil
}

// Load reads key into out and reports whether a usable value was found.
// Missing or corrupt entries leave out untouched and are logged; Load never
// fails to the caller.
func (c *Cache) Load(key string, out any) bool {
	found, err := c.Get(key, out)
	if err != nil {
		slog.Error("falling back to default for cache key", "key", key, "error", err)
		return false
	}

	return found
}
