package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"dwcarchive/internal/table"
)

// SQLiteCache persists dataset tables as JSON blobs in a single table.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (creating if needed) a cache database at path.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	if path == "" {
		path = "dwcarchive-cache.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS datasets (
		id TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create datasets table: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Get(ctx context.Context, id string) (*table.Table, bool, error) {
	var payload []byte
	err := c.db.QueryRowContext(ctx, `SELECT payload FROM datasets WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select dataset %s: %w", id, err)
	}
	var tbl table.Table
	if err := json.Unmarshal(payload, &tbl); err != nil {
		return nil, false, fmt.Errorf("decode dataset %s: %w", id, err)
	}
	return &tbl, true, nil
}

func (c *SQLiteCache) Put(ctx context.Context, id string, tbl *table.Table) error {
	payload, err := json.Marshal(tbl)
	if err != nil {
		return fmt.Errorf("encode dataset %s: %w", id, err)
	}
	if _, err := c.db.ExecContext(ctx,
		`INSERT INTO datasets (id, payload) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`, id, payload); err != nil {
		return fmt.Errorf("store dataset %s: %w", id, err)
	}
	return nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
