package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// sqlStore persists records as JSON blobs in a single runs table. The two
// backends differ only in driver name, placeholder style and upsert syntax.
type sqlStore struct {
	db     *sql.DB
	get    string
	upsert string
	list   string
}

// NewSQLite opens (creating if needed) a run log at path.
func NewSQLite(path string) (Store, error) {
	if path == "" {
		path = "dwcarchive-runs.db"
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
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &sqlStore{
		db:     db,
		get:    `SELECT payload FROM runs WHERE id = ?`,
		upsert: `INSERT INTO runs (id, payload) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`,
		list:   `SELECT payload FROM runs`,
	}, nil
}

// NewPostgres connects to the run log database identified by dsn.
func NewPostgres(dsn string) (Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres runlog requires a connection string")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		payload BYTEA NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &sqlStore{
		db:     db,
		get:    `SELECT payload FROM runs WHERE id = $1`,
		upsert: `INSERT INTO runs (id, payload) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`,
		list:   `SELECT payload FROM runs`,
	}, nil
}

func (s *sqlStore) SaveRun(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("run record requires an id")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", rec.ID, err)
	}
	if _, err := s.db.ExecContext(ctx, s.upsert, rec.ID, payload); err != nil {
		return fmt.Errorf("store run %s: %w", rec.ID, err)
	}
	return nil
}

func (s *sqlStore) GetRun(ctx context.Context, id string) (Record, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.get, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("select run %s: %w", id, err)
	}
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Record{}, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	return rec, true, nil
}

func (s *sqlStore) ListRuns(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, s.list)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var recs []Record
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var rec Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortRecords(recs)
	return recs, nil
}

func (s *sqlStore) Close() error { return s.db.Close() }
