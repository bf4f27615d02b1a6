// Package runlog records the outcome of archive build runs.
package runlog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"dwcarchive/internal/diag"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Record captures one archive build run.
type Record struct {
	ID          string            `json:"id"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	Status      Status            `json:"status"`
	ArchiveKey  string            `json:"archive_key,omitempty"`
	ArchiveSize int64             `json:"archive_size_bytes,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// Store persists run records.
type Store interface {
	SaveRun(ctx context.Context, rec Record) error
	GetRun(ctx context.Context, id string) (Record, bool, error)
	// ListRuns returns all records ordered by start time, then ID.
	ListRuns(ctx context.Context) ([]Record, error)
	Close() error
}

// Open constructs a Store for the given driver: "memory", "sqlite" or
// "postgres". dsn is the database path or connection string; memory ignores
// it.
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(dsn)
	default:
		return nil, fmt.Errorf("unknown runlog driver %s", driver)
	}
}

func sortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].StartedAt.Equal(recs[j].StartedAt) {
			return recs[i].StartedAt.Before(recs[j].StartedAt)
		}
		return recs[i].ID < recs[j].ID
	})
}

// MemoryStore keeps records in process memory. Intended for tests and
// one-shot runs with no persistence configured.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]Record
}

func NewMemory() *MemoryStore { return &MemoryStore{recs: make(map[string]Record)} }

func (s *MemoryStore) SaveRun(_ context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("run record requires an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.ID] = rec
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	return rec, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.recs))
	for _, rec := range s.recs {
		out = append(out, rec)
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
