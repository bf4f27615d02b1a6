// Package source loads the three survey input tables, caching fetched
// datasets locally so repeat runs do not hit the ERDDAP server.
package source

import (
	"context"

	"dwcarchive/internal/table"
)

// Fetcher retrieves one dataset by identifier. *erddap.Client satisfies it.
type Fetcher interface {
	FetchDataset(ctx context.Context, id string, constraints ...string) (*table.Table, error)
}

// Cache stores fetched dataset tables keyed by dataset identifier.
type Cache interface {
	Get(ctx context.Context, id string) (*table.Table, bool, error)
	Put(ctx context.Context, id string, tbl *table.Table) error
	Close() error
}

// Loader resolves datasets cache-first, falling back to the fetcher and
// recording the result. A nil cache makes every load a fetch.
type Loader struct {
	fetcher Fetcher
	cache   Cache
}

func NewLoader(fetcher Fetcher, cache Cache) *Loader {
	return &Loader{fetcher: fetcher, cache: cache}
}

// Load returns the table for one dataset identifier.
func (l *Loader) Load(ctx context.Context, id string) (*table.Table, error) {
	if l.cache != nil {
		if tbl, ok, err := l.cache.Get(ctx, id); err != nil {
			return nil, err
		} else if ok {
			return tbl, nil
		}
	}
	tbl, err := l.fetcher.FetchDataset(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.cache != nil {
		if err := l.cache.Put(ctx, id, tbl); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}
