// Package storage holds the backend-agnostic contracts for writing tracking
// rows: the Repository interface, a registry of backend factories, the
// partitioned parallel loader and the post-load recency deduplication.
//
// Concrete backends live in sub-packages and register themselves from init;
// import storage/all to enable every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is one open connection to the destination table.
type Repository interface {
	// CopyFrom inserts rows aligned to columns inside a single transaction
	// and returns the number of rows written. On error nothing is committed.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// DeleteSuperseded keeps only the newest row per logical key, ranked by
	// the order column descending, and returns the number of rows deleted.
	DeleteSuperseded(ctx context.Context) (int64, error)
	// Exec runs a statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	Close()
}

// Config is the backend-agnostic connection description.
type Config struct {
	Kind  string
	DSN   string
	Table string
	// Columns are the insert columns in order.
	Columns []string
	// KeyColumns form the logical key used by DeleteSuperseded.
	KeyColumns []string
	// OrderColumn ranks rows within a key; the greatest value survives.
	OrderColumn string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. Registering the same kind
// twice replaces the earlier factory.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %v)", cfg.Kind, ListKinds())
	}
	if cfg.Table == "" {
		return nil, fmt.Errorf("storage: table is required")
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered backend kinds sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Opener mints a fresh connection. The loader calls it once per partition.
type Opener func(ctx context.Context) (Repository, error)

// OpenerFor returns an Opener bound to cfg.
func OpenerFor(cfg Config) Opener {
	return func(ctx context.Context) (Repository, error) { return New(ctx, cfg) }
}
