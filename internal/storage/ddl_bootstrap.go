package storage

import (
	"context"
	"fmt"
	"sync"
)

// ColumnType is the portable type of a destination column.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeFloat
	TypeTimestamp
)

// ColumnDef describes one destination column.
type ColumnDef struct {
	Name string
	Type ColumnType
	// Size bounds a text column; 0 means unbounded.
	Size int
}

// TableDef is the destination table. InsertedAt names the column that
// defaults to the current timestamp on insert.
type TableDef struct {
	Name       string
	Columns    []ColumnDef
	InsertedAt string
}

// DDLBootstrapper creates def through repo if it does not exist yet. It must
// never alter an existing table.
type DDLBootstrapper func(ctx context.Context, repo Repository, def TableDef) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers the bootstrapper for a storage kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable runs the bootstrapper registered for kind.
func EnsureTable(ctx context.Context, kind string, repo Repository, def TableDef) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("storage: no DDL bootstrapper registered for kind %q", kind)
	}
	return fn(ctx, repo, def)
}
