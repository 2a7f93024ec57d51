// Package sqlite implements a SQLite destination using database/sql and the
// pure-Go modernc.org/sqlite driver. It backs local dry runs and end-to-end
// tests; rows are written with a prepared INSERT inside one transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// busyTimeout lets concurrent partition writers queue on the file lock.
const busyTimeout = 30 * time.Second

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a file path or "file:" URI, e.g. "acomp.db".
	DSN         string
	Table       string
	Columns     []string
	KeyColumns  []string
	OrderColumn string
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// PRAGMAs are per connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds())); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: busy_timeout: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { db.Close() }, nil
}

// CopyFrom inserts the given rows using a single transaction and a prepared
// INSERT statement.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		sqIdent(r.cfg.Table),
		strings.Join(mapIdent(columns), ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: CopyFrom: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert: %w", err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// DeleteSuperseded keeps the newest row per key. Rows with the same order
// value are ranked by rowid so the later insert survives.
func (r *Repository) DeleteSuperseded(ctx context.Context) (int64, error) {
	q, err := dedupSQL(r.cfg)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("sqlite: dedup: %w", err)
	}
	return res.RowsAffected()
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// Count returns the number of rows in the configured table.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+sqIdent(r.cfg.Table)).Scan(&n)
	return n, err
}

func dedupSQL(cfg Config) (string, error) {
	if len(cfg.KeyColumns) == 0 || cfg.OrderColumn == "" {
		return "", fmt.Errorf("sqlite: dedup: key columns and order column are required")
	}
	table := sqIdent(cfg.Table)
	return fmt.Sprintf(`DELETE FROM %s WHERE rowid IN (
	SELECT rid FROM (
		SELECT rowid AS rid,
			ROW_NUMBER() OVER (PARTITION BY %s ORDER BY %s DESC, rowid DESC) AS rn
		FROM %s
	) WHERE rn > 1
)`, table, strings.Join(mapIdent(cfg.KeyColumns), ", "), sqIdent(cfg.OrderColumn), table), nil
}

func sqIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = sqIdent(c)
	}
	return out
}
