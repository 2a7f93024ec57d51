// Package mssql implements the SQL Server destination using go-mssqldb. Rows
// are written with the TDS bulk copy API inside a transaction, and superseded
// rows are pruned with a ROW_NUMBER() ranked delete.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN         string
	Table       string
	Columns     []string
	KeyColumns  []string
	OrderColumn string
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens and pings a connection and returns a Close function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	// One partition, one connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	r, closeFn := newWithDB(db, cfg)
	return r, closeFn, nil
}

func newWithDB(db *sql.DB, cfg Config) (*Repository, func()) {
	return &Repository{db: db, cfg: cfg}, func() { _ = db.Close() }
}

// CopyFrom bulk copies rows into the target table in one transaction.
// DATA_INSERCAO is not part of columns and takes the table default, so the
// bulk options must not carry KEEP_NULLS.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("mssql: no columns configured")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(r.cfg.Table, mssql.BulkOptions{}, columns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if len(rows[i]) != len(columns) {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("bulk row %d: %d values for %d columns", i, len(rows[i]), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// DeleteSuperseded ranks rows per logical key by the order column, newest
// first, and deletes everything ranked below the first.
func (r *Repository) DeleteSuperseded(ctx context.Context) (int64, error) {
	q, err := dedupSQL(r.cfg)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("mssql dedup: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Exec executes a SQL statement.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

func dedupSQL(cfg Config) (string, error) {
	if len(cfg.KeyColumns) == 0 || cfg.OrderColumn == "" {
		return "", fmt.Errorf("mssql dedup: key columns and order column are required")
	}
	return fmt.Sprintf(
		`WITH ranked AS (
	SELECT ROW_NUMBER() OVER (PARTITION BY %s ORDER BY %s DESC) AS RowNum
	FROM %s
)
DELETE FROM ranked WHERE RowNum > 1`,
		strings.Join(mapIdent(cfg.KeyColumns), ", "),
		msIdent(cfg.OrderColumn),
		msFQN(cfg.Table),
	), nil
}

// msIdent safely quotes a SQL Server identifier using [brackets], escaping ].
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// msFQN quotes a possibly schema-qualified name like "dbo.CD_AcompNacional".
func msFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = msIdent(p)
	}
	return strings.Join(parts, ".")
}

func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = msIdent(c)
	}
	return out
}
