// Package mysql implements the MySQL destination using go-sql-driver/mysql.
// Rows are written with chunked multi-row INSERTs inside one transaction.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// maxPlaceholders is MySQL's prepared statement parameter limit.
const maxPlaceholders = 65535

// maxRowsPerStatement keeps statements well under max_allowed_packet.
const maxRowsPerStatement = 1000

// Config holds MySQL repository configuration.
type Config struct {
	DSN         string
	Table       string
	Columns     []string
	KeyColumns  []string
	OrderColumn string
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens and pings a connection and returns a Close function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if _, err := mysql.ParseDSN(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
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

// CopyFrom inserts rows in chunks, all inside one transaction.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: no columns configured")
	}
	chunk := rowsPerStatement(len(columns))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	var total int64
	for lo := 0; lo < len(rows); lo += chunk {
		hi := lo + chunk
		if hi > len(rows) {
			hi = len(rows)
		}
		q, args, err := insertSQL(r.cfg.Table, columns, rows[lo:hi])
		if err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert rows %d-%d: %w", lo, hi-1, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}

// DeleteSuperseded deletes every row for which a strictly newer row with the
// same key exists. NULL key parts compare equal (<=>).
func (r *Repository) DeleteSuperseded(ctx context.Context) (int64, error) {
	q, err := dedupSQL(r.cfg)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("mysql dedup: %w", err)
	}
	return res.RowsAffected()
}

// Exec executes a SQL statement.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

func rowsPerStatement(cols int) int {
	n := maxPlaceholders / cols
	if n > maxRowsPerStatement {
		n = maxRowsPerStatement
	}
	if n < 1 {
		n = 1
	}
	return n
}

func insertSQL(table string, columns []string, rows [][]any) (string, []any, error) {
	group := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", myFQN(table), strings.Join(mapIdent(columns), ","))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("row %d: %d values for %d columns", i, len(row), len(columns))
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(group)
		args = append(args, row...)
	}
	return b.String(), args, nil
}

func dedupSQL(cfg Config) (string, error) {
	if len(cfg.KeyColumns) == 0 || cfg.OrderColumn == "" {
		return "", fmt.Errorf("mysql dedup: key columns and order column are required")
	}
	conds := make([]string, 0, len(cfg.KeyColumns)+1)
	for _, k := range cfg.KeyColumns {
		conds = append(conds, fmt.Sprintf("t.%s <=> n.%s", myIdent(k), myIdent(k)))
	}
	conds = append(conds, fmt.Sprintf("n.%s > t.%s", myIdent(cfg.OrderColumn), myIdent(cfg.OrderColumn)))
	table := myFQN(cfg.Table)
	return fmt.Sprintf("DELETE t FROM %s AS t JOIN %s AS n ON %s", table, table, strings.Join(conds, " AND ")), nil
}

func myIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

func myFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = myIdent(p)
	}
	return strings.Join(parts, ".")
}

func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = myIdent(c)
	}
	return out
}
