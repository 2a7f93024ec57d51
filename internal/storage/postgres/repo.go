// Package postgres implements the Postgres destination using pgx v5. Each
// repository owns a single pgx.Conn; rows are written with COPY inside a
// transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN         string
	Table       string // e.g. "public.cd_acomp_nacional" or "CD_AcompNacional"
	Columns     []string
	KeyColumns  []string
	OrderColumn string
}

// pgConn is the subset of *pgx.Conn the repository uses.
type pgConn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close(ctx context.Context) error
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	conn pgConn
	cfg  Config
}

// NewRepository connects and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	conn, err := pgx.Connect(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgx connect: %w", err)
	}
	r, closeFn := newWithConn(conn, cfg)
	return r, closeFn, nil
}

func newWithConn(conn pgConn, cfg Config) (*Repository, func()) {
	return &Repository{conn: conn, cfg: cfg}, func() { _ = conn.Close(context.Background()) }
}

// CopyFrom streams rows into the target table with COPY in one transaction.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("postgres: no columns configured")
	}
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	n, err := tx.CopyFrom(ctx, splitFQN(r.cfg.Table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		_ = tx.Rollback(ctx)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return 0, fmt.Errorf("copy: %s (%s): %w", pgErr.Detail, pgErr.SQLState(), err)
		}
		return 0, fmt.Errorf("copy: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// DeleteSuperseded removes every row that is not the newest for its key.
func (r *Repository) DeleteSuperseded(ctx context.Context) (int64, error) {
	q, err := dedupSQL(r.cfg)
	if err != nil {
		return 0, err
	}
	tag, err := r.conn.Exec(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("postgres dedup: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Exec implements storage.Repository.Exec for Postgres.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.conn.Exec(ctx, sql)
	return err
}

func dedupSQL(cfg Config) (string, error) {
	if len(cfg.KeyColumns) == 0 || cfg.OrderColumn == "" {
		return "", fmt.Errorf("postgres dedup: key columns and order column are required")
	}
	table := pgFQN(cfg.Table)
	return fmt.Sprintf(
		`DELETE FROM %s AS t
USING (
	SELECT ctid, ROW_NUMBER() OVER (PARTITION BY %s ORDER BY %s DESC) AS rn
	FROM %s
) AS r
WHERE t.ctid = r.ctid AND r.rn > 1`,
		table,
		strings.Join(mapIdent(cfg.KeyColumns), ", "),
		pgIdent(cfg.OrderColumn),
		table,
	), nil
}

func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.events".
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}

func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}
