package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/storage"
)

func openTemp(t *testing.T) storage.Repository {
	t.Helper()
	repo, err := storage.New(context.Background(), storage.Config{
		Kind:        "sqlite",
		DSN:         filepath.Join(t.TempDir(), "acomp.db"),
		Table:       "CD_AcompNacional",
		KeyColumns:  []string{"PEDIDO", "NF_1"},
		OrderColumn: "DATA_INSERCAO",
	})
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	err = storage.EnsureTable(context.Background(), "sqlite", repo, storage.TableDef{
		Name: "CD_AcompNacional",
		Columns: []storage.ColumnDef{
			{Name: "PEDIDO"},
			{Name: "NF_1"},
			{Name: "STATUS_PEDIDO"},
			{Name: "QTD_EMITIDA", Type: storage.TypeFloat},
		},
		InsertedAt: "DATA_INSERCAO",
	})
	require.NoError(t, err)
	return repo
}

func count(t *testing.T, repo storage.Repository) int64 {
	t.Helper()
	n, err := repo.(*wrappedRepo).Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestCopyFromAndDeleteSuperseded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := openTemp(t)
	cols := []string{"PEDIDO", "NF_1", "STATUS_PEDIDO", "QTD_EMITIDA"}

	n, err := repo.CopyFrom(ctx, cols, [][]any{
		{"P1", "000000001", "first", 1.0},
		{"P2", "000000001", "only", nil},
		{nil, "000000009", "null order a", nil},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = repo.CopyFrom(ctx, cols, [][]any{
		{"P1", "000000001", "second", 2.0},
		{nil, "000000009", "null order b", nil},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.EqualValues(t, 5, count(t, repo))

	deleted, err := repo.DeleteSuperseded(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
	assert.EqualValues(t, 3, count(t, repo))

	db := repo.(*wrappedRepo).db
	var status string
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT STATUS_PEDIDO FROM CD_AcompNacional WHERE PEDIDO = 'P1'`).Scan(&status))
	assert.Equal(t, "second", status)
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT STATUS_PEDIDO FROM CD_AcompNacional WHERE PEDIDO IS NULL`).Scan(&status))
	assert.Equal(t, "null order b", status)

	deleted, err = repo.DeleteSuperseded(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted, "idempotent")
}

func TestCopyFromRollsBackWholePartition(t *testing.T) {
	t.Parallel()
	repo := openTemp(t)
	_, err := repo.CopyFrom(context.Background(), []string{"PEDIDO", "NF_1"}, [][]any{
		{"P1", "1"},
		{"P2"},
	})
	require.ErrorContains(t, err, "row length 1 != columns length 2")
	assert.Zero(t, count(t, repo))
}

func TestCopyFromUnknownColumn(t *testing.T) {
	t.Parallel()
	repo := openTemp(t)
	_, err := repo.CopyFrom(context.Background(), []string{"NOPE"}, [][]any{{"x"}})
	require.ErrorContains(t, err, "sqlite: prepare insert")
}

func TestNewRepositoryRequiresDSN(t *testing.T) {
	t.Parallel()
	_, _, err := NewRepository(context.Background(), Config{})
	require.ErrorContains(t, err, "DSN must not be empty")
}

func TestDedupSQLRequiresKey(t *testing.T) {
	t.Parallel()
	_, err := dedupSQL(Config{Table: "t"})
	require.Error(t, err)
}
