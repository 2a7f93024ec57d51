package mysql

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/storage"
)

func cfg() Config {
	return Config{
		Table:       "CD_AcompNacional",
		KeyColumns:  []string{"PEDIDO", "SKU", "FORN", "NF_1"},
		OrderColumn: "DATA_INSERCAO",
	}
}

func TestRowsPerStatement(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1000, rowsPerStatement(53))
	assert.Equal(t, 655, rowsPerStatement(100))
	assert.Equal(t, 1, rowsPerStatement(70000))
}

func TestInsertSQL(t *testing.T) {
	t.Parallel()
	q, args, err := insertSQL("db.T", []string{"A", "B"}, [][]any{{1, nil}, {"x", 2.5}})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `db`.`T` (`A`,`B`) VALUES (?,?),(?,?)", q)
	assert.Equal(t, []any{1, nil, "x", 2.5}, args)

	_, _, err = insertSQL("T", []string{"A", "B"}, [][]any{{1}})
	require.ErrorContains(t, err, "1 values for 2 columns")
}

func TestCopyFromSingleTransaction(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	r, closeFn := newWithDB(db, cfg())
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `CD_AcompNacional` (`SKU`,`NF_1`) VALUES (?,?),(?,?)")).
		WithArgs("a", "1", "b", nil).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := r.CopyFrom(context.Background(), []string{"SKU", "NF_1"}, [][]any{{"a", "1"}, {"b", nil}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFromRollsBack(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	r, closeFn := newWithDB(db, cfg())
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO").WillReturnError(errors.New("Data too long"))
	mock.ExpectRollback()

	_, err = r.CopyFrom(context.Background(), []string{"SKU"}, [][]any{{"a"}})
	require.ErrorContains(t, err, "insert rows 0-0: Data too long")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSuperseded(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	r, closeFn := newWithDB(db, cfg())
	defer closeFn()

	want := "DELETE t FROM `CD_AcompNacional` AS t JOIN `CD_AcompNacional` AS n ON " +
		"t.`PEDIDO` <=> n.`PEDIDO` AND t.`SKU` <=> n.`SKU` AND t.`FORN` <=> n.`FORN` AND t.`NF_1` <=> n.`NF_1` " +
		"AND n.`DATA_INSERCAO` > t.`DATA_INSERCAO`"
	mock.ExpectExec(regexp.QuoteMeta(want)).WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := r.DeleteSuperseded(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()
	q, err := buildCreateTableSQL(storage.TableDef{
		Name:       "CD_AcompNacional",
		Columns:    []storage.ColumnDef{{Name: "SKU", Size: 13}, {Name: "QTD_EMITIDA", Type: storage.TypeFloat}},
		InsertedAt: "DATA_INSERCAO",
	})
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS `CD_AcompNacional` (\n"+
		"  `SKU` VARCHAR(13) NULL,\n"+
		"  `QTD_EMITIDA` DOUBLE NULL,\n"+
		"  `DATA_INSERCAO` DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)\n"+
		")", q)
}

func TestNewRepositoryRejectsBadDSN(t *testing.T) {
	t.Parallel()
	_, _, err := NewRepository(context.Background(), Config{DSN: "not a dsn"})
	require.ErrorContains(t, err, "mysql dsn")
}
