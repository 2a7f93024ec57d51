package mssql

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/storage"
)

func testConfig() Config {
	return Config{
		Table:       "dbo.CD_AcompNacional",
		Columns:     []string{"SKU", "NF_1", "DATA_ENTREGA_1"},
		KeyColumns:  []string{"PEDIDO", "SKU", "FORN", "NF_1"},
		OrderColumn: "DATA_INSERCAO",
	}
}

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	r, closeFn := newWithDB(db, testConfig())
	t.Cleanup(closeFn)
	return r, mock
}

func TestCopyFromEmptyRows(t *testing.T) {
	t.Parallel()
	r := &Repository{cfg: testConfig()}
	n, err := r.CopyFrom(context.Background(), []string{"SKU"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCopyFromBulkCopiesInOneTransaction(t *testing.T) {
	t.Parallel()
	r, mock := newMock(t)
	when := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(mssql.CopyIn(testConfig().Table, mssql.BulkOptions{}, testConfig().Columns...)))
	prep.ExpectExec().WithArgs("0000000000123", "000456789", when).WillReturnResult(sqlmock.NewResult(0, 0))
	prep.ExpectExec().WithArgs("0000000000124", nil, nil).WillReturnResult(sqlmock.NewResult(0, 0))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := r.CopyFrom(context.Background(), testConfig().Columns, [][]any{
		{"0000000000123", "000456789", when},
		{"0000000000124", nil, nil},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFromLeavesInsertedAtToDefault(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherFunc(func(_, actual string) error {
		if strings.Contains(actual, `"KeepNulls":true`) {
			return errors.New("bulk copy must not use KEEP_NULLS")
		}
		if strings.Contains(actual, "DATA_INSERCAO") {
			return errors.New("DATA_INSERCAO must come from the column default")
		}
		return nil
	})))
	require.NoError(t, err)
	r, closeFn := newWithDB(db, testConfig())
	t.Cleanup(closeFn)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERTBULK")
	prep.ExpectExec().WithArgs("0000000000123", nil, nil).WillReturnResult(sqlmock.NewResult(0, 0))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := r.CopyFrom(context.Background(), testConfig().Columns, [][]any{{"0000000000123", nil, nil}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFromRollsBackOnRowError(t *testing.T) {
	t.Parallel()
	r, mock := newMock(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERTBULK")
	prep.ExpectExec().WillReturnError(errors.New("string truncation"))
	mock.ExpectRollback()

	_, err := r.CopyFrom(context.Background(), testConfig().Columns, [][]any{{"a", "b", nil}})
	require.ErrorContains(t, err, "bulk row 0: string truncation")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFromRejectsRaggedRow(t *testing.T) {
	t.Parallel()
	r, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectPrepare("INSERTBULK")
	mock.ExpectRollback()

	_, err := r.CopyFrom(context.Background(), testConfig().Columns, [][]any{{"a"}})
	require.ErrorContains(t, err, "1 values for 3 columns")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSuperseded(t *testing.T) {
	t.Parallel()
	r, mock := newMock(t)

	want := "WITH ranked AS (\n" +
		"\tSELECT ROW_NUMBER() OVER (PARTITION BY [PEDIDO], [SKU], [FORN], [NF_1] ORDER BY [DATA_INSERCAO] DESC) AS RowNum\n" +
		"\tFROM [dbo].[CD_AcompNacional]\n" +
		")\n" +
		"DELETE FROM ranked WHERE RowNum > 1"
	mock.ExpectExec(regexp.QuoteMeta(want)).WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := r.DeleteSuperseded(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSupersededRequiresKey(t *testing.T) {
	t.Parallel()
	r := &Repository{cfg: Config{Table: "t"}}
	_, err := r.DeleteSuperseded(context.Background())
	require.ErrorContains(t, err, "key columns")
}

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()
	got, err := buildCreateTableSQL(storage.TableDef{
		Name: "dbo.CD_AcompNacional",
		Columns: []storage.ColumnDef{
			{Name: "SKU", Type: storage.TypeText, Size: 13},
			{Name: "QTD_EMITIDA", Type: storage.TypeFloat},
			{Name: "DATA_ENTREGA_1", Type: storage.TypeTimestamp},
			{Name: "RETORNO", Type: storage.TypeText},
		},
		InsertedAt: "DATA_INSERCAO",
	})
	require.NoError(t, err)
	assert.Contains(t, got, "IF OBJECT_ID(N'[dbo].[CD_AcompNacional]', N'U') IS NULL")
	assert.Contains(t, got, "[SKU] NVARCHAR(13) NULL")
	assert.Contains(t, got, "[QTD_EMITIDA] FLOAT NULL")
	assert.Contains(t, got, "[DATA_ENTREGA_1] DATETIME2 NULL")
	assert.Contains(t, got, "[RETORNO] NVARCHAR(MAX) NULL")
	assert.Contains(t, got, "[DATA_INSERCAO] DATETIME2 NOT NULL CONSTRAINT [DF_dbo_CD_AcompNacional_DATA_INSERCAO] DEFAULT SYSDATETIME()")

	_, err = buildCreateTableSQL(storage.TableDef{})
	require.Error(t, err)
}

func TestIdentQuoting(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "[a]]b]", msIdent("a]b"))
	assert.Equal(t, "[dbo].[t]", msFQN("dbo.t"))
}

func TestNewRepositoryRejectsBadDSN(t *testing.T) {
	t.Parallel()
	_, _, err := NewRepository(context.Background(), Config{DSN: "sqlserver://%zz"})
	require.ErrorContains(t, err, "mssql dsn")
}
