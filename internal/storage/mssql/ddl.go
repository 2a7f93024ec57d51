package mssql

import (
	"context"
	"fmt"
	"strings"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/storage"
)

// buildCreateTableSQL renders an IF OBJECT_ID(...) IS NULL guarded CREATE
// TABLE, since T-SQL has no CREATE TABLE IF NOT EXISTS.
func buildCreateTableSQL(def storage.TableDef) (string, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return "", fmt.Errorf("mssql ddl: table name must not be empty")
	}
	if len(def.Columns) == 0 {
		return "", fmt.Errorf("mssql ddl: at least one column is required")
	}
	lines := make([]string, 0, len(def.Columns)+1)
	for _, c := range def.Columns {
		lines = append(lines, fmt.Sprintf("    %s %s NULL", msIdent(c.Name), sqlType(c)))
	}
	if def.InsertedAt != "" {
		constraint := "DF_" + strings.ReplaceAll(name, ".", "_") + "_" + def.InsertedAt
		lines = append(lines, fmt.Sprintf("    %s DATETIME2 NOT NULL CONSTRAINT %s DEFAULT SYSDATETIME()",
			msIdent(def.InsertedAt), msIdent(constraint)))
	}
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n%s\n  );\nEND",
		strings.ReplaceAll(msFQN(name), "'", "''"), msFQN(name), strings.Join(lines, ",\n")), nil
}

func sqlType(c storage.ColumnDef) string {
	switch c.Type {
	case storage.TypeFloat:
		return "FLOAT"
	case storage.TypeTimestamp:
		return "DATETIME2"
	default:
		if c.Size > 0 && c.Size <= 4000 {
			return fmt.Sprintf("NVARCHAR(%d)", c.Size)
		}
		return "NVARCHAR(MAX)"
	}
}

func ensureTable(ctx context.Context, repo storage.Repository, def storage.TableDef) error {
	q, err := buildCreateTableSQL(def)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, q)
}
