package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/storage"
)

// insertedAtDefault has millisecond resolution; ties fall back to rowid.
const insertedAtDefault = `(strftime('%Y-%m-%d %H:%M:%f', 'now'))`

func buildCreateTableSQL(def storage.TableDef) (string, error) {
	if strings.TrimSpace(def.Name) == "" {
		return "", fmt.Errorf("sqlite ddl: table name must not be empty")
	}
	if len(def.Columns) == 0 {
		return "", fmt.Errorf("sqlite ddl: at least one column is required")
	}
	lines := make([]string, 0, len(def.Columns)+1)
	for _, c := range def.Columns {
		lines = append(lines, fmt.Sprintf("  %s %s", sqIdent(c.Name), sqlType(c.Type)))
	}
	if def.InsertedAt != "" {
		lines = append(lines, fmt.Sprintf("  %s TEXT NOT NULL DEFAULT %s", sqIdent(def.InsertedAt), insertedAtDefault))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", sqIdent(def.Name), strings.Join(lines, ",\n")), nil
}

func sqlType(t storage.ColumnType) string {
	switch t {
	case storage.TypeFloat:
		return "REAL"
	case storage.TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// EnsureTable creates the table through repo if it does not exist.
func EnsureTable(ctx context.Context, repo storage.Repository, def storage.TableDef) error {
	q, err := buildCreateTableSQL(def)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, q)
}
