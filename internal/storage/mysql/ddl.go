package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/storage"
)

func buildCreateTableSQL(def storage.TableDef) (string, error) {
	if strings.TrimSpace(def.Name) == "" {
		return "", fmt.Errorf("mysql ddl: table name must not be empty")
	}
	if len(def.Columns) == 0 {
		return "", fmt.Errorf("mysql ddl: at least one column is required")
	}
	lines := make([]string, 0, len(def.Columns)+1)
	for _, c := range def.Columns {
		lines = append(lines, fmt.Sprintf("  %s %s NULL", myIdent(c.Name), sqlType(c)))
	}
	if def.InsertedAt != "" {
		lines = append(lines, fmt.Sprintf("  %s DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)", myIdent(def.InsertedAt)))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", myFQN(def.Name), strings.Join(lines, ",\n")), nil
}

func sqlType(c storage.ColumnDef) string {
	switch c.Type {
	case storage.TypeFloat:
		return "DOUBLE"
	case storage.TypeTimestamp:
		return "DATETIME"
	default:
		if c.Size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", c.Size)
		}
		return "TEXT"
	}
}

func ensureTable(ctx context.Context, repo storage.Repository, def storage.TableDef) error {
	q, err := buildCreateTableSQL(def)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, q)
}
