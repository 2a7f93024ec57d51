package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/storage"
)

func buildCreateTableSQL(def storage.TableDef) (string, error) {
	if strings.TrimSpace(def.Name) == "" {
		return "", fmt.Errorf("postgres ddl: table name must not be empty")
	}
	if len(def.Columns) == 0 {
		return "", fmt.Errorf("postgres ddl: at least one column is required")
	}
	lines := make([]string, 0, len(def.Columns)+1)
	for _, c := range def.Columns {
		lines = append(lines, fmt.Sprintf("  %s %s", pgIdent(c.Name), sqlType(c)))
	}
	if def.InsertedAt != "" {
		lines = append(lines, fmt.Sprintf("  %s timestamp NOT NULL DEFAULT clock_timestamp()", pgIdent(def.InsertedAt)))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", pgFQN(def.Name), strings.Join(lines, ",\n")), nil
}

func sqlType(c storage.ColumnDef) string {
	switch c.Type {
	case storage.TypeFloat:
		return "double precision"
	case storage.TypeTimestamp:
		return "timestamp"
	default:
		if c.Size > 0 {
			return fmt.Sprintf("varchar(%d)", c.Size)
		}
		return "text"
	}
}

func ensureTable(ctx context.Context, repo storage.Repository, def storage.TableDef) error {
	q, err := buildCreateTableSQL(def)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, q)
}
