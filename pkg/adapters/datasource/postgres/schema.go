package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/datachat-io/engine/pkg/database"
	"github.com/datachat-io/engine/pkg/models"
)

// SchemaProvider reads the live schema from information_schema on every call,
// so validation always sees the current set of user tables. System schemas
// are excluded.
type SchemaProvider struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSchemaProvider creates a schema provider over an existing pool.
// If logger is nil, a no-op logger is used.
func NewSchemaProvider(db *database.DB, logger *zap.Logger) *SchemaProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemaProvider{db: db, logger: logger}
}

// Tables returns a fresh snapshot of all user tables and their columns.
func (p *SchemaProvider) Tables(ctx context.Context) ([]models.TableDescriptor, error) {
	const query = `
		SELECT
			c.table_name,
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES' AS nullable
		FROM information_schema.columns c
		JOIN information_schema.tables t
		  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		WHERE t.table_type = 'BASE TABLE'
		  AND t.table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY c.table_name, c.ordinal_position
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query schema: %w", err)
	}
	defer rows.Close()

	var tables []models.TableDescriptor
	byName := make(map[string]int)
	for rows.Next() {
		var tableName, columnName, dataType string
		var nullable bool
		if err := rows.Scan(&tableName, &columnName, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan schema row: %w", err)
		}

		idx, ok := byName[tableName]
		if !ok {
			idx = len(tables)
			byName[tableName] = idx
			tables = append(tables, models.TableDescriptor{Name: tableName})
		}
		tables[idx].Columns = append(tables[idx].Columns, models.ColumnDescriptor{
			Name:     columnName,
			Type:     genericTypeFromName(dataType),
			Nullable: nullable,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schema rows: %w", err)
	}

	p.logger.Debug("schema snapshot loaded", zap.Int("tables", len(tables)))
	return tables, nil
}

var _ models.SchemaProvider = (*SchemaProvider)(nil)
