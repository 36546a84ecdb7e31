package schema

import (
	"context"

	"github.com/koustreak/colsuggest/internal/database"
)

// MySQLIntrospector implements Reader for MySQL using information_schema.
// The schema is the database selected by the DSN.
type MySQLIntrospector struct {
	db database.DB
}

// NewMySQLIntrospector creates a new MySQL schema introspector
func NewMySQLIntrospector(db database.DB) *MySQLIntrospector {
	return &MySQLIntrospector{db: db}
}

// ListTables returns all user-defined table names in the current database
func (m *MySQLIntrospector) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	return listTables(ctx, m.db, q)
}

// InspectTable returns column details for a single table
func (m *MySQLIntrospector) InspectTable(ctx context.Context, table string) (*TableInfo, error) {
	const q = `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES' AS is_nullable
		FROM information_schema.columns c
		WHERE c.table_schema = DATABASE()
		  AND c.table_name = ?
		ORDER BY c.ordinal_position`

	return inspectTable(ctx, m.db, q, table)
}
