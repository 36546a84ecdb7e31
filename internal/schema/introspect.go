package schema

import (
	"context"

	"github.com/koustreak/colsuggest/internal/database"
	"github.com/koustreak/colsuggest/internal/errs"
)

// PgIntrospector implements Reader for PostgreSQL using information_schema
type PgIntrospector struct {
	db database.DB
}

// NewPgIntrospector creates a new Postgres schema introspector
func NewPgIntrospector(db database.DB) *PgIntrospector {
	return &PgIntrospector{db: db}
}

// ListTables returns all user-defined table names on the search path
func (p *PgIntrospector) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ANY (current_schemas(false))
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	return listTables(ctx, p.db, q)
}

// InspectTable returns column details for a single table
func (p *PgIntrospector) InspectTable(ctx context.Context, table string) (*TableInfo, error) {
	const q = `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES' AS is_nullable
		FROM information_schema.columns c
		WHERE c.table_schema = ANY (current_schemas(false))
		  AND c.table_name = $1
		ORDER BY c.ordinal_position`

	return inspectTable(ctx, p.db, q, table)
}

func listTables(ctx context.Context, db database.DB, q string) ([]string, error) {
	rows, err := db.Query(ctx, q)
	if err != nil {
		return nil, errs.WithOp("listTables", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errs.WithOp("listTables", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.WithOp("listTables", err)
	}
	return tables, nil
}

func inspectTable(ctx context.Context, db database.DB, q, table string) (*TableInfo, error) {
	rows, err := db.Query(ctx, q, table)
	if err != nil {
		return nil, errs.WithOp("inspectTable", err)
	}
	defer rows.Close()

	info := &TableInfo{Name: table}
	for rows.Next() {
		var col ColumnInfo
		if err := rows.Scan(&col.Name, &col.DataType, &col.IsNullable); err != nil {
			return nil, errs.WithOp("inspectTable", err)
		}
		info.Columns = append(info.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.WithOp("inspectTable", err)
	}
	if len(info.Columns) == 0 {
		return nil, errs.Newf(errs.ErrKindNotFound, "table %s not found or has no columns", table)
	}
	return info, nil
}
