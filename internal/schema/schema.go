// Package schema introspects the SQL tables a sqlframe catalog points at
// and checks that they carry the columns the driver reads.
package schema

import (
	"context"

	"github.com/koustreak/colsuggest/internal/database"
)

// Reader is the interface for introspecting tables on the search path
// (Postgres) or in the current database (MySQL).
type Reader interface {
	// ListTables returns all user tables.
	ListTables(ctx context.Context) ([]string, error)

	// InspectTable returns column info for a table. A missing table is
	// ErrKindNotFound.
	InspectTable(ctx context.Context, table string) (*TableInfo, error)
}

// NewReader picks the introspector matching the dialect of db.
func NewReader(db database.DB) Reader {
	if db.Dialect() == database.DialectMySQL {
		return NewMySQLIntrospector(db)
	}
	return NewPgIntrospector(db)
}
