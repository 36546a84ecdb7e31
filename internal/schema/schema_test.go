package schema

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/colsuggest/internal/database"
	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/pframe/sqlframe"
)

// fakeDB serves information_schema queries from an in-memory table map.
type fakeDB struct {
	dialect database.Dialect
	tables  map[string][]ColumnInfo
	fail    error
	queries []string
}

func (f *fakeDB) Ping(context.Context) error { return nil }
func (f *fakeDB) Close()                     {}
func (f *fakeDB) Dialect() database.Dialect  { return f.dialect }

func (f *fakeDB) TableExists(_ context.Context, t string) (bool, error) {
	_, ok := f.tables[t]
	return ok, nil
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) (database.Row, error) {
	return nil, errors.New("not used")
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (database.Rows, error) {
	f.queries = append(f.queries, sql)
	if f.fail != nil {
		return nil, f.fail
	}
	var rows [][]any
	if strings.Contains(sql, "information_schema.columns") {
		for _, c := range f.tables[args[0].(string)] {
			rows = append(rows, []any{c.Name, c.DataType, c.IsNullable})
		}
	} else {
		for _, name := range sortedKeys(f.tables) {
			rows = append(rows, []any{name})
		}
	}
	return &fakeRows{rows: rows}, nil
}

func sortedKeys(m map[string][]ColumnInfo) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *bool:
			*p = row[i].(bool)
		}
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return nil, nil }
func (r *fakeRows) Close()                     {}
func (r *fakeRows) Err() error                 { return nil }

func col(name, typ string) ColumnInfo { return ColumnInfo{Name: name, DataType: typ, IsNullable: true} }

func newFakeDB(d database.Dialect) *fakeDB {
	return &fakeDB{
		dialect: d,
		tables: map[string][]ColumnInfo{
			"cluster_data":       {col("axis_0", "text"), col("axis_1", "bigint"), col("value", "text")},
			"cluster_label_data": {col("axis_0", "bigint")},
		},
	}
}

func TestNewReader(t *testing.T) {
	assert.IsType(t, &PgIntrospector{}, NewReader(newFakeDB(database.DialectPostgres)))
	assert.IsType(t, &MySQLIntrospector{}, NewReader(newFakeDB(database.DialectMySQL)))
}

func TestInspectTable(t *testing.T) {
	tests := []struct {
		dialect database.Dialect
		marker  string
	}{
		{database.DialectPostgres, "$1"},
		{database.DialectMySQL, "DATABASE()"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect.String(), func(t *testing.T) {
			db := newFakeDB(tt.dialect)
			r := NewReader(db)

			info, err := r.InspectTable(context.Background(), "cluster_data")
			require.NoError(t, err)
			assert.Equal(t, "cluster_data", info.Name)
			assert.Len(t, info.Columns, 3)
			c, ok := info.Column("axis_1")
			require.True(t, ok)
			assert.Equal(t, "bigint", c.DataType)
			assert.Contains(t, db.queries[0], tt.marker)

			_, err = r.InspectTable(context.Background(), "missing")
			assert.True(t, errs.IsNotFound(err))
		})
	}
}

func TestListTables(t *testing.T) {
	tables, err := NewReader(newFakeDB(database.DialectPostgres)).ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cluster_data", "cluster_label_data"}, tables)
}

func TestCheck(t *testing.T) {
	layout := []sqlframe.DataTable{
		{ColumnID: "cluster", Table: "cluster_data", Columns: []string{"axis_0", "axis_1", "value"}},
		{ColumnID: "cluster-label", Table: "cluster_label_data", Columns: []string{"axis_0", "value"}},
		{ColumnID: "gene", Table: "gene_data", Columns: []string{"axis_0", "value"}},
	}

	problems, err := Check(context.Background(), NewReader(newFakeDB(database.DialectPostgres)), layout)
	require.NoError(t, err)
	require.Len(t, problems, 2)
	assert.Equal(t, Problem{Table: "cluster_label_data", Column: "value", Message: "missing column (column cluster-label)"}, problems[0])
	assert.Equal(t, "gene_data", problems[1].Table)
	assert.Equal(t, "gene_data: table does not exist (column gene)", problems[1].String())
}

func TestCheck_QueryError(t *testing.T) {
	db := newFakeDB(database.DialectPostgres)
	db.fail = errs.New(errs.ErrKindConnectionFailed, "down")

	_, err := Check(context.Background(), NewReader(db), nil)
	assert.True(t, errs.IsConnectionFailed(err))
	assert.Equal(t, "listTables", errs.OpOf(err))
}
