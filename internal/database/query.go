package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/colsuggest/internal/errs"
)

// Dialect controls which SQL placeholder and quoting style the query builder emits.
type Dialect int

const (
	// DialectPostgres uses $1, $2, … placeholders and "double-quoted" identifiers.
	DialectPostgres Dialect = iota

	// DialectMySQL uses ? placeholders and `backtick` identifiers.
	DialectMySQL
)

func (d Dialect) String() string {
	if d == DialectMySQL {
		return "mysql"
	}
	return "postgres"
}

// validOps is the allowlist of comparison operators for WHERE clauses.
// Any operator not in this list is rejected to prevent SQL injection
// through the operator position (which cannot be parameterized).
var validOps = map[string]bool{
	"=":    true,
	"!=":   true,
	"<>":   true,
	"<":    true,
	">":    true,
	"<=":   true,
	">=":   true,
	"LIKE": true,
}

// SelectBuilder constructs a parameterized SELECT query using a fluent API.
// Values are never interpolated into the SQL string; they are always passed as args.
//
// Usage (Postgres):
//
//	sql, args, err := Select("cluster_labels", DialectPostgres).
//	    Columns("axis_0").
//	    Distinct().
//	    WhereContains("value", "cd4").
//	    OrderBy("axis_0", Asc).
//	    Limit(301).
//	    Build()
type SelectBuilder struct {
	table    string
	dialect  Dialect
	columns  []string
	distinct bool
	where    []whereClause
	orderBy  []orderClause
	limit    *int
	offset   *int
}

// SortDirection controls the ORDER BY direction.
type SortDirection bool

const (
	Asc  SortDirection = false
	Desc SortDirection = true
)

type whereKind int

const (
	whereCompare whereKind = iota
	whereContains
	whereNotNull
)

type whereClause struct {
	kind   whereKind
	column string
	op     string
	value  any
}

type orderClause struct {
	column string
	dir    SortDirection
}

// Select starts a new SelectBuilder for the given table and dialect.
func Select(table string, d Dialect) *SelectBuilder {
	return &SelectBuilder{table: table, dialect: d}
}

// Columns restricts the SELECT to the specified columns.
// If not called, SELECT * is used.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = cols
	return b
}

// Distinct turns the query into SELECT DISTINCT.
func (b *SelectBuilder) Distinct() *SelectBuilder {
	b.distinct = true
	return b
}

// Where adds a WHERE condition. op must be one of the allowed comparison
// operators (=, !=, <>, <, >, <=, >=, LIKE).
// Multiple conditions are combined with AND.
func (b *SelectBuilder) Where(column, op string, value any) *SelectBuilder {
	b.where = append(b.where, whereClause{kind: whereCompare, column: column, op: op, value: value})
	return b
}

// WhereContains adds a case-insensitive substring match on the text form
// of column. LIKE wildcards in substring match literally.
func (b *SelectBuilder) WhereContains(column, substring string) *SelectBuilder {
	b.where = append(b.where, whereClause{
		kind:   whereContains,
		column: column,
		value:  "%" + EscapeLike(substring) + "%",
	})
	return b
}

// WhereNotNull excludes rows where column is NULL.
func (b *SelectBuilder) WhereNotNull(column string) *SelectBuilder {
	b.where = append(b.where, whereClause{kind: whereNotNull, column: column})
	return b
}

// OrderBy appends an ORDER BY clause for the given column and direction.
func (b *SelectBuilder) OrderBy(column string, dir SortDirection) *SelectBuilder {
	b.orderBy = append(b.orderBy, orderClause{column, dir})
	return b
}

// Limit sets the maximum number of rows to return.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = &n
	return b
}

// Offset sets the number of rows to skip.
func (b *SelectBuilder) Offset(n int) *SelectBuilder {
	b.offset = &n
	return b
}

// Build produces the final SQL string and argument slice.
// Returns an error if any WHERE operator is not in the allowlist.
func (b *SelectBuilder) Build() (string, []any, error) {
	if b.table == "" {
		return "", nil, errs.New(errs.ErrKindInvalidInput, "select without table")
	}

	// --- column list ---
	cols := "*"
	if len(b.columns) > 0 {
		quoted := make([]string, len(b.columns))
		for i, c := range b.columns {
			quoted[i] = b.quote(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if b.distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(b.quote(b.table))

	var args []any
	argIdx := 1

	// --- WHERE ---
	if len(b.where) > 0 {
		parts := make([]string, 0, len(b.where))
		for _, w := range b.where {
			switch w.kind {
			case whereNotNull:
				parts = append(parts, b.quote(w.column)+" IS NOT NULL")
				continue
			case whereContains:
				parts = append(parts, b.containsExpr(w.column, b.placeholder(argIdx)))
			default:
				op := strings.ToUpper(w.op)
				if !validOps[op] {
					return "", nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported WHERE operator: %q", w.op)
				}
				parts = append(parts, fmt.Sprintf("%s %s %s", b.quote(w.column), op, b.placeholder(argIdx)))
			}
			args = append(args, w.value)
			argIdx++
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}

	// --- ORDER BY ---
	if len(b.orderBy) > 0 {
		parts := make([]string, len(b.orderBy))
		for i, o := range b.orderBy {
			dir := "ASC"
			if o.dir == Desc {
				dir = "DESC"
			}
			parts[i] = fmt.Sprintf("%s %s", b.quote(o.column), dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	// --- LIMIT ---
	if b.limit != nil {
		if *b.limit < 0 {
			return "", nil, errs.Newf(errs.ErrKindInvalidInput, "negative limit %d", *b.limit)
		}
		sb.WriteString(" LIMIT " + b.placeholder(argIdx))
		args = append(args, *b.limit)
		argIdx++
	}

	// --- OFFSET ---
	if b.offset != nil {
		sb.WriteString(" OFFSET " + b.placeholder(argIdx))
		args = append(args, *b.offset)
	}

	return sb.String(), args, nil
}

// containsExpr renders a case-insensitive LIKE on the text form of column.
// Both engines use backslash as the default LIKE escape character.
func (b *SelectBuilder) containsExpr(column, ph string) string {
	if b.dialect == DialectMySQL {
		return fmt.Sprintf("LOWER(CAST(%s AS CHAR)) LIKE LOWER(%s)", b.quote(column), ph)
	}
	return fmt.Sprintf("CAST(%s AS TEXT) ILIKE %s", b.quote(column), ph)
}

// placeholder returns the correct parameter placeholder for the dialect.
// Postgres: $1, $2, …   MySQL: ? (index is ignored)
func (b *SelectBuilder) placeholder(idx int) string {
	if b.dialect == DialectMySQL {
		return "?"
	}
	return fmt.Sprintf("$%d", idx)
}

func (b *SelectBuilder) quote(name string) string {
	return QuoteIdent(b.dialect, name)
}

// QuoteIdent quotes a SQL identifier for the dialect: double quotes for
// Postgres, backticks for MySQL (which reads "x" as a string literal
// outside ANSI_QUOTES mode).
func QuoteIdent(d Dialect, name string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// EscapeLike escapes the LIKE wildcards % and _ and the escape character itself.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
