package schema

import (
	"context"
	"slices"

	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/pframe/sqlframe"
)

// Check compares every data table against the columns it must carry. A
// missing table or column is a Problem, not an error; errors are reserved
// for failed queries. Each table is inspected once.
func Check(ctx context.Context, r Reader, tables []sqlframe.DataTable) ([]Problem, error) {
	existing, err := r.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	var problems []Problem
	inspected := make(map[string]*TableInfo)
	for _, dt := range tables {
		if !slices.Contains(existing, dt.Table) {
			problems = append(problems, Problem{
				Table:   dt.Table,
				Message: "table does not exist (column " + string(dt.ColumnID) + ")",
			})
			continue
		}

		info, ok := inspected[dt.Table]
		if !ok {
			info, err = r.InspectTable(ctx, dt.Table)
			if err != nil && !errs.IsNotFound(err) {
				return nil, err
			}
			inspected[dt.Table] = info
		}
		if info == nil {
			problems = append(problems, Problem{Table: dt.Table, Message: "table has no columns"})
			continue
		}

		for _, col := range dt.Columns {
			if _, ok := info.Column(col); !ok {
				problems = append(problems, Problem{
					Table:   dt.Table,
					Column:  col,
					Message: "missing column (column " + string(dt.ColumnID) + ")",
				})
			}
		}
	}
	return problems, nil
}
