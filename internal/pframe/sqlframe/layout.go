package sqlframe

import (
	"context"

	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/pframe"
)

// DataTable is the table backing one catalog column and the columns the
// table must carry for the driver to read it.
type DataTable struct {
	ColumnID pframe.ObjectID
	Table    string
	Columns  []string
}

// Layout lists the data tables of frame h in column id order. An unknown
// frame is ErrKindNotFound.
func (d *Driver) Layout(ctx context.Context, h pframe.Handle) ([]DataTable, error) {
	es, err := d.entries(ctx, h, "")
	if err != nil {
		return nil, err
	}
	if len(es) == 0 {
		return nil, errs.Newf(errs.ErrKindNotFound, "unknown frame handle %q", h)
	}

	out := make([]DataTable, len(es))
	for i, e := range es {
		cols := make([]string, 0, len(e.spec.AxesSpec)+1)
		for j := range e.spec.AxesSpec {
			cols = append(cols, axisColumn(j))
		}
		out[i] = DataTable{ColumnID: e.id, Table: e.table, Columns: append(cols, valueColumn)}
	}
	return out, nil
}
