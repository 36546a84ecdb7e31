// Package sqlframe serves frames stored in a SQL database.
//
// A catalog table lists the columns of every frame:
//
//	frame_id   text   -- frame handle
//	column_id  text   -- column id within the frame
//	spec       text   -- column spec as JSON
//	data_table text   -- table holding the column data
//
// Each data table has one column per axis, axis_0 … axis_n in axis order,
// followed by value. A NULL value is NA.
package sqlframe

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/koustreak/colsuggest/internal/database"
	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/pframe"
)

// DefaultCatalogTable is the catalog table name used when none is configured.
const DefaultCatalogTable = "pframe_columns"

// Driver implements pframe.Driver over a database.DB. It holds no mutable
// state and is safe for concurrent use.
type Driver struct {
	db           database.DB
	dialect      database.Dialect
	catalog      string
	queryTimeout time.Duration
}

var _ pframe.Driver = (*Driver)(nil)

// Option configures a Driver.
type Option func(*Driver)

// WithCatalogTable overrides DefaultCatalogTable.
func WithCatalogTable(name string) Option {
	return func(d *Driver) {
		if name != "" {
			d.catalog = name
		}
	}
}

// WithQueryTimeout bounds every query the driver issues.
func WithQueryTimeout(t time.Duration) Option {
	return func(d *Driver) { d.queryTimeout = t }
}

// Open builds a Driver and checks that the catalog table exists.
func Open(ctx context.Context, db database.DB, opts ...Option) (*Driver, error) {
	d := &Driver{db: db, dialect: db.Dialect(), catalog: DefaultCatalogTable}
	for _, opt := range opts {
		opt(d)
	}

	ok, err := db.TableExists(ctx, d.catalog)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "catalog table %q does not exist", d.catalog)
	}
	return d, nil
}

// entry is one catalog row.
type entry struct {
	id    pframe.ObjectID
	spec  pframe.ColumnSpec
	table string
}

func (d *Driver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.queryTimeout > 0 {
		return context.WithTimeout(ctx, d.queryTimeout)
	}
	return context.WithCancel(ctx)
}

func (d *Driver) query(ctx context.Context, b *database.SelectBuilder) ([][]any, error) {
	sql, args, err := b.Build()
	if err != nil {
		return nil, err
	}
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return database.ScanValues(rows)
}

// entries reads catalog rows of frame h, all of them or just id.
func (d *Driver) entries(ctx context.Context, h pframe.Handle, id pframe.ObjectID) ([]entry, error) {
	b := database.Select(d.catalog, d.dialect).
		Columns("column_id", "spec", "data_table").
		Where("frame_id", "=", string(h))
	if id != "" {
		b = b.Where("column_id", "=", string(id))
	}
	b = b.OrderBy("column_id", database.Asc)

	sql, args, err := b.Build()
	if err != nil {
		return nil, err
	}
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	records, err := database.ScanRows(rows)
	if err != nil {
		return nil, err
	}

	out := make([]entry, 0, len(records))
	for _, rec := range records {
		e := entry{
			id:    pframe.ObjectID(asString(rec["column_id"])),
			table: asString(rec["data_table"]),
		}
		if err := decodeSpec(rec["spec"], &e.spec); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("column %q has a malformed spec", e.id), err)
		}
		out = append(out, e)
	}
	return out, nil
}

// frameExists reports whether the catalog has any column of frame h.
func (d *Driver) frameExists(ctx context.Context, h pframe.Handle) (bool, error) {
	rows, err := d.query(ctx, database.Select(d.catalog, d.dialect).
		Columns("column_id").
		Where("frame_id", "=", string(h)).
		Limit(1))
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// entry looks up one column. An unknown frame is ErrKindNotFound; an
// unknown column of a known frame is (nil, nil).
func (d *Driver) entry(ctx context.Context, h pframe.Handle, id pframe.ObjectID) (*entry, error) {
	es, err := d.entries(ctx, h, id)
	if err != nil {
		return nil, err
	}
	if len(es) > 0 {
		return &es[0], nil
	}
	ok, err := d.frameExists(ctx, h)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "unknown frame handle %q", h)
	}
	return nil, nil
}

func (d *Driver) mustEntry(ctx context.Context, h pframe.Handle, id pframe.ObjectID) (*entry, error) {
	e, err := d.entry(ctx, h, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errs.Newf(errs.ErrKindNotFound, "unknown column %q", id)
	}
	return e, nil
}

func axisColumn(i int) string { return "axis_" + strconv.Itoa(i) }

const valueColumn = "value"

// applyFilters adds one contains condition per filter. Targets must be the
// source column itself or one of its axes.
func applyFilters(b *database.SelectBuilder, e *entry, filters []pframe.Filter) error {
	for _, f := range filters {
		if f.Predicate.Operator != pframe.OpStringIContains {
			return errs.Newf(errs.ErrKindInvalidInput, "unsupported predicate operator %q", f.Predicate.Operator)
		}
		switch f.Target.Kind() {
		case pframe.TargetColumn:
			id, _ := f.Target.Column()
			if id != e.id {
				return errs.Newf(errs.ErrKindInvalidInput, "filter on column %q cannot apply to %q", id, e.id)
			}
			b.WhereContains(valueColumn, f.Predicate.Substring)
		case pframe.TargetAxis:
			axis, _ := f.Target.Axis()
			idx := e.spec.AxisIndex(axis)
			if idx < 0 {
				return errs.Newf(errs.ErrKindInvalidInput, "column %q has no axis %s", e.id, axis.Canonical())
			}
			b.WhereContains(axisColumn(idx), f.Predicate.Substring)
		}
	}
	return nil
}

// --- pframe.Driver implementation ---

func (d *Driver) GetColumnSpec(ctx context.Context, h pframe.Handle, id pframe.ObjectID) (*pframe.ColumnSpec, error) {
	e, err := d.entry(ctx, h, id)
	if err != nil || e == nil {
		return nil, err
	}
	return &e.spec, nil
}

func (d *Driver) CalculateTableData(ctx context.Context, h pframe.Handle, req pframe.CalculateTableDataRequest) ([]pframe.TableColumn, error) {
	e, err := d.mustEntry(ctx, h, req.Source)
	if err != nil {
		return nil, err
	}

	n := len(e.spec.AxesSpec)
	cols := make([]string, 0, n+1)
	for i := range n {
		cols = append(cols, axisColumn(i))
	}
	cols = append(cols, valueColumn)

	b := database.Select(e.table, d.dialect).Columns(cols...)
	if err := applyFilters(b, e, req.Filters); err != nil {
		return nil, err
	}
	for i := range n {
		b.OrderBy(axisColumn(i), database.Asc)
	}

	rows, err := d.query(ctx, b)
	if err != nil {
		return nil, err
	}

	out := make([]pframe.TableColumn, 0, n+1)
	for i := range n {
		axis := e.spec.AxesSpec[i]
		data := make([]any, len(rows))
		for r, row := range rows {
			data[r] = normalize(row[i], axis.Type)
		}
		out = append(out, pframe.TableColumn{
			Spec: pframe.TableColumnSpec{Type: pframe.TableColumnAxis, Axis: &axis},
			Data: pframe.Vector{Type: axis.Type, Data: data},
		})
	}
	values := make([]any, len(rows))
	for r, row := range rows {
		values[r] = normalize(row[n], e.spec.ValueType)
	}
	spec := e.spec
	out = append(out, pframe.TableColumn{
		Spec: pframe.TableColumnSpec{Type: pframe.TableColumnColumn, ColumnID: e.id, Column: &spec},
		Data: pframe.Vector{Type: spec.ValueType, Data: values},
	})
	return out, nil
}

// GetUniqueValues asks for one row more than the limit to detect overflow.
func (d *Driver) GetUniqueValues(ctx context.Context, h pframe.Handle, req pframe.UniqueValuesRequest) (*pframe.UniqueValuesResponse, error) {
	if req.Limit <= 0 {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "limit must be positive, got %d", req.Limit)
	}
	e, err := d.mustEntry(ctx, h, req.ColumnID)
	if err != nil {
		return nil, err
	}

	col, vtype := valueColumn, e.spec.ValueType
	if req.Axis != nil {
		idx := e.spec.AxisIndex(*req.Axis)
		if idx < 0 {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "column %q has no axis %s", e.id, req.Axis.Canonical())
		}
		col, vtype = axisColumn(idx), e.spec.AxesSpec[idx].Type
	}

	b := database.Select(e.table, d.dialect).Columns(col).Distinct().WhereNotNull(col)
	if err := applyFilters(b, e, req.Filters); err != nil {
		return nil, err
	}
	// One extra row tells whether the result was truncated.
	fetch := req.Limit
	if fetch < math.MaxInt {
		fetch++
	}
	b.OrderBy(col, database.Asc).Limit(fetch)

	rows, err := d.query(ctx, b)
	if err != nil {
		return nil, err
	}

	overflow := len(rows) > req.Limit
	if overflow {
		rows = rows[:req.Limit]
	}
	values := make([]any, len(rows))
	for i, row := range rows {
		values[i] = normalize(row[0], vtype)
	}
	return &pframe.UniqueValuesResponse{
		Values:   pframe.Vector{Type: vtype, Data: values},
		Overflow: overflow,
	}, nil
}

// FindColumns reads the catalog of frame h and filters specs in memory.
func (d *Driver) FindColumns(ctx context.Context, h pframe.Handle, req pframe.FindColumnsRequest) (*pframe.FindColumnsResponse, error) {
	es, err := d.entries(ctx, h, "")
	if err != nil {
		return nil, err
	}
	if len(es) == 0 {
		return nil, errs.Newf(errs.ErrKindNotFound, "unknown frame handle %q", h)
	}

	resp := &pframe.FindColumnsResponse{}
	for _, e := range es {
		ok, err := req.ColumnFilter.Match(&e.spec)
		if err != nil {
			return nil, err
		}
		if !ok || !pframe.Compatible(&e.spec, req.CompatibleWith, req.StrictlyCompatible) {
			continue
		}
		resp.Hits = append(resp.Hits, pframe.ColumnIDAndSpec{ColumnID: e.id, Spec: e.spec})
	}
	return resp, nil
}
