// Package memframe is an in-memory implementation of pframe.Driver.
//
// Frames are plain Go values registered under a handle. The driver is used
// by tests, by the CLI with fixture files, and by the service when frames
// are loaded from object storage.
//
// Usage:
//
//	d := memframe.New()
//	h := d.Add(frame)
//	res, err := resolver.Resolve(ctx, pframe.Context{Handle: h, Driver: d}, req)
package memframe

import (
	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/pframe"
)

// Row is one record of a column: one key per axis plus the value.
type Row struct {
	Keys  []any
	Value any
}

// Column is a spec plus its records.
type Column struct {
	ID   pframe.ObjectID
	Spec pframe.ColumnSpec
	Rows []Row
}

// Frame is an ordered set of columns. Column order is the FindColumns hit order.
type Frame struct {
	columns []*Column
	byID    map[pframe.ObjectID]*Column
}

// NewFrame builds a frame and validates that every row has one key per axis.
func NewFrame(columns ...Column) (*Frame, error) {
	f := &Frame{byID: make(map[pframe.ObjectID]*Column, len(columns))}
	for i := range columns {
		if err := f.Add(columns[i]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Add appends a column. Ids must be unique within the frame.
func (f *Frame) Add(c Column) error {
	if c.ID == "" {
		return errs.New(errs.ErrKindInvalidInput, "column id is empty")
	}
	if _, dup := f.byID[c.ID]; dup {
		return errs.Newf(errs.ErrKindInvalidInput, "duplicate column id %q", c.ID)
	}
	for i, r := range c.Rows {
		if len(r.Keys) != len(c.Spec.AxesSpec) {
			return errs.Newf(errs.ErrKindInvalidInput,
				"column %q row %d: %d keys for %d axes", c.ID, i, len(r.Keys), len(c.Spec.AxesSpec))
		}
	}
	col := c
	f.columns = append(f.columns, &col)
	f.byID[c.ID] = &col
	return nil
}

// Column returns the column with the given id.
func (f *Frame) Column(id pframe.ObjectID) (*Column, bool) {
	c, ok := f.byID[id]
	return c, ok
}

// Len returns the number of columns.
func (f *Frame) Len() int { return len(f.columns) }

// rowFilter evaluates the request filters against one row of c. Filters
// may target c itself or one of its axes.
type rowFilter struct {
	filters []pframe.Filter
	index   []int // -1 for the column value, otherwise the axis position
}

func compileFilters(c *Column, filters []pframe.Filter) (*rowFilter, error) {
	rf := &rowFilter{filters: filters, index: make([]int, len(filters))}
	for i, flt := range filters {
		if id, ok := flt.Target.Column(); ok {
			if id != c.ID {
				return nil, errs.Newf(errs.ErrKindInvalidInput,
					"filter on column %q cannot be applied to column %q", id, c.ID)
			}
			rf.index[i] = -1
			continue
		}
		axis, _ := flt.Target.Axis()
		idx := c.Spec.AxisIndex(axis)
		if idx < 0 {
			return nil, errs.Newf(errs.ErrKindInvalidInput,
				"column %q has no axis %s", c.ID, axis.Canonical())
		}
		rf.index[i] = idx
	}
	return rf, nil
}

func (rf *rowFilter) match(r Row) (bool, error) {
	for i, flt := range rf.filters {
		v := r.Value
		if rf.index[i] >= 0 {
			v = r.Keys[rf.index[i]]
		}
		ok, err := flt.Match(v)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
