package memframe

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/pframe"
)

// Driver serves registered frames. It is safe for concurrent use; frames
// themselves are treated as immutable once registered.
type Driver struct {
	mu     sync.RWMutex
	frames map[pframe.Handle]*Frame
}

var _ pframe.Driver = (*Driver)(nil)

// New returns an empty driver.
func New() *Driver {
	return &Driver{frames: make(map[pframe.Handle]*Frame)}
}

// Add registers f under a fresh random handle.
func (d *Driver) Add(f *Frame) pframe.Handle {
	h := pframe.Handle(uuid.NewString())
	d.Register(h, f)
	return h
}

// Register stores f under h, replacing any previous frame.
func (d *Driver) Register(h pframe.Handle, f *Frame) {
	d.mu.Lock()
	d.frames[h] = f
	d.mu.Unlock()
}

// Remove forgets the frame under h.
func (d *Driver) Remove(h pframe.Handle) {
	d.mu.Lock()
	delete(d.frames, h)
	d.mu.Unlock()
}

// Handles lists the registered handles in no particular order.
func (d *Driver) Handles() []pframe.Handle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]pframe.Handle, 0, len(d.frames))
	for h := range d.frames {
		out = append(out, h)
	}
	return out
}

func (d *Driver) frame(h pframe.Handle) (*Frame, error) {
	d.mu.RLock()
	f, ok := d.frames[h]
	d.mu.RUnlock()
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "unknown frame handle %q", h)
	}
	return f, nil
}

func (d *Driver) column(ctx context.Context, h pframe.Handle, id pframe.ObjectID) (*Column, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindTimeout, "request cancelled", err)
	}
	f, err := d.frame(h)
	if err != nil {
		return nil, err
	}
	c, ok := f.Column(id)
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "unknown column %q", id)
	}
	return c, nil
}

// --- pframe.Driver implementation ---

// GetColumnSpec returns a copy of the column spec, or nil for unknown ids.
func (d *Driver) GetColumnSpec(ctx context.Context, h pframe.Handle, id pframe.ObjectID) (*pframe.ColumnSpec, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindTimeout, "request cancelled", err)
	}
	f, err := d.frame(h)
	if err != nil {
		return nil, err
	}
	c, ok := f.Column(id)
	if !ok {
		return nil, nil
	}
	spec := c.Spec
	return &spec, nil
}

// CalculateTableData returns one vector per axis followed by the value vector.
func (d *Driver) CalculateTableData(ctx context.Context, h pframe.Handle, req pframe.CalculateTableDataRequest) ([]pframe.TableColumn, error) {
	c, err := d.column(ctx, h, req.Source)
	if err != nil {
		return nil, err
	}
	rf, err := compileFilters(c, req.Filters)
	if err != nil {
		return nil, err
	}

	axes := make([][]any, len(c.Spec.AxesSpec))
	var values []any
	for _, r := range c.Rows {
		ok, err := rf.match(r)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for i, k := range r.Keys {
			axes[i] = append(axes[i], k)
		}
		values = append(values, r.Value)
	}

	out := make([]pframe.TableColumn, 0, len(axes)+1)
	for i := range c.Spec.AxesSpec {
		axis := c.Spec.AxesSpec[i]
		out = append(out, pframe.TableColumn{
			Spec: pframe.TableColumnSpec{Type: pframe.TableColumnAxis, Axis: &axis},
			Data: pframe.Vector{Type: axis.Type, Data: axes[i]},
		})
	}
	spec := c.Spec
	out = append(out, pframe.TableColumn{
		Spec: pframe.TableColumnSpec{Type: pframe.TableColumnColumn, ColumnID: c.ID, Column: &spec},
		Data: pframe.Vector{Type: spec.ValueType, Data: values},
	})
	return out, nil
}

// GetUniqueValues returns distinct values in first-seen order. NA values are
// skipped. Overflow is set when the distinct count exceeds req.Limit.
func (d *Driver) GetUniqueValues(ctx context.Context, h pframe.Handle, req pframe.UniqueValuesRequest) (*pframe.UniqueValuesResponse, error) {
	c, err := d.column(ctx, h, req.ColumnID)
	if err != nil {
		return nil, err
	}
	if req.Limit <= 0 {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "limit must be positive, got %d", req.Limit)
	}
	rf, err := compileFilters(c, req.Filters)
	if err != nil {
		return nil, err
	}

	pick := func(r Row) any { return r.Value }
	vtype := c.Spec.ValueType
	if req.Axis != nil {
		idx := c.Spec.AxisIndex(*req.Axis)
		if idx < 0 {
			return nil, errs.Newf(errs.ErrKindInvalidInput,
				"column %q has no axis %s", c.ID, req.Axis.Canonical())
		}
		pick = func(r Row) any { return r.Keys[idx] }
		vtype = c.Spec.AxesSpec[idx].Type
	}

	seen := make(map[string]struct{})
	var values []any
	overflow := false
	for _, r := range c.Rows {
		ok, err := rf.match(r)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		v := pick(r)
		if v == nil {
			continue
		}
		key := pframe.FormatValue(v)
		if _, dup := seen[key]; dup {
			continue
		}
		if len(values) == req.Limit {
			overflow = true
			break
		}
		seen[key] = struct{}{}
		values = append(values, v)
	}

	return &pframe.UniqueValuesResponse{
		Values:   pframe.Vector{Type: vtype, Data: values},
		Overflow: overflow,
	}, nil
}

// FindColumns scans the frame in column order.
func (d *Driver) FindColumns(ctx context.Context, h pframe.Handle, req pframe.FindColumnsRequest) (*pframe.FindColumnsResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindTimeout, "request cancelled", err)
	}
	f, err := d.frame(h)
	if err != nil {
		return nil, err
	}

	resp := &pframe.FindColumnsResponse{}
	for _, c := range f.columns {
		ok, err := req.ColumnFilter.Match(&c.Spec)
		if err != nil {
			return nil, err
		}
		if !ok || !pframe.Compatible(&c.Spec, req.CompatibleWith, req.StrictlyCompatible) {
			continue
		}
		resp.Hits = append(resp.Hits, pframe.ColumnIDAndSpec{ColumnID: c.ID, Spec: c.Spec})
	}
	return resp, nil
}
