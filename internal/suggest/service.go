package suggest

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/koustreak/colsuggest/internal/diag"
	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/pframe"
)

// ColumnData is the realised data of one column. Axes is keyed by the
// canonical axis id; every vector is aligned with Data.
type ColumnData struct {
	Axes map[string][]any
	Data []any
}

// UniqueValues is a deduplicated value list as strings.
type UniqueValues struct {
	Values   []string
	Overflow bool
}

// AxisParams asks for unique keys of Axis across ParentColumnIDs.
type AxisParams struct {
	Axis            pframe.AxisID
	ParentColumnIDs []pframe.ObjectID
	Limit           int
	Filters         []pframe.Filter
}

// FindParams searches columns. SelectedSources supply the compatibility axis
// set; AnnotationsNotEmpty requires the listed annotations to be non-empty.
type FindParams struct {
	SelectedSources     []pframe.ObjectID
	StrictlyCompatible  bool
	Types               []pframe.ValueType
	Names               []string
	Annotations         map[string]string
	AnnotationsNotEmpty []string
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return UniqueValuesLimit
	}
	return limit
}

// ColumnSpec fetches a column spec. An unknown column yields (nil, nil).
func (r *Resolver) ColumnSpec(ctx context.Context, pc pframe.Context, id pframe.ObjectID) (*pframe.ColumnSpec, error) {
	spec, err := pc.Driver.GetColumnSpec(ctx, pc.Handle, id)
	if err != nil {
		r.emit(diag.LevelError, OpGetColumnSpec, id, "get column spec failed", err)
		return nil, errs.WithOp(OpGetColumnSpec, err)
	}
	return spec, nil
}

// ColumnExists reports whether the frame knows the column.
func (r *Resolver) ColumnExists(ctx context.Context, pc pframe.Context, id pframe.ObjectID) (bool, error) {
	spec, err := r.ColumnSpec(ctx, pc, id)
	if err != nil {
		return false, err
	}
	return spec != nil, nil
}

// SingleColumnData realises one column with its axes. An unknown column
// yields empty data.
func (r *Resolver) SingleColumnData(ctx context.Context, pc pframe.Context, id pframe.ObjectID, filters []pframe.Filter) (*ColumnData, error) {
	out := &ColumnData{Axes: map[string][]any{}}
	exists, err := r.ColumnExists(ctx, pc, id)
	if err != nil || !exists {
		return out, err
	}

	cols, err := pc.Driver.CalculateTableData(ctx, pc.Handle, pframe.CalculateTableDataRequest{
		Source:  id,
		Filters: filters,
	})
	if err != nil {
		r.emit(diag.LevelError, OpCalculateTableData, id, "calculate table data failed", err)
		return nil, errs.WithOp(OpCalculateTableData, err)
	}

	valueSet := false
	for _, c := range cols {
		switch c.Spec.Type {
		case pframe.TableColumnAxis:
			if c.Spec.Axis != nil {
				out.Axes[c.Spec.Axis.ID().Canonical()] = c.Data.Data
			}
		case pframe.TableColumnColumn:
			// first value vector wins
			if !valueSet {
				out.Data = c.Data.Data
				valueSet = true
			}
		}
	}
	return out, nil
}

// ColumnUniqueValues lists distinct values of a column. An unknown column
// yields an empty, non-overflowing result.
func (r *Resolver) ColumnUniqueValues(ctx context.Context, pc pframe.Context, id pframe.ObjectID, limit int, filters []pframe.Filter) (*UniqueValues, error) {
	exists, err := r.ColumnExists(ctx, pc, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &UniqueValues{Values: []string{}}, nil
	}
	return r.columnUniqueValues(ctx, pc, id, limit, filters)
}

func (r *Resolver) columnUniqueValues(ctx context.Context, pc pframe.Context, id pframe.ObjectID, limit int, filters []pframe.Filter) (*UniqueValues, error) {
	limit = limitOrDefault(limit)
	resp, err := pc.Driver.GetUniqueValues(ctx, pc.Handle, pframe.UniqueValuesRequest{
		ColumnID: id,
		Filters:  filters,
		Limit:    limit,
	})
	if err != nil {
		r.emit(diag.LevelError, OpGetUniqueValues, id, "get unique values for column failed", err)
		return nil, errs.WithOp(OpGetUniqueValues, err)
	}
	if resp.Overflow {
		r.sink.Emit(diag.Event{
			Level:    diag.LevelWarn,
			Op:       OpGetUniqueValues,
			Message:  "more unique values than the limit",
			ColumnID: string(id),
			Fields:   map[string]any{"limit": limit},
		})
	}
	return &UniqueValues{Values: dedup(resp.Values.Strings()), Overflow: resp.Overflow}, nil
}

// AxisUniqueValues lists distinct keys of an axis across the parent columns
// that exist, are tabular and declare the axis. Specs and values are fetched
// concurrently; results are merged in parent order.
func (r *Resolver) AxisUniqueValues(ctx context.Context, pc pframe.Context, p AxisParams) (*UniqueValues, error) {
	limit := limitOrDefault(p.Limit)

	specs := make([]*pframe.ColumnSpec, len(p.ParentColumnIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range p.ParentColumnIDs {
		g.Go(func() error {
			spec, err := r.ColumnSpec(gctx, pc, id)
			specs[i] = spec
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var parents []pframe.ObjectID
	for i, spec := range specs {
		if spec.IsPColumn() && spec.HasAxis(p.Axis) {
			parents = append(parents, p.ParentColumnIDs[i])
		}
	}
	if len(parents) == 0 {
		r.sink.Emit(diag.Event{
			Level:   diag.LevelWarn,
			Op:      OpAxisUniqueValues,
			Message: "axis unique values requested without parent columns",
			Fields:  map[string]any{"axis": p.Axis.Canonical()},
		})
		return &UniqueValues{Values: []string{}}, nil
	}

	responses := make([]*pframe.UniqueValuesResponse, len(parents))
	g, gctx = errgroup.WithContext(ctx)
	for i, id := range parents {
		g.Go(func() error {
			axis := p.Axis
			resp, err := pc.Driver.GetUniqueValues(gctx, pc.Handle, pframe.UniqueValuesRequest{
				ColumnID: id,
				Axis:     &axis,
				Filters:  p.Filters,
				Limit:    limit,
			})
			if err != nil {
				r.emit(diag.LevelError, OpGetUniqueValues, id, "get unique values for axis failed", err)
				return errs.WithOp(OpGetUniqueValues, err)
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &UniqueValues{}
	var all []string
	for _, resp := range responses {
		out.Overflow = out.Overflow || resp.Overflow
		all = append(all, resp.Values.Strings()...)
	}
	out.Values = dedup(all)
	return out, nil
}

// SourceAxes collects the axes of the given source columns, skipping
// unknown and non-tabular ones.
func (r *Resolver) SourceAxes(ctx context.Context, pc pframe.Context, sources []pframe.ObjectID) ([]pframe.AxisID, error) {
	var out []pframe.AxisID
	for _, id := range sources {
		spec, err := r.ColumnSpec(ctx, pc, id)
		if err != nil {
			return nil, err
		}
		if spec.IsPColumn() {
			out = append(out, axisIDs(spec.AxesSpec)...)
		}
	}
	return out, nil
}

// FindColumns searches the frame for columns matching p.
func (r *Resolver) FindColumns(ctx context.Context, pc pframe.Context, p FindParams) ([]pframe.ColumnIDAndSpec, error) {
	compatible, err := r.SourceAxes(ctx, pc, p.SelectedSources)
	if err != nil {
		return nil, err
	}

	var patterns map[string]string
	if len(p.AnnotationsNotEmpty) > 0 {
		patterns = make(map[string]string, len(p.AnnotationsNotEmpty))
		for _, k := range p.AnnotationsNotEmpty {
			patterns[k] = ".+"
		}
	}

	resp, err := pc.Driver.FindColumns(ctx, pc.Handle, pframe.FindColumnsRequest{
		ColumnFilter: pframe.ColumnFilter{
			Type:              p.Types,
			Name:              p.Names,
			AnnotationValue:   p.Annotations,
			AnnotationPattern: patterns,
		},
		CompatibleWith:     compatible,
		StrictlyCompatible: p.StrictlyCompatible,
	})
	if err != nil {
		r.emit(diag.LevelError, OpFindColumns, "", "find columns failed", err)
		return nil, errs.WithOp(OpFindColumns, err)
	}
	return resp.Hits, nil
}

// LabelColumnID finds the label column whose only axis is axis.
func (r *Resolver) LabelColumnID(ctx context.Context, pc pframe.Context, axis pframe.AxisID) (pframe.ObjectID, bool, error) {
	hits, err := r.FindColumns(ctx, pc, FindParams{Names: []string{pframe.LabelColumnName}})
	if err != nil {
		return "", false, err
	}
	for _, h := range hits {
		if len(h.Spec.AxesSpec) == 1 && h.Spec.AxesSpec[0].ID().Equal(axis) {
			return h.ColumnID, true, nil
		}
	}
	return "", false, nil
}
