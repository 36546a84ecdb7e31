package suggest

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/koustreak/colsuggest/internal/diag"
	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/pframe"
)

// Resolve returns candidate values for req. An unknown or non-tabular
// column is not an error: it resolves to an empty result. Data-service
// failures are reported to the sink and returned.
func (r *Resolver) Resolve(ctx context.Context, pc pframe.Context, req Request) (*Result, error) {
	if pc.Driver == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "frame context has no driver")
	}
	if req.ColumnID == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "column id is required")
	}

	spec, err := r.ColumnSpec(ctx, pc, req.ColumnID)
	if err != nil {
		return nil, err
	}
	if !spec.IsPColumn() {
		return emptyResult(), nil
	}

	if res := r.discreteValues(spec, req.ColumnID); res != nil {
		return res, nil
	}

	if req.AxisIdx != nil {
		return r.resolveAxis(ctx, pc, spec, req)
	}
	return r.resolveColumn(ctx, pc, req)
}

// discreteValues reads the discrete-values annotation. A malformed
// annotation is reported and treated as absent.
func (r *Resolver) discreteValues(spec *pframe.ColumnSpec, id pframe.ObjectID) *Result {
	raw, ok := spec.Annotation(pframe.AnnotationDiscreteValues)
	if !ok || raw == "" {
		return nil
	}

	values, err := parseDiscreteValues(raw)
	if err != nil {
		r.sink.Emit(diag.Event{
			Level:    diag.LevelError,
			Op:       OpDiscreteValues,
			Message:  "discrete values annotation is malformed",
			ColumnID: string(id),
			Err:      err,
			Fields:   map[string]any{"annotation": raw},
		})
		return nil
	}

	items := make([]Item, len(values))
	for i, v := range values {
		items[i] = Item{Value: v, Label: v}
	}
	sortItems(items)
	return &Result{Values: items, Source: SourceDiscrete}
}

// parseDiscreteValues decodes a JSON array of strings, numbers or booleans.
func parseDiscreteValues(raw string) ([]string, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var elems []any
	if err := dec.Decode(&elems); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "decode discrete values", err)
	}
	if dec.More() {
		return nil, errs.New(errs.ErrKindInvalidInput, "trailing data after discrete values")
	}
	if elems == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "discrete values is not an array")
	}

	out := make([]string, len(elems))
	for i, e := range elems {
		switch v := e.(type) {
		case string:
			out[i] = v
		case json.Number:
			out[i] = formatNumber(v)
		case bool:
			out[i] = strconv.FormatBool(v)
		default:
			return nil, errs.Newf(errs.ErrKindInvalidInput, "discrete value %d has unsupported type %T", i, e)
		}
	}
	return out, nil
}

// formatNumber prints integral numbers without a fraction ("1.0" -> "1").
func formatNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil {
		return pframe.FormatValue(f)
	}
	return n.String()
}

func (r *Resolver) resolveAxis(ctx context.Context, pc pframe.Context, spec *pframe.ColumnSpec, req Request) (*Result, error) {
	idx := *req.AxisIdx
	if idx < 0 || idx >= len(spec.AxesSpec) {
		return nil, errs.Newf(errs.ErrKindInvalidInput,
			"axis index %d out of range for column %q with %d axes", idx, req.ColumnID, len(spec.AxesSpec))
	}
	axis := spec.AxesSpec[idx].ID()

	labelID, found, err := r.LabelColumnID(ctx, pc, axis)
	if err != nil {
		return nil, err
	}
	if found {
		return r.axisWithLabels(ctx, pc, axis, labelID, req)
	}

	var filters []pframe.Filter
	if q := firstNonEmpty(req.SearchQuery, req.SearchQueryValue); q != "" {
		filters = []pframe.Filter{pframe.StringIContains(pframe.ByAxis(axis), q)}
	}
	uv, err := r.AxisUniqueValues(ctx, pc, AxisParams{
		Axis:            axis,
		ParentColumnIDs: []pframe.ObjectID{req.ColumnID},
		Limit:           req.Limit,
		Filters:         filters,
	})
	if err != nil {
		return nil, err
	}
	return uniqueResult(uv, req.Limit, SourceAxisUnique), nil
}

// axisWithLabels joins axis keys with the label column. Keys and labels are
// paired by position; a missing label falls back to the key.
func (r *Resolver) axisWithLabels(ctx context.Context, pc pframe.Context, axis pframe.AxisID, labelID pframe.ObjectID, req Request) (*Result, error) {
	var filters []pframe.Filter
	switch {
	case req.SearchQuery != "":
		filters = []pframe.Filter{pframe.StringIContains(pframe.ByColumn(labelID), req.SearchQuery)}
	case req.SearchQueryValue != "":
		filters = []pframe.Filter{pframe.StringIContains(pframe.ByAxis(axis), req.SearchQueryValue)}
	}

	data, err := r.SingleColumnData(ctx, pc, labelID, filters)
	if err != nil {
		return nil, err
	}

	keys := data.Axes[axis.Canonical()]
	n := len(keys)
	if req.Limit > 0 && req.Limit < n {
		n = req.Limit
	}

	items := make([]Item, n)
	for i := 0; i < n; i++ {
		value := pframe.FormatValue(keys[i])
		label := value
		if i < len(data.Data) && data.Data[i] != nil {
			label = pframe.FormatValue(data.Data[i])
		}
		items[i] = Item{Value: value, Label: label}
	}
	sortItems(items)

	return &Result{
		Values:   items,
		Overflow: req.Limit > 0 && len(keys) >= req.Limit,
		Source:   SourceAxisLabels,
	}, nil
}

func (r *Resolver) resolveColumn(ctx context.Context, pc pframe.Context, req Request) (*Result, error) {
	var filters []pframe.Filter
	if q := firstNonEmpty(req.SearchQuery, req.SearchQueryValue); q != "" {
		filters = []pframe.Filter{pframe.StringIContains(pframe.ByColumn(req.ColumnID), q)}
	}

	uv, err := r.columnUniqueValues(ctx, pc, req.ColumnID, req.Limit, filters)
	if err != nil {
		return nil, err
	}
	return uniqueResult(uv, req.Limit, SourceColumnUnique), nil
}

// uniqueResult bounds the service answer by limit; a service that returns
// more than asked for still yields at most limit items and overflow.
func uniqueResult(uv *UniqueValues, limit int, src Source) *Result {
	values, overflow := uv.Values, uv.Overflow
	if limit > 0 && len(values) > limit {
		values, overflow = values[:limit], true
	}
	return &Result{Values: itemsFromValues(values), Overflow: overflow, Source: src}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
