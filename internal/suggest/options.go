package suggest

import (
	"context"
	"slices"

	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/pframe"
)

// AnchorAxesPrefix is how many leading anchor axes a filter option shares
// with the anchor; axes past it must be fixed to a value by the user.
const AnchorAxesPrefix = 2

// FixedAxis is an axis of a filter option that needs a fixed value.
type FixedAxis struct {
	Idx   int    `json:"idx"`
	Label string `json:"label"`
}

// FilterOption is one column offered for filtering next to an anchor.
type FilterOption struct {
	ID            pframe.ObjectID   `json:"id"`
	Spec          pframe.ColumnSpec `json:"spec"`
	Label         string            `json:"label"`
	AxesToBeFixed []FixedAxis       `json:"axesToBeFixed,omitempty"`
}

// FilterOptions turns column search hits into filter options. Label
// columns only name axes and are not offered; neither are columns hidden
// from the UI. Options are sorted by label.
func FilterOptions(hits []pframe.ColumnIDAndSpec, anchorAxes []pframe.AxisSpec) []FilterOption {
	var labels, columns []pframe.ColumnIDAndSpec
	for _, h := range hits {
		switch {
		case h.Spec.Name == pframe.LabelColumnName:
			labels = append(labels, h)
		case h.Spec.IsHiddenFromUI():
		default:
			columns = append(columns, h)
		}
	}

	out := make([]FilterOption, 0, len(columns))
	for _, c := range columns {
		opt := FilterOption{ID: c.ColumnID, Spec: c.Spec, Label: c.Spec.Label()}
		for i := len(anchorAxes); i < len(c.Spec.AxesSpec); i++ {
			opt.AxesToBeFixed = append(opt.AxesToBeFixed, FixedAxis{
				Idx:   i,
				Label: axisLabel(c.Spec.AxesSpec[i], labels),
			})
		}
		out = append(out, opt)
	}

	coll := newPlainCollator()
	slices.SortStableFunc(out, func(a, b FilterOption) int {
		return coll.CompareString(a.Label, b.Label)
	})
	return out
}

// axisLabel names an axis by its label column, its label annotation or its name.
func axisLabel(axis pframe.AxisSpec, labels []pframe.ColumnIDAndSpec) string {
	for _, l := range labels {
		if len(l.Spec.AxesSpec) > 0 && l.Spec.AxesSpec[0].Name == axis.Name {
			return l.Spec.Label()
		}
	}
	if v := axis.Annotations[pframe.AnnotationLabel]; v != "" {
		return v
	}
	return axis.Name
}

// AnchorFilterOptions lists filter options for columns sharing axes with
// the anchor column. An unknown anchor is a not-found error.
func (r *Resolver) AnchorFilterOptions(ctx context.Context, pc pframe.Context, anchor pframe.ObjectID) ([]FilterOption, error) {
	if pc.Driver == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "frame context has no driver")
	}
	spec, err := r.ColumnSpec(ctx, pc, anchor)
	if err != nil {
		return nil, err
	}
	if !spec.IsPColumn() {
		return nil, errs.Newf(errs.ErrKindNotFound, "anchor column %q not found", anchor)
	}

	hits, err := r.FindColumns(ctx, pc, FindParams{SelectedSources: []pframe.ObjectID{anchor}})
	if err != nil {
		return nil, err
	}

	prefix := spec.AxesSpec
	if len(prefix) > AnchorAxesPrefix {
		prefix = prefix[:AnchorAxesPrefix]
	}
	return FilterOptions(hits, prefix), nil
}
