package pframe

import (
	"regexp"
	"slices"

	"github.com/koustreak/colsuggest/internal/errs"
)

// Match reports whether spec passes the filter. Annotation patterns are
// regular expressions anchored to the whole annotation value; a missing
// annotation never matches.
func (f ColumnFilter) Match(spec *ColumnSpec) (bool, error) {
	if len(f.Type) > 0 && !slices.Contains(f.Type, spec.ValueType) {
		return false, nil
	}
	if len(f.Name) > 0 && !slices.Contains(f.Name, spec.Name) {
		return false, nil
	}
	for k, want := range f.AnnotationValue {
		if got, ok := spec.Annotation(k); !ok || got != want {
			return false, nil
		}
	}
	for k, pattern := range f.AnnotationPattern {
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return false, errs.Wrap(errs.ErrKindInvalidInput, "invalid annotation pattern for "+k, err)
		}
		got, ok := spec.Annotation(k)
		if !ok || !re.MatchString(got) {
			return false, nil
		}
	}
	return true, nil
}

// Compatible reports whether a column spec fits the axis set. An empty set
// admits every column. Otherwise a strict match requires every axis of the
// column to be in the set, and a loose match requires at least one.
func Compatible(spec *ColumnSpec, axes []AxisID, strict bool) bool {
	if len(axes) == 0 {
		return true
	}
	inSet := func(a AxisSpec) bool {
		id := a.ID()
		for _, b := range axes {
			if id.Equal(b) {
				return true
			}
		}
		return false
	}

	if strict {
		for _, a := range spec.AxesSpec {
			if !inSet(a) {
				return false
			}
		}
		return true
	}
	for _, a := range spec.AxesSpec {
		if inSet(a) {
			return true
		}
	}
	return false
}
