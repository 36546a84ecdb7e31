package pframe

import (
	"fmt"
	"strings"

	"github.com/koustreak/colsuggest/internal/errs"
)

// TargetKind discriminates what a Filter is evaluated against.
type TargetKind int

const (
	TargetColumn TargetKind = iota
	TargetAxis
)

func (k TargetKind) String() string {
	if k == TargetAxis {
		return "axis"
	}
	return "column"
}

// FilterTarget is either a column (by id) or an axis (by id). Build one with
// ByColumn or ByAxis; the zero value targets the empty column id.
type FilterTarget struct {
	kind   TargetKind
	column ObjectID
	axis   AxisID
}

// ByColumn targets the values of a column.
func ByColumn(id ObjectID) FilterTarget {
	return FilterTarget{kind: TargetColumn, column: id}
}

// ByAxis targets the keys of an axis.
func ByAxis(id AxisID) FilterTarget {
	return FilterTarget{kind: TargetAxis, axis: id}
}

func (t FilterTarget) Kind() TargetKind { return t.kind }

// Column returns the targeted column id; ok is false for axis targets.
func (t FilterTarget) Column() (ObjectID, bool) {
	return t.column, t.kind == TargetColumn
}

// Axis returns the targeted axis id; ok is false for column targets.
func (t FilterTarget) Axis() (AxisID, bool) {
	return t.axis, t.kind == TargetAxis
}

func (t FilterTarget) String() string {
	if t.kind == TargetAxis {
		return "axis:" + t.axis.Canonical()
	}
	return "column:" + string(t.column)
}

// Operator is a predicate operator understood by the data service.
type Operator string

// OpStringIContains is case-insensitive substring containment, the only
// operator the resolver issues.
const OpStringIContains Operator = "StringIContains"

// Predicate is the test a Filter applies to its target.
type Predicate struct {
	Operator  Operator
	Substring string
}

// Filter is a single-column record filter pushed down to the data service.
type Filter struct {
	Target    FilterTarget
	Predicate Predicate
}

// StringIContains builds a case-insensitive substring filter on target.
func StringIContains(target FilterTarget, substring string) Filter {
	return Filter{
		Target:    target,
		Predicate: Predicate{Operator: OpStringIContains, Substring: substring},
	}
}

// Match evaluates the predicate against a raw value.
func (f Filter) Match(value any) (bool, error) {
	switch f.Predicate.Operator {
	case OpStringIContains:
		return strings.Contains(
			strings.ToLower(FormatValue(value)),
			strings.ToLower(f.Predicate.Substring),
		), nil
	default:
		return false, errs.Newf(errs.ErrKindInvalidInput, "unsupported predicate operator %q", f.Predicate.Operator)
	}
}

func (f Filter) String() string {
	return fmt.Sprintf("%s %s %q", f.Target, f.Predicate.Operator, f.Predicate.Substring)
}
