// Package suggest resolves autocomplete candidates for a column, or for an
// axis of a column, served by a PFrame driver.
//
// Candidate values come from one of three sources, tried in order: the
// column's discrete-values annotation, a label column joined to the axis,
// or a unique-value scan. Results are deduplicated, sorted by label with
// numeric-aware collation and bounded by the requested limit.
//
// Usage:
//
//	r := suggest.NewResolver(suggest.WithSink(logger.Sink(log)))
//	res, err := r.Resolve(ctx, pframe.Context{Handle: h, Driver: d}, suggest.Request{
//	    ColumnID:    "col-1",
//	    Limit:       300,
//	    SearchQuery: "cd4",
//	})
package suggest

import (
	"github.com/koustreak/colsuggest/internal/diag"
	"github.com/koustreak/colsuggest/internal/pframe"
)

// UniqueValuesLimit is sent to the data service when the caller sets no limit.
const UniqueValuesLimit = 1_000_000

// Service operation names used in diagnostics and errors.
const (
	OpGetColumnSpec      = "getColumnSpec"
	OpCalculateTableData = "calculateTableData"
	OpGetUniqueValues    = "getUniqueValues"
	OpFindColumns        = "findColumns"
	OpDiscreteValues     = "discreteValues"
	OpAxisUniqueValues   = "axisUniqueValues"
	OpSuggest            = "suggest"
)

// Request asks for candidate values of ColumnID, or of its axis AxisIdx.
//
// Limit <= 0 means no limit. An empty search string means no search.
// SearchQuery matches labels where an axis label column exists and values
// otherwise; SearchQueryValue always matches raw values. When both are set
// on a labelled axis, SearchQuery wins.
type Request struct {
	ColumnID         pframe.ObjectID
	AxisIdx          *int
	Limit            int
	SearchQuery      string
	SearchQueryValue string
}

// Item is one candidate value.
type Item struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Source names the strategy that produced a Result.
type Source string

const (
	SourceNone         Source = "none"
	SourceDiscrete     Source = "discrete"
	SourceAxisLabels   Source = "axis_labels"
	SourceAxisUnique   Source = "axis_unique"
	SourceColumnUnique Source = "column_unique"
)

// Result is the sorted candidate list. Overflow signals that more matching
// values exist than were returned.
type Result struct {
	Values   []Item `json:"values"`
	Overflow bool   `json:"overflow"`
	Source   Source `json:"source"`
}

func emptyResult() *Result {
	return &Result{Values: []Item{}, Source: SourceNone}
}

// Resolver holds no per-request state; one instance serves any number of
// concurrent calls against any number of frames.
type Resolver struct {
	sink diag.Sink
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSink routes diagnostics to s.
func WithSink(s diag.Sink) Option {
	return func(r *Resolver) {
		if s != nil {
			r.sink = s
		}
	}
}

// NewResolver builds a Resolver. Diagnostics are discarded unless WithSink is given.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{sink: diag.Discard}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) emit(level diag.Level, op string, column pframe.ObjectID, msg string, err error) {
	r.sink.Emit(diag.Event{
		Level:    level,
		Op:       op,
		Message:  msg,
		ColumnID: string(column),
		Err:      err,
	})
}
