package pframe

import "context"

// Driver is the read contract of the tabular-data service. Implementations
// live in subpackages (memframe, sqlframe); the resolver only sees this
// interface.
//
// All methods are safe for concurrent use. Failures are returned as
// *errs.Error.
type Driver interface {
	// GetColumnSpec returns the spec of a column, or (nil, nil) when the
	// frame has no such column.
	GetColumnSpec(ctx context.Context, h Handle, id ObjectID) (*ColumnSpec, error)

	// CalculateTableData realises one column together with its axes,
	// keeping only records that pass every filter.
	CalculateTableData(ctx context.Context, h Handle, req CalculateTableDataRequest) ([]TableColumn, error)

	// GetUniqueValues returns distinct values of a column, or of one of its
	// axes when req.Axis is set.
	GetUniqueValues(ctx context.Context, h Handle, req UniqueValuesRequest) (*UniqueValuesResponse, error)

	// FindColumns searches the frame by column filter and axis compatibility.
	FindColumns(ctx context.Context, h Handle, req FindColumnsRequest) (*FindColumnsResponse, error)
}

// Context binds a frame handle to the driver serving it. It is a plain
// value passed into every resolver call.
type Context struct {
	Handle Handle
	Driver Driver
}

// CalculateTableDataRequest asks for the realised data of Source.
type CalculateTableDataRequest struct {
	Source  ObjectID
	Filters []Filter
}

// TableColumnType says whether a TableColumn holds axis keys or column values.
type TableColumnType string

const (
	TableColumnAxis   TableColumnType = "axis"
	TableColumnColumn TableColumnType = "column"
)

// TableColumnSpec describes one vector of a CalculateTableData response.
// Axis is set for axis vectors, Column and ColumnID for the value vector.
type TableColumnSpec struct {
	Type     TableColumnType
	Axis     *AxisSpec
	ColumnID ObjectID
	Column   *ColumnSpec
}

// TableColumn is one realised vector; all vectors of a response have the
// same length and are aligned by row.
type TableColumn struct {
	Spec TableColumnSpec
	Data Vector
}

// UniqueValuesRequest asks for distinct values of ColumnID, or of Axis
// within ColumnID when Axis is non-nil.
type UniqueValuesRequest struct {
	ColumnID ObjectID
	Axis     *AxisID
	Filters  []Filter
	Limit    int
}

// UniqueValuesResponse carries at most Limit values; Overflow is set when
// more distinct values exist.
type UniqueValuesResponse struct {
	Values   Vector
	Overflow bool
}

// ColumnFilter selects columns by spec. Empty fields do not constrain.
type ColumnFilter struct {
	Type              []ValueType
	Name              []string
	AnnotationValue   map[string]string
	AnnotationPattern map[string]string
}

// FindColumnsRequest searches a frame. CompatibleWith restricts hits to
// columns sharing axes with the given set; see Compatible.
type FindColumnsRequest struct {
	ColumnFilter       ColumnFilter
	CompatibleWith     []AxisID
	StrictlyCompatible bool
}

// ColumnIDAndSpec is one FindColumns hit.
type ColumnIDAndSpec struct {
	ColumnID ObjectID   `json:"columnId"`
	Spec     ColumnSpec `json:"spec"`
}

// FindColumnsResponse lists matching columns.
type FindColumnsResponse struct {
	Hits []ColumnIDAndSpec
}
