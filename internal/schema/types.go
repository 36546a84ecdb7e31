package schema

// ColumnInfo describes a single column in a table
type ColumnInfo struct {
	Name       string
	DataType   string // as reported by information_schema: text, bigint, varchar...
	IsNullable bool
}

// TableInfo describes a table and its columns
type TableInfo struct {
	Name    string
	Columns []ColumnInfo
}

// Column returns the column with the given name.
func (t *TableInfo) Column(name string) (ColumnInfo, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

// Problem is one layout mismatch found by Check.
type Problem struct {
	Table   string `json:"table"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	if p.Column == "" {
		return p.Table + ": " + p.Message
	}
	return p.Table + "." + p.Column + ": " + p.Message
}
