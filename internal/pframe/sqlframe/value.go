package sqlframe

import (
	"database/sql/driver"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"

	"github.com/koustreak/colsuggest/internal/pframe"
)

// normalize converts a scanned SQL value to the Go type drivers use for t.
// MySQL text results arrive as []byte; integer types become int64 and
// floating types float64. Unparseable values keep their text form.
// Driver-specific types (pgx returns pgtype.Numeric for NUMERIC) are
// reduced through driver.Valuer first, and UUIDs print in canonical form.
func normalize(v any, t pframe.ValueType) any {
	if dv, ok := v.(driver.Valuer); ok {
		plain, err := dv.Value()
		if err != nil {
			return v
		}
		v = plain
	}
	if id, ok := v.([16]byte); ok {
		return uuid.UUID(id).String()
	}
	if b, ok := v.([]byte); ok {
		if t == pframe.ValueTypeBytes {
			return b
		}
		v = string(b)
	}
	s, ok := v.(string)
	if !ok {
		switch n := v.(type) {
		case int32:
			return int64(n)
		case int:
			return int64(n)
		case float32:
			return float64(n)
		}
		return v
	}

	switch t {
	case pframe.ValueTypeInt, pframe.ValueTypeLong:
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
	case pframe.ValueTypeFloat, pframe.ValueTypeDouble:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return pframe.FormatValue(v)
	}
}

// decodeSpec reads a JSON spec stored as text, bytes, or a value the driver
// already decoded (pgx returns json and jsonb columns as maps).
func decodeSpec(v any, spec *pframe.ColumnSpec) error {
	var raw []byte
	switch s := v.(type) {
	case string:
		raw = []byte(s)
	case []byte:
		raw = s
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		raw = b
	}
	return json.Unmarshal(raw, spec)
}
