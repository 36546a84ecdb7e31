package pframe

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Vector is a column of raw values as returned by the data service.
// A nil element is NA.
type Vector struct {
	Type ValueType
	Data []any
}

// Len returns the number of elements.
func (v Vector) Len() int { return len(v.Data) }

// Strings converts every element with FormatValue.
func (v Vector) Strings() []string {
	out := make([]string, len(v.Data))
	for i, d := range v.Data {
		out[i] = FormatValue(d)
	}
	return out
}

// FormatValue returns the string form of a raw data value. Integers print
// without exponent, floats in their shortest exact form, NA as "".
// Floats of magnitude 1e21 and above switch to exponent form ("1e+21").
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return formatFloat(float64(x), 32)
	case float64:
		return formatFloat(x, 64)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(x float64, bits int) string {
	if math.Abs(x) >= 1e21 {
		return strconv.FormatFloat(x, 'g', -1, bits)
	}
	return strconv.FormatFloat(x, 'f', -1, bits)
}
