package frame

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Label names a column or an index level. It is nil, a string, []byte, a Go
// integer or float, a bool, a time.Time, or a Tuple of labels for
// multi-level column axes.
type Label = any

// Tuple is a multi-level label.
type Tuple []Label

// FormatLabel renders the storage name of a label: nil becomes "None" and
// tuples render as "('a', 'b')".
func FormatLabel(l Label) string {
	switch v := l.(type) {
	case nil:
		return "None"
	case string:
		return v
	case []byte:
		return string(v)
	case Tuple:
		return formatTuple(v)
	}
	return reprScalar(l)
}

func formatTuple(t Tuple) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, e := range t {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(reprLabel(e))
	}
	if len(t) == 1 {
		b.WriteByte(',')
	}
	b.WriteByte(')')
	return b.String()
}

func reprLabel(l Label) string {
	switch v := l.(type) {
	case string:
		return "'" + strings.ReplaceAll(v, "'", `\'`) + "'"
	case []byte:
		return "b'" + strings.ReplaceAll(string(v), "'", `\'`) + "'"
	case Tuple:
		return formatTuple(v)
	case nil:
		return "None"
	}
	return reprScalar(l)
}

func reprScalar(l Label) string {
	switch v := l.(type) {
	case bool:
		if v {
			return "True"
		}
		return "False"
	case float32:
		return formatFloat(float64(v), 32)
	case float64:
		return formatFloat(v, 64)
	case time.Time:
		return v.Format("2006-01-02 15:04:05.999999999Z07:00")
	}
	if i, ok := AsInt64(l); ok {
		return strconv.FormatInt(i, 10)
	}
	if u, ok := l.(uint64); ok {
		return strconv.FormatUint(u, 10)
	}
	if u, ok := l.(uint); ok {
		return strconv.FormatUint(uint64(u), 10)
	}
	return "<unprintable>"
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// AsInt64 converts any Go integer value that fits into int64.
func AsInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint:
		if uint64(x) <= math.MaxInt64 {
			return int64(x), true
		}
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x), true
		}
	}
	return 0, false
}

// IsInteger reports whether v holds a Go integer of any width.
func IsInteger(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// AsFloat64 converts any Go integer or float value to float64.
func AsFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case uint:
		return float64(x), true
	}
	if i, ok := AsInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}
