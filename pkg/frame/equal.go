package frame

import (
	"bytes"
	"math"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Equal reports whether two frames hold the same columns, index and column
// axis names under null-aware equality.
func (f *Frame) Equal(other *Frame) bool {
	if f.n != other.n || len(f.columns) != len(other.columns) {
		return false
	}
	for i := range f.columns {
		if !f.columns[i].Equal(other.columns[i]) {
			return false
		}
	}
	a, b := f.index.Levels(), other.index.Levels()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	an, bn := f.axis.Names(), other.axis.Names()
	if len(an) != len(bn) {
		return false
	}
	for i := range an {
		if !ValuesEqual(an[i], bn[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether two series have the same label, dtype and values.
// Missing values compare equal to each other regardless of sentinel, and
// never equal to a present value.
func (s *Series) Equal(other *Series) bool {
	if !ValuesEqual(s.name, other.name) || s.dtype != other.dtype || s.n != other.n {
		return false
	}
	if c := s.Categorical(); c != nil {
		oc := other.Categorical()
		if oc == nil || c.Ordered() != oc.Ordered() || !c.Categories().valuesEqual(oc.Categories()) {
			return false
		}
		for i := 0; i < c.Len(); i++ {
			if c.Code(i) != oc.Code(i) && !(c.Code(i) < 0 && oc.Code(i) < 0) {
				return false
			}
		}
		return true
	}
	return s.valuesEqual(other)
}

func (s *Series) valuesEqual(other *Series) bool {
	if s.n != other.n {
		return false
	}
	for i := 0; i < s.n; i++ {
		an, bn := s.IsNull(i), other.IsNull(i)
		if an != bn {
			return false
		}
		if an {
			continue
		}
		if !ValuesEqual(s.rawValue(i), other.rawValue(i)) {
			return false
		}
	}
	return true
}

// rawValue boxes row i without converting ticks to times.
func (s *Series) rawValue(i int) any {
	if ticks, ok := s.data.([]int64); ok {
		return ticks[i]
	}
	return s.Value(i)
}

// ValuesEqual compares two dynamic values. Integers compare by value across
// widths, floats by value with NaN equal to NaN, decimals numerically, and
// sequences and mappings element-wise. A nil sequence differs from an empty
// one.
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if IsInteger(a) && IsInteger(b) {
		return integersEqual(a, b)
	}
	if fa, ok := a.(float64); ok {
		return floatEqual(fa, b)
	}
	if fa, ok := a.(float32); ok {
		return floatEqual(float64(fa), b)
	}
	switch x := a.(type) {
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return ok && x.Equal(y)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case civil.Date:
		y, ok := b.(civil.Date)
		return ok && x == y
	case civil.Time:
		y, ok := b.(civil.Time)
		return ok && x == y
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, ok := y[k]
			if !ok || !ValuesEqual(v, w) {
				return false
			}
		}
		return true
	case Tuple:
		y, ok := b.(Tuple)
		return ok && sequencesEqual([]any(x), []any(y))
	}
	if xs, ok := AsSequence(a); ok {
		ys, ok := AsSequence(b)
		if !ok || (xs == nil) != (ys == nil) {
			return false
		}
		return sequencesEqual(xs, ys)
	}
	return a == b
}

func sequencesEqual(xs, ys []any) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if !ValuesEqual(xs[i], ys[i]) {
			return false
		}
	}
	return true
}

func integersEqual(a, b any) bool {
	ai, aok := AsInt64(a)
	bi, bok := AsInt64(b)
	if aok && bok {
		return ai == bi
	}
	if aok || bok {
		return false
	}
	return asUint64(a) == asUint64(b)
}

func asUint64(v any) uint64 {
	switch x := v.(type) {
	case uint:
		return uint64(x)
	case uint64:
		return x
	}
	return 0
}

func floatEqual(a float64, b any) bool {
	var fb float64
	switch y := b.(type) {
	case float64:
		fb = y
	case float32:
		fb = float64(y)
	default:
		return false
	}
	if math.IsNaN(a) || math.IsNaN(fb) {
		return math.IsNaN(a) && math.IsNaN(fb)
	}
	return a == fb
}

// AsSequence returns v as []any when it is a sequence value: []any or a
// typed slice of a supported element type. []byte is a bytes value, not a
// sequence. A nil slice yields (nil, true).
func AsSequence(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []bool:
		return box(x), true
	case []int:
		return box(x), true
	case []int8:
		return box(x), true
	case []int16:
		return box(x), true
	case []int32:
		return box(x), true
	case []int64:
		return box(x), true
	case []uint16:
		return box(x), true
	case []uint32:
		return box(x), true
	case []uint64:
		return box(x), true
	case []float32:
		return box(x), true
	case []float64:
		return box(x), true
	case []string:
		return box(x), true
	}
	return nil, false
}

func box[T any](values []T) []any {
	if values == nil {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
