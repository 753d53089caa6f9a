package frame

import (
	"math"
	"time"
)

// NaT is the not-a-time sentinel stored in datetime64 and timedelta64
// columns.
const NaT int64 = math.MinInt64

// Number is the set of element types backing numeric series.
type Number interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64
}

// Series is a named, typed column of a Frame. The backing slice is shared,
// never copied, by accessors and by Slice.
//
// Backing storage per kind:
//
//	bool                 []bool
//	int8 ... float64     []int8 ... []float64
//	object               []any
//	datetime64           []int64 ticks since the Unix epoch at Dtype.Unit
//	timedelta64          []int64 ticks at Dtype.Unit
//	category             *Categorical
type Series struct {
	name  Label
	dtype Dtype
	data  any
	n     int
}

// NewNumeric creates a numeric series backed by values.
func NewNumeric[T Number](name Label, values []T) *Series {
	return &Series{name: name, dtype: dtypeOf[T](), data: values, n: len(values)}
}

func dtypeOf[T Number]() Dtype {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float32:
		return Float32
	}
	return Float64
}

// NewBool creates a boolean series. Boolean series cannot hold missing
// values; use an object series of bool and nil instead.
func NewBool(name Label, values []bool) *Series {
	return &Series{name: name, dtype: Bool, data: values, n: len(values)}
}

// NewObject creates an object series. nil and NaN mark missing values.
func NewObject(name Label, values []any) *Series {
	return &Series{name: name, dtype: Object, data: values, n: len(values)}
}

// NewStrings creates an object series of strings.
func NewStrings(name Label, values ...string) *Series {
	boxed := make([]any, len(values))
	for i, v := range values {
		boxed[i] = v
	}
	return NewObject(name, boxed)
}

// NewDatetime creates a datetime64 series from ticks at unit. NaT marks
// missing values.
func NewDatetime(name Label, unit Unit, tz string, ticks []int64) *Series {
	return &Series{name: name, dtype: Datetime64(unit, tz), data: ticks, n: len(ticks)}
}

// NewTimedelta creates a timedelta64 series from ticks at unit.
func NewTimedelta(name Label, unit Unit, ticks []int64) *Series {
	return &Series{name: name, dtype: Timedelta64(unit), data: ticks, n: len(ticks)}
}

// NewCategoricalSeries creates a category series.
func NewCategoricalSeries(name Label, c *Categorical) *Series {
	return &Series{name: name, dtype: Category, data: c, n: c.Len()}
}

// Name returns the series label.
func (s *Series) Name() Label { return s.name }

// Dtype returns the run-time type.
func (s *Series) Dtype() Dtype { return s.dtype }

// Len returns the number of rows.
func (s *Series) Len() int { return s.n }

// Data returns the backing storage; see the Series documentation for the
// concrete type per kind.
func (s *Series) Data() any { return s.data }

// Categorical returns the categorical backing a category series, or nil.
func (s *Series) Categorical() *Categorical {
	c, _ := s.data.(*Categorical)
	return c
}

// Values returns the backing slice of a numeric series.
func Values[T Number](s *Series) ([]T, bool) {
	v, ok := s.data.([]T)
	return v, ok
}

// Objects returns the backing slice of an object series.
func (s *Series) Objects() ([]any, bool) {
	v, ok := s.data.([]any)
	return v, ok
}

// Bools returns the backing slice of a bool series.
func (s *Series) Bools() ([]bool, bool) {
	v, ok := s.data.([]bool)
	return v, ok
}

// Ticks returns the backing slice of a datetime64 or timedelta64 series.
func (s *Series) Ticks() ([]int64, bool) {
	if s.dtype.Kind != KindDatetime64 && s.dtype.Kind != KindTimedelta64 {
		return nil, false
	}
	v, ok := s.data.([]int64)
	return v, ok
}

// Rename returns a series sharing s's storage under a new label.
func (s *Series) Rename(name Label) *Series {
	cp := *s
	cp.name = name
	return &cp
}

// Slice returns rows [lo, hi) sharing s's storage.
func (s *Series) Slice(lo, hi int) *Series {
	cp := *s
	cp.n = hi - lo
	switch v := s.data.(type) {
	case []bool:
		cp.data = v[lo:hi]
	case []int8:
		cp.data = v[lo:hi]
	case []int16:
		cp.data = v[lo:hi]
	case []int32:
		cp.data = v[lo:hi]
	case []int64:
		cp.data = v[lo:hi]
	case []uint8:
		cp.data = v[lo:hi]
	case []uint16:
		cp.data = v[lo:hi]
	case []uint32:
		cp.data = v[lo:hi]
	case []uint64:
		cp.data = v[lo:hi]
	case []float32:
		cp.data = v[lo:hi]
	case []float64:
		cp.data = v[lo:hi]
	case []any:
		cp.data = v[lo:hi]
	case *Categorical:
		cp.data = v.Slice(lo, hi)
	}
	return &cp
}

// IsNull reports whether row i holds the missing-value sentinel of the
// series' dtype.
func (s *Series) IsNull(i int) bool {
	switch v := s.data.(type) {
	case []float64:
		return math.IsNaN(v[i])
	case []float32:
		return math.IsNaN(float64(v[i]))
	case []any:
		return IsNullValue(v[i])
	case []int64:
		if s.dtype.Kind == KindDatetime64 || s.dtype.Kind == KindTimedelta64 {
			return v[i] == NaT
		}
	case *Categorical:
		return v.Code(i) < 0
	}
	return false
}

// NullCount returns the number of missing values.
func (s *Series) NullCount() int {
	n := 0
	for i := 0; i < s.n; i++ {
		if s.IsNull(i) {
			n++
		}
	}
	return n
}

// IsNullValue reports whether an object value is missing: nil or NaN.
func IsNullValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

// Value returns row i boxed, or nil for a missing value. Datetimes come back
// as time.Time in the dtype's zone, timedeltas as time.Duration and
// categoricals as their category value.
func (s *Series) Value(i int) any {
	if s.IsNull(i) {
		return nil
	}
	switch v := s.data.(type) {
	case []bool:
		return v[i]
	case []int8:
		return v[i]
	case []int16:
		return v[i]
	case []int32:
		return v[i]
	case []int64:
		switch s.dtype.Kind {
		case KindDatetime64:
			return TimeFromTicks(v[i], s.dtype.Unit, s.dtype.TZ)
		case KindTimedelta64:
			return time.Duration(v[i] * unitNanos(s.dtype.Unit))
		}
		return v[i]
	case []uint8:
		return v[i]
	case []uint16:
		return v[i]
	case []uint32:
		return v[i]
	case []uint64:
		return v[i]
	case []float32:
		return v[i]
	case []float64:
		return v[i]
	case []any:
		return v[i]
	case *Categorical:
		return v.Categories().Value(int(v.Code(i)))
	}
	return nil
}

func unitNanos(u Unit) int64 {
	if u == Day {
		return 86400 * 1e9
	}
	return 1e9 / u.PerSecond()
}

// TimeFromTicks converts ticks since the epoch at unit to a time in the
// named zone. Unknown zones fall back to UTC.
func TimeFromTicks(ticks int64, unit Unit, tz string) time.Time {
	var t time.Time
	switch unit {
	case Day:
		t = time.Unix(ticks*86400, 0)
	case Second:
		t = time.Unix(ticks, 0)
	case Millisecond:
		t = time.UnixMilli(ticks)
	case Microsecond:
		t = time.UnixMicro(ticks)
	default:
		t = time.Unix(0, ticks)
	}
	loc, err := LoadZone(tz)
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc)
}
