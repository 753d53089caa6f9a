package convert

import (
	"math"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/exp/constraints"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
)

type primitive interface {
	constraints.Integer | constraints.Float
}

// asBytes views values as raw little-endian bytes without copying.
func asBytes[T primitive](values []T) []byte {
	if len(values) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(values))), len(values)*int(unsafe.Sizeof(zero)))
}

// fromBytes views raw bytes as values without copying.
func fromBytes[T primitive](b []byte) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(b) < size {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), len(b)/size)
}

// primitiveArray wraps values as a fixed-width array of type dt. When alias
// is set the array's value buffer is values' own memory.
func primitiveArray[T primitive](dt arrow.DataType, values []T, nulls *NullMask, mem memory.Allocator, alias bool) arrow.Array {
	raw := asBytes(values)

	var buf *memory.Buffer
	if alias {
		buf = memory.NewBufferBytes(raw)
	} else {
		buf = memory.NewResizableBuffer(mem)
		buf.Resize(len(raw))
		copy(buf.Bytes(), raw)
	}
	defer buf.Release()

	bitmap := nulls.Bitmap(mem)
	if bitmap != nil {
		defer bitmap.Release()
	}

	data := array.NewData(dt, len(values), []*memory.Buffer{bitmap, buf}, nil, nulls.NullN(), 0)
	defer data.Release()
	return array.MakeFromData(data)
}

// primitiveValues returns the value buffer of a fixed-width array as a
// slice. The slice aliases the array's memory.
func primitiveValues[T primitive](arr arrow.Array) []T {
	data := arr.Data()
	buffers := data.Buffers()
	if len(buffers) < 2 || buffers[1] == nil || arr.Len() == 0 {
		return []T{}
	}
	all := fromBytes[T](buffers[1].Bytes())
	return all[data.Offset() : data.Offset()+arr.Len()]
}

// numericArray converts a numeric series to a fixed-width array of type dt.
// When the series already holds dt's physical type its slice is aliased;
// otherwise every non-null value is cast and range-checked.
func numericArray(s *frame.Series, dt arrow.DataType, nulls *NullMask, mem memory.Allocator) (arrow.Array, error) {
	switch src := s.Data().(type) {
	case []int8:
		return castArray(src, dt, nulls, mem)
	case []int16:
		return castArray(src, dt, nulls, mem)
	case []int32:
		return castArray(src, dt, nulls, mem)
	case []int64:
		return castArray(src, dt, nulls, mem)
	case []uint8:
		return castArray(src, dt, nulls, mem)
	case []uint16:
		return castArray(src, dt, nulls, mem)
	case []uint32:
		return castArray(src, dt, nulls, mem)
	case []uint64:
		return castArray(src, dt, nulls, mem)
	case []float32:
		return castArray(src, dt, nulls, mem)
	case []float64:
		return castArray(src, dt, nulls, mem)
	}
	return nil, errors.Newf(errors.ErrorTypeInternal, "series of dtype %s is not numeric", s.Dtype())
}

func castArray[S primitive](src []S, dt arrow.DataType, nulls *NullMask, mem memory.Allocator) (arrow.Array, error) {
	switch dt.ID() {
	case arrow.INT8:
		return castTo[S, int8](src, dt, nulls, mem)
	case arrow.INT16:
		return castTo[S, int16](src, dt, nulls, mem)
	case arrow.INT32:
		return castTo[S, int32](src, dt, nulls, mem)
	case arrow.INT64:
		return castTo[S, int64](src, dt, nulls, mem)
	case arrow.UINT8:
		return castTo[S, uint8](src, dt, nulls, mem)
	case arrow.UINT16:
		return castTo[S, uint16](src, dt, nulls, mem)
	case arrow.UINT32:
		return castTo[S, uint32](src, dt, nulls, mem)
	case arrow.UINT64:
		return castTo[S, uint64](src, dt, nulls, mem)
	case arrow.FLOAT32:
		return castTo[S, float32](src, dt, nulls, mem)
	case arrow.FLOAT64:
		return castTo[S, float64](src, dt, nulls, mem)
	}
	return nil, errors.Newf(errors.ErrorTypeSchemaMismatch, "cannot convert numeric column to %s", dt)
}

func castTo[S, D primitive](src []S, dt arrow.DataType, nulls *NullMask, mem memory.Allocator) (arrow.Array, error) {
	if same, ok := any(src).([]D); ok {
		return primitiveArray(dt, same, nulls, mem, true), nil
	}
	dst, err := castValues[S, D](src, nulls, dt)
	if err != nil {
		return nil, err
	}
	return primitiveArray(dt, dst, nulls, mem, false), nil
}

// castValues converts every non-null value of src to D. A value that would
// change (overflow, lost fraction, lost precision) fails the whole column.
func castValues[S, D primitive](src []S, nulls *NullMask, dt arrow.DataType) ([]D, error) {
	out := make([]D, len(src))
	for i, v := range src {
		if nulls.IsNull(i) {
			continue
		}
		d, ok := convertValue[S, D](v)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeSchemaMismatch, "value %v at row %d does not fit %s", v, i, dt).
				WithDetail("row", i)
		}
		out[i] = d
	}
	return out, nil
}

// convertValue converts v to D when the conversion is lossless. Between
// float widths NaN and infinities carry over; any other value must survive
// the round trip.
func convertValue[S, D primitive](v S) (D, bool) {
	var zero D
	switch {
	case isFloat[S]():
		f := float64(v)
		if isFloat[D]() {
			d := D(f)
			if float64(d) != f && !math.IsNaN(f) {
				return zero, false
			}
			return d, true
		}
		if math.IsNaN(f) || !isIntegral(f) {
			return zero, false
		}
		if f < 0 {
			if f < math.MinInt64 {
				return zero, false
			}
			return convertValue[int64, D](int64(f))
		}
		if f >= math.MaxUint64 {
			return zero, false
		}
		return convertValue[uint64, D](uint64(f))
	case isFloat[D]():
		d := D(v)
		f := float64(d)
		if f < math.MinInt64 || f >= math.MaxUint64 || S(d) != v {
			return zero, false
		}
		return d, true
	}
	d := D(v)
	if S(d) != v || (v < 0) != (d < 0) {
		return zero, false
	}
	return d, true
}

func isFloat[T primitive]() bool {
	var zero T
	switch any(zero).(type) {
	case float32, float64:
		return true
	}
	return false
}

// objectNumber converts one object value to D with the same lossless rules
// as castValues. bool is not a number.
func objectNumber[D primitive](v any) (D, bool) {
	switch x := v.(type) {
	case float64:
		return convertValue[float64, D](x)
	case float32:
		return convertValue[float32, D](x)
	case uint64:
		return convertValue[uint64, D](x)
	case uint:
		return convertValue[uint64, D](uint64(x))
	}
	if i, ok := frame.AsInt64(v); ok {
		return convertValue[int64, D](i)
	}
	var zero D
	return zero, false
}
