package convert

import (
	"math"
	"unicode/utf8"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
)

// objectArray converts any series to dt one value at a time through an
// Arrow builder. It is the path for object columns, nested types, decimals
// and binaries.
func objectArray(s *frame.Series, dt arrow.DataType, nulls *NullMask, mem memory.Allocator) (arrow.Array, error) {
	b := array.NewBuilder(mem, dt)
	defer b.Release()

	n := s.Len()
	b.Reserve(n)
	values, boxed := s.Objects()
	for i := 0; i < n; i++ {
		if nulls.IsNull(i) {
			appendNull(b)
			continue
		}
		v := s.Value(i)
		if boxed {
			v = values[i]
		}
		if err := appendValue(b, v); err != nil {
			return nil, nestedError(err, "row", i)
		}
	}
	return b.NewArray(), nil
}

// boolArray converts a bool series.
func boolArray(s *frame.Series, nulls *NullMask, mem memory.Allocator) arrow.Array {
	b := array.NewBooleanBuilder(mem)
	defer b.Release()
	values, _ := s.Bools()
	b.AppendValues(values, nulls.Valid())
	return b.NewArray()
}

// appendValue appends one non-null dynamic value to b, recursing into list
// and struct builders.
func appendValue(b array.Builder, v any) error {
	if frame.IsNullValue(v) {
		appendNull(b)
		return nil
	}

	switch b := b.(type) {
	case *array.Int8Builder:
		return appendNumber(b, v, b.Append)
	case *array.Int16Builder:
		return appendNumber(b, v, b.Append)
	case *array.Int32Builder:
		return appendNumber(b, v, b.Append)
	case *array.Int64Builder:
		return appendNumber(b, v, b.Append)
	case *array.Uint8Builder:
		return appendNumber(b, v, b.Append)
	case *array.Uint16Builder:
		return appendNumber(b, v, b.Append)
	case *array.Uint32Builder:
		return appendNumber(b, v, b.Append)
	case *array.Uint64Builder:
		return appendNumber(b, v, b.Append)
	case *array.Float32Builder:
		return appendNumber(b, v, b.Append)
	case *array.Float64Builder:
		return appendNumber(b, v, b.Append)

	case *array.BooleanBuilder:
		x, ok := v.(bool)
		if !ok {
			return valueMismatch(v, b.Type())
		}
		b.Append(x)

	case *array.StringBuilder:
		switch x := v.(type) {
		case string:
			b.Append(x)
		case []byte:
			if !utf8.Valid(x) {
				return errors.New(errors.ErrorTypeSchemaMismatch, "bytes value is not valid UTF-8")
			}
			b.Append(string(x))
		default:
			return valueMismatch(v, b.Type())
		}

	case *array.BinaryBuilder:
		switch x := v.(type) {
		case []byte:
			b.Append(x)
		case string:
			b.AppendString(x)
		default:
			return valueMismatch(v, b.Type())
		}

	case *array.FixedSizeBinaryBuilder:
		var raw []byte
		switch x := v.(type) {
		case []byte:
			raw = x
		case string:
			raw = []byte(x)
		default:
			return valueMismatch(v, b.Type())
		}
		width := b.Type().(*arrow.FixedSizeBinaryType).ByteWidth
		if len(raw) != width {
			return errors.Newf(errors.ErrorTypeFixedWidth, "value of length %d does not match fixed width %d", len(raw), width).
				WithDetail("width", width).
				WithDetail("length", len(raw))
		}
		b.Append(raw)

	case *array.Decimal128Builder:
		num, err := packDecimal(v, b.Type().(*arrow.Decimal128Type))
		if err != nil {
			return err
		}
		b.Append(num)

	case *array.Date32Builder:
		x, err := packNarrow(v, b.Type())
		if err != nil {
			return err
		}
		b.Append(arrow.Date32(x))
	case *array.Date64Builder:
		x, err := packTemporalValue(v, b.Type())
		if err != nil {
			return err
		}
		b.Append(arrow.Date64(x))
	case *array.Time32Builder:
		x, err := packNarrow(v, b.Type())
		if err != nil {
			return err
		}
		b.Append(arrow.Time32(x))
	case *array.Time64Builder:
		x, err := packTemporalValue(v, b.Type())
		if err != nil {
			return err
		}
		b.Append(arrow.Time64(x))
	case *array.TimestampBuilder:
		x, err := packTemporalValue(v, b.Type())
		if err != nil {
			return err
		}
		b.Append(arrow.Timestamp(x))

	case *array.ListBuilder:
		return appendList(b, v)
	case *array.StructBuilder:
		return appendStruct(b, v)

	case *array.NullBuilder:
		return errors.Newf(errors.ErrorTypeSchemaMismatch, "cannot store %T value in a null column", v)

	default:
		return errors.Newf(errors.ErrorTypeSchemaMismatch, "unsupported target type %s", b.Type())
	}
	return nil
}

type typedBuilder interface {
	Type() arrow.DataType
}

func appendNumber[D primitive](b typedBuilder, v any, appendFn func(D)) error {
	if _, isBool := v.(bool); isBool {
		return valueMismatch(v, b.Type())
	}
	d, ok := objectNumber[D](v)
	if !ok {
		if _, numeric := frame.AsFloat64(v); numeric {
			return errors.Newf(errors.ErrorTypeSchemaMismatch, "value %v does not fit %s", v, b.Type())
		}
		return valueMismatch(v, b.Type())
	}
	appendFn(d)
	return nil
}

// packNarrow packs a temporal value whose physical type is 32 bits wide.
func packNarrow(v any, dt arrow.DataType) (int32, error) {
	x, err := packTemporalValue(v, dt)
	if err != nil {
		return 0, err
	}
	if x < math.MinInt32 || x > math.MaxInt32 {
		return 0, errors.Newf(errors.ErrorTypeInvalid, "value %d out of range for %s", x, dt)
	}
	return int32(x), nil
}

func valueMismatch(v any, dt arrow.DataType) *errors.Error {
	return errors.Newf(errors.ErrorTypeSchemaMismatch, "cannot convert %T value to %s", v, dt).
		WithDetail("type", dt.String())
}
