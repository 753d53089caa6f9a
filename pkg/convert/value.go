package convert

import (
	"bytes"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
)

// getValue materializes slot i of arr as a dynamic value, nil when null.
// Dictionary indices must have been validated by ValidateIndices.
func getValue(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(i)
	case *array.Int8:
		return a.Value(i)
	case *array.Int16:
		return a.Value(i)
	case *array.Int32:
		return a.Value(i)
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return a.Value(i)
	case *array.Uint16:
		return a.Value(i)
	case *array.Uint32:
		return a.Value(i)
	case *array.Uint64:
		return a.Value(i)
	case *array.Float32:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.String:
		return strings.Clone(a.Value(i))
	case *array.Binary:
		return bytes.Clone(a.Value(i))
	case *array.FixedSizeBinary:
		return bytes.Clone(a.Value(i))
	case *array.Decimal128:
		return unpackDecimal(a.Value(i), a.DataType().(*arrow.Decimal128Type).Scale)
	case *array.Date32:
		return temporalValue(int64(a.Value(i)), a.DataType(), nil)
	case *array.Date64:
		return temporalValue(int64(a.Value(i)), a.DataType(), nil)
	case *array.Time32:
		return temporalValue(int64(a.Value(i)), a.DataType(), nil)
	case *array.Time64:
		return temporalValue(int64(a.Value(i)), a.DataType(), nil)
	case *array.Timestamp:
		return temporalValue(int64(a.Value(i)), a.DataType(), zoneOf(a.DataType()))
	case *array.List:
		return listValue(a, i)
	case *array.Struct:
		return structValue(a, i)
	case *array.Dictionary:
		return getValue(a.Dictionary(), a.GetValueIndex(i))
	}
	return nil
}

// checkSupported rejects types the engine cannot materialize before any
// value is read. Durations fail as not implemented.
func checkSupported(dt arrow.DataType) error {
	switch t := dt.(type) {
	case *arrow.NullType, *arrow.BooleanType,
		*arrow.Int8Type, *arrow.Int16Type, *arrow.Int32Type, *arrow.Int64Type,
		*arrow.Uint8Type, *arrow.Uint16Type, *arrow.Uint32Type, *arrow.Uint64Type,
		*arrow.Float32Type, *arrow.Float64Type,
		*arrow.StringType, *arrow.BinaryType, *arrow.FixedSizeBinaryType,
		*arrow.Decimal128Type,
		*arrow.Date32Type, *arrow.Date64Type, *arrow.Time32Type, *arrow.Time64Type, *arrow.TimestampType:
		return nil
	case *arrow.ListType:
		return checkSupported(t.Elem())
	case *arrow.StructType:
		for _, f := range t.Fields() {
			if err := checkSupported(f.Type); err != nil {
				return err
			}
		}
		return nil
	case *arrow.DictionaryType:
		return checkSupported(t.ValueType)
	case *arrow.DurationType:
		return errors.Wrap(errors.ErrNotImplemented, errors.ErrorTypeTypeInference, "duration columns").
			WithDetail("type", dt.String())
	}
	return errors.Newf(errors.ErrorTypeTypeInference, "unsupported type %s", dt).
		WithDetail("type", dt.String())
}
