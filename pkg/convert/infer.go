package convert

import (
	"math"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
)

// InferType derives the Arrow type of a series. Typed series map directly
// from their dtype; object series are scanned value by value, skipping
// missing values, and fail with a type_inference error when the values do
// not reconcile into one type.
func InferType(s *frame.Series) (arrow.DataType, error) {
	dt := s.Dtype()
	switch dt.Kind {
	case frame.KindBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case frame.KindInt8:
		return arrow.PrimitiveTypes.Int8, nil
	case frame.KindInt16:
		return arrow.PrimitiveTypes.Int16, nil
	case frame.KindInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case frame.KindInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case frame.KindUint8:
		return arrow.PrimitiveTypes.Uint8, nil
	case frame.KindUint16:
		return arrow.PrimitiveTypes.Uint16, nil
	case frame.KindUint32:
		return arrow.PrimitiveTypes.Uint32, nil
	case frame.KindUint64:
		return arrow.PrimitiveTypes.Uint64, nil
	case frame.KindFloat32:
		return arrow.PrimitiveTypes.Float32, nil
	case frame.KindFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case frame.KindDatetime64:
		if dt.Unit == frame.Day {
			return arrow.FixedWidthTypes.Date32, nil
		}
		return timestampType(dt.Unit, dt.TZ)
	case frame.KindTimedelta64:
		return nil, errors.Wrap(errors.ErrNotImplemented, errors.ErrorTypeTypeInference, "timedelta64 columns").
			WithDetail("dtype", dt.String())
	case frame.KindCategory:
		return inferDictionary(s.Categorical())
	case frame.KindObject:
		values, _ := s.Objects()
		return inferValues(values)
	}
	return nil, errors.Newf(errors.ErrorTypeTypeInference, "unsupported dtype %s", dt)
}

func inferDictionary(c *frame.Categorical) (arrow.DataType, error) {
	valueType, err := InferType(c.Categories())
	if err != nil {
		return nil, err
	}
	return &arrow.DictionaryType{
		IndexType: indexTypeForBits(c.CodeBits()),
		ValueType: valueType,
		Ordered:   c.Ordered(),
	}, nil
}

func indexTypeForBits(bits int) arrow.DataType {
	switch bits {
	case 8:
		return arrow.PrimitiveTypes.Int8
	case 16:
		return arrow.PrimitiveTypes.Int16
	case 32:
		return arrow.PrimitiveTypes.Int32
	}
	return arrow.PrimitiveTypes.Int64
}

// valueKind classifies a single non-null object value.
type valueKind int

const (
	kindBool valueKind = iota
	kindInt
	kindFloat
	kindString
	kindBytes
	kindDate
	kindTime
	kindTimestamp
	kindDecimal
	kindSequence
	kindMapping
	numValueKinds
)

var valueKindNames = [numValueKinds]string{
	"bool", "int", "float", "str", "bytes", "date", "time", "datetime", "decimal", "sequence", "mapping",
}

func classify(v any) (valueKind, error) {
	switch v.(type) {
	case bool:
		return kindBool, nil
	case float32, float64:
		return kindFloat, nil
	case string:
		return kindString, nil
	case []byte:
		return kindBytes, nil
	case civil.Date:
		return kindDate, nil
	case civil.Time:
		return kindTime, nil
	case time.Time:
		return kindTimestamp, nil
	case decimal.Decimal:
		return kindDecimal, nil
	case map[string]any:
		return kindMapping, nil
	case time.Duration:
		return 0, errors.Wrap(errors.ErrNotImplemented, errors.ErrorTypeTypeInference, "timedelta values")
	}
	if frame.IsInteger(v) {
		return kindInt, nil
	}
	if _, ok := frame.AsSequence(v); ok {
		return kindSequence, nil
	}
	return 0, errors.Newf(errors.ErrorTypeTypeInference, "unsupported value type %T", v)
}

// objectScan accumulates what inference needs from one pass over values.
type objectScan struct {
	counts [numValueKinds]int

	negative    bool
	beyondInt64 bool
	intDigits   int32
	scale       int32
	subMicro    bool
	zone        string
	zoneSet     bool
	mixedZones  bool
	zoneErr     error
	elements    []any
	fieldOrder  []string
	fieldValues map[string][]any
}

func inferValues(values []any) (arrow.DataType, error) {
	var scan objectScan
	for _, v := range values {
		if frame.IsNullValue(v) {
			continue
		}
		k, err := classify(v)
		if err != nil {
			return nil, err
		}
		scan.counts[k]++
		scan.observe(k, v)
	}
	return scan.resolve()
}

func (sc *objectScan) observe(k valueKind, v any) {
	switch k {
	case kindInt:
		if i, ok := frame.AsInt64(v); ok {
			sc.negative = sc.negative || i < 0
		} else {
			sc.beyondInt64 = true
		}
	case kindDecimal:
		d := v.(decimal.Decimal)
		digits, scale := decimalShape(d)
		if digits-scale > sc.intDigits {
			sc.intDigits = digits - scale
		}
		if scale > sc.scale {
			sc.scale = scale
		}
	case kindTime:
		if v.(civil.Time).Nanosecond%1000 != 0 {
			sc.subMicro = true
		}
	case kindTimestamp:
		name, err := zoneName(v.(time.Time))
		if err != nil {
			if sc.zoneErr == nil {
				sc.zoneErr = err
			}
			return
		}
		if !sc.zoneSet {
			sc.zone, sc.zoneSet = name, true
		} else if name != sc.zone {
			sc.mixedZones = true
		}
	case kindSequence:
		seq, _ := frame.AsSequence(v)
		sc.elements = append(sc.elements, seq...)
	case kindMapping:
		m := v.(map[string]any)
		if sc.fieldValues == nil {
			sc.fieldValues = make(map[string][]any)
		}
		keys := make([]string, 0, len(m))
		for key := range m {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if _, ok := sc.fieldValues[key]; !ok {
				sc.fieldOrder = append(sc.fieldOrder, key)
				sc.fieldValues[key] = nil
			}
			sc.fieldValues[key] = append(sc.fieldValues[key], m[key])
		}
	}
}

func (sc *objectScan) resolve() (arrow.DataType, error) {
	var present []string
	for k, n := range sc.counts {
		if n > 0 {
			present = append(present, valueKindNames[k])
		}
	}
	if len(present) == 0 {
		return arrow.Null, nil
	}

	c := sc.counts
	numeric := c[kindInt] + c[kindFloat]
	text := c[kindString] + c[kindBytes]
	switch {
	case c[kindBool] > 0 && numeric > 0:
		return nil, mixedError("cannot mix bool and numeric values", present)
	case c[kindString] > 0 && len(present) > 1 && text != sum(c[:]):
		return nil, mixedError("cannot mix str with non-str values", present)
	case len(present) > 1 && numeric != sum(c[:]) && text != sum(c[:]):
		return nil, mixedError("cannot mix "+strings.Join(present, " and ")+" values", present)
	}

	switch {
	case c[kindBool] > 0:
		return arrow.FixedWidthTypes.Boolean, nil
	case c[kindFloat] > 0:
		return arrow.PrimitiveTypes.Float64, nil
	case c[kindInt] > 0:
		if !sc.beyondInt64 {
			return arrow.PrimitiveTypes.Int64, nil
		}
		if sc.negative {
			return nil, errors.New(errors.ErrorTypeTypeInference, "integer values do not fit int64 or uint64")
		}
		return arrow.PrimitiveTypes.Uint64, nil
	case c[kindBytes] > 0:
		return arrow.BinaryTypes.Binary, nil
	case c[kindString] > 0:
		return arrow.BinaryTypes.String, nil
	case c[kindDate] > 0:
		return arrow.FixedWidthTypes.Date32, nil
	case c[kindTime] > 0:
		if sc.subMicro {
			return arrow.FixedWidthTypes.Time64ns, nil
		}
		return arrow.FixedWidthTypes.Time64us, nil
	case c[kindTimestamp] > 0:
		if sc.zoneErr != nil {
			return nil, sc.zoneErr
		}
		if sc.mixedZones {
			return nil, errors.New(errors.ErrorTypeTypeInference, "datetime values carry different time zones")
		}
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: sc.zone}, nil
	case c[kindDecimal] > 0:
		return inferDecimalType(sc.intDigits+sc.scale, sc.scale)
	case c[kindSequence] > 0:
		elem, err := inferValues(sc.elements)
		if err != nil {
			return nil, err
		}
		return arrow.ListOf(elem), nil
	}

	fields := make([]arrow.Field, len(sc.fieldOrder))
	for i, name := range sc.fieldOrder {
		dt, err := inferValues(sc.fieldValues[name])
		if err != nil {
			return nil, errors.Wrap(err, errors.TypeOf(err), "struct field "+name)
		}
		fields[i] = arrow.Field{Name: name, Type: dt, Nullable: true}
	}
	return arrow.StructOf(fields...), nil
}

func sum(counts []int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

func mixedError(msg string, present []string) *errors.Error {
	return errors.New(errors.ErrorTypeTypeInference, msg).WithDetail("kinds", present)
}

// zoneName returns the timezone recorded for a time value; UTC values are
// treated as zone-naive. Unnamed fixed zones and the machine zone are
// recorded as their offset. Names that do not resolve fail.
func zoneName(t time.Time) (string, error) {
	loc := t.Location()
	if loc == time.UTC {
		return "", nil
	}
	name := loc.String()
	if name == "" || loc == time.Local {
		_, off := t.Zone()
		name = frame.FormatOffset(off)
	}
	if _, err := timestampType(frame.Microsecond, name); err != nil {
		return "", err
	}
	if name == "UTC" {
		return "", nil
	}
	return name, nil
}

// decimalShape returns the total digit count and the scale of d, where
// digits counts the integer part as zero digits when it is zero.
func decimalShape(d decimal.Decimal) (digits, scale int32) {
	exp := d.Exponent()
	coefficient := d.Coefficient()
	n := int32(len(strings.TrimPrefix(coefficient.String(), "-")))
	if exp >= 0 {
		return n + exp, 0
	}
	scale = -exp
	if n < scale {
		return scale, scale
	}
	return n, scale
}

// isIntegral reports whether f holds a whole number.
func isIntegral(f float64) bool {
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}
