package convert

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
)

// MaxDecimalPrecision is the widest precision any tier can hold.
const MaxDecimalPrecision = 38

// DecimalTier returns the storage width, in bits, of the smallest tier that
// holds precision digits: 32 bits up to 9 digits, 64 up to 18, 128 up to 38.
func DecimalTier(precision int32) (int, error) {
	switch {
	case precision < 1:
		return 0, errors.Newf(errors.ErrorTypeTypeInference, "decimal precision %d must be positive", precision)
	case precision <= 9:
		return 32, nil
	case precision <= 18:
		return 64, nil
	case precision <= MaxDecimalPrecision:
		return 128, nil
	}
	return 0, errors.Newf(errors.ErrorTypeTypeInference, "decimal precision %d exceeds the maximum of %d", precision, MaxDecimalPrecision).
		WithDetail("precision", precision)
}

// inferDecimalType fixes precision and scale for a whole column. Every tier
// is stored physically as decimal128.
func inferDecimalType(precision, scale int32) (arrow.DataType, error) {
	if precision < 1 {
		precision = 1
	}
	if _, err := DecimalTier(precision); err != nil {
		return nil, err
	}
	return &arrow.Decimal128Type{Precision: precision, Scale: scale}, nil
}

// InferDecimal returns the precision and scale that hold every non-null
// value: scale is the largest fractional digit count, precision the largest
// integer digit count plus scale.
func InferDecimal(values []decimal.Decimal) (precision, scale int32, err error) {
	var intDigits int32
	for _, d := range values {
		digits, s := decimalShape(d)
		if digits-s > intDigits {
			intDigits = digits - s
		}
		if s > scale {
			scale = s
		}
	}
	precision = intDigits + scale
	if precision < 1 {
		precision = 1
	}
	if _, err := DecimalTier(precision); err != nil {
		return 0, 0, err
	}
	return precision, scale, nil
}

// packDecimal converts v to its unscaled integer at dt's precision and
// scale. Values that would need rounding or more digits fail.
func packDecimal(v any, dt *arrow.Decimal128Type) (decimal128.Num, error) {
	var d decimal.Decimal
	switch x := v.(type) {
	case decimal.Decimal:
		d = x
	case string:
		parsed, err := decimal.NewFromString(x)
		if err != nil {
			return decimal128.Num{}, errors.Wrap(err, errors.ErrorTypeSchemaMismatch, "cannot convert string to decimal")
		}
		d = parsed
	default:
		i, ok := frame.AsInt64(v)
		if !ok {
			return decimal128.Num{}, errors.Newf(errors.ErrorTypeSchemaMismatch, "cannot convert %T value to %s", v, dt)
		}
		d = decimal.NewFromInt(i)
	}

	if !d.Truncate(dt.Scale).Equal(d) {
		return decimal128.Num{}, errors.Newf(errors.ErrorTypeSchemaMismatch, "decimal %s does not fit scale %d without rounding", d, dt.Scale).
			WithDetail("scale", dt.Scale)
	}
	unscaled := d.Shift(dt.Scale).BigInt()
	if digits := int32(len(strings.TrimPrefix(unscaled.String(), "-"))); unscaled.Sign() != 0 && digits > dt.Precision {
		return decimal128.Num{}, errors.Newf(errors.ErrorTypeSchemaMismatch, "decimal %s needs %d digits, precision is %d", d, digits, dt.Precision).
			WithDetail("precision", dt.Precision)
	}
	return decimal128.FromBigInt(unscaled), nil
}

// unpackDecimal restores the exact decimal value of an unscaled integer.
func unpackDecimal(n decimal128.Num, scale int32) decimal.Decimal {
	return decimal.NewFromBigInt(n.BigInt(), -scale)
}
