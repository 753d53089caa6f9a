package convert

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
)

func TestDecimalTier(t *testing.T) {
	tests := []struct {
		precision int32
		bits      int
	}{
		{1, 32}, {9, 32}, {10, 64}, {18, 64}, {19, 128}, {38, 128},
	}
	for _, tt := range tests {
		bits, err := DecimalTier(tt.precision)
		require.NoError(t, err)
		assert.Equal(t, tt.bits, bits, "precision %d", tt.precision)
	}

	_, err := DecimalTier(39)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTypeInference))
	_, err = DecimalTier(0)
	assert.Error(t, err)
}

func TestInferDecimalTooWide(t *testing.T) {
	wide := decimal.RequireFromString("123456789012345678901234567890.123456789")
	_, _, err := InferDecimal([]decimal.Decimal{wide})
	assert.Error(t, err)

	precision, scale, err := InferDecimal([]decimal.Decimal{decimal.Zero})
	require.NoError(t, err)
	assert.Equal(t, int32(1), precision)
	assert.Equal(t, int32(0), scale)
}

func TestPackDecimal(t *testing.T) {
	dt := &arrow.Decimal128Type{Precision: 5, Scale: 2}

	num, err := packDecimal(decimal.RequireFromString("-123.4"), dt)
	require.NoError(t, err)
	assert.Equal(t, "-12340", num.BigInt().String())

	num, err = packDecimal(int64(7), dt)
	require.NoError(t, err)
	assert.Equal(t, "700", num.BigInt().String())

	num, err = packDecimal("1.25", dt)
	require.NoError(t, err)
	assert.Equal(t, "125", num.BigInt().String())

	_, err = packDecimal(decimal.RequireFromString("1.234"), dt)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchemaMismatch))

	_, err = packDecimal(decimal.RequireFromString("1234"), dt)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchemaMismatch))

	_, err = packDecimal("not a number", dt)
	assert.Error(t, err)
	_, err = packDecimal(1.5, dt)
	assert.Error(t, err)
}

func TestDecimalRoundTrip(t *testing.T) {
	s := frame.NewObject("d", []any{
		decimal.RequireFromString("-1234.123"),
		nil,
		decimal.RequireFromString("1234.439"),
		decimal.RequireFromString("0.5"),
	})
	got := seriesRoundTrip(t, s)
	assertSeriesEqual(t, s, got)

	d, ok := got.Value(3).(decimal.Decimal)
	require.True(t, ok)
	assert.Equal(t, "0.5", d.String())
}

func TestDecimalExplicitType(t *testing.T) {
	mem := checkedAllocator(t)
	s := frame.NewObject("d", []any{decimal.RequireFromString("1.5")})

	_, err := ArrayFromSeries(s, testOptions(t, mem, WithType(&arrow.Decimal128Type{Precision: 3, Scale: 0}))...)
	require.Error(t, err)
	col, _ := errDetail(err, "column")
	assert.Equal(t, "d", col)
	row, _ := errDetail(err, "row")
	assert.Equal(t, 0, row)
}

// errDetail returns a detail of the outermost structured error in err.
func errDetail(err error, key string) (any, bool) {
	var e *errors.Error
	if !errors.As(err, &e) {
		return nil, false
	}
	return e.Detail(key)
}
