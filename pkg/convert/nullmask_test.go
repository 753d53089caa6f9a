package convert

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
)

func TestResolveNullsCombinesMaskAndSentinels(t *testing.T) {
	s := frame.NewNumeric("x", []float64{1, math.NaN(), 3, 4})
	m, err := ResolveNulls(s, []bool{false, false, true, false})
	require.NoError(t, err)
	defer m.Release()

	assert.Equal(t, 4, m.Len())
	assert.Equal(t, 2, m.NullN())
	assert.Equal(t, []bool{true, false, false, true}, m.Valid())
	assert.True(t, m.IsNull(1))
	assert.True(t, m.IsNull(2))
}

func TestResolveNullsMaskLength(t *testing.T) {
	s := frame.NewNumeric("x", []int64{1, 2, 3})
	_, err := ResolveNulls(s, []bool{true})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchemaMismatch))
}

func TestNullMaskWithoutNulls(t *testing.T) {
	m, err := ResolveNulls(frame.NewNumeric("x", []int32{1, 2}), nil)
	require.NoError(t, err)
	defer m.Release()

	assert.Nil(t, m.Valid())
	assert.Nil(t, m.Bitmap(memory.NewGoAllocator()))
}

func TestNullMaskSliceAndBitmap(t *testing.T) {
	mem := checkedAllocator(t)
	s := frame.NewObject("x", []any{"a", nil, "c", nil, "e"})
	m, err := ResolveNulls(s, nil)
	require.NoError(t, err)
	defer m.Release()

	tail := m.Slice(2, 5)
	assert.Equal(t, 3, tail.Len())
	assert.Equal(t, 1, tail.NullN())

	buf := m.Bitmap(mem)
	require.NotNil(t, buf)
	defer buf.Release()
	for i := 0; i < m.Len(); i++ {
		assert.Equal(t, !m.IsNull(i), bitutil.BitIsSet(buf.Bytes(), i), "row %d", i)
	}
}
