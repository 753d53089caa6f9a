package convert

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/arrowframe/pkg/frame"
)

// checkedAllocator fails the test if any buffer is still allocated when the
// test ends.
func checkedAllocator(t *testing.T) *memory.CheckedAllocator {
	t.Helper()
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	t.Cleanup(func() { mem.AssertSize(t, 0) })
	return mem
}

// testOptions returns the options every test conversion uses.
func testOptions(t *testing.T, mem memory.Allocator, extra ...Option) []Option {
	opts := []Option{WithAllocator(mem), WithLogger(zaptest.NewLogger(t)), WithMetrics(false)}
	return append(opts, extra...)
}

// roundTrip converts df to a table and back.
func roundTrip(t *testing.T, df *frame.Frame, opts ...Option) *frame.Frame {
	t.Helper()
	mem := checkedAllocator(t)

	tbl, err := TableFromFrame(df, testOptions(t, mem, opts...)...)
	require.NoError(t, err)
	defer tbl.Release()

	back, err := TableToFrame(tbl, testOptions(t, mem, opts...)...)
	require.NoError(t, err)
	return back
}

// seriesRoundTrip converts s to an array and back, restoring its name.
func seriesRoundTrip(t *testing.T, s *frame.Series, opts ...Option) *frame.Series {
	t.Helper()
	mem := checkedAllocator(t)

	arr, err := ArrayFromSeries(s, testOptions(t, mem, opts...)...)
	require.NoError(t, err)
	defer arr.Release()

	back, err := ArrayToSeries(arr, testOptions(t, mem)...)
	require.NoError(t, err)
	return back.Rename(s.Name())
}

// arrayOf converts s with the given options and fails the test on error.
func arrayOf(t *testing.T, mem memory.Allocator, s *frame.Series, opts ...Option) arrow.Array {
	t.Helper()
	arr, err := ArrayFromSeries(s, testOptions(t, mem, opts...)...)
	require.NoError(t, err)
	return arr
}

func assertSeriesEqual(t *testing.T, want, got *frame.Series) {
	t.Helper()
	require.Equal(t, want.Dtype(), got.Dtype(), "dtype")
	require.Equal(t, want.Len(), got.Len(), "length")
	for i := 0; i < want.Len(); i++ {
		require.Equal(t, want.IsNull(i), got.IsNull(i), "null at row %d", i)
		if !want.IsNull(i) {
			require.True(t, frame.ValuesEqual(want.Value(i), got.Value(i)),
				"row %d: want %#v, got %#v", i, want.Value(i), got.Value(i))
		}
	}
	require.True(t, want.Equal(got))
}
