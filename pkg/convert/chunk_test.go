package convert

import (
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
)

func fixedRows(size int64) func(int) int64 {
	return func(int) int64 { return size }
}

func TestPlanChunks(t *testing.T) {
	tests := []struct {
		name    string
		sizer   func(int) int64
		n       int
		ceiling int64
		want    []Range
	}{
		{"empty", fixedRows(4), 0, 10, []Range{{0, 0}}},
		{"unsplittable", nil, 7, 1, []Range{{0, 7}}},
		{"fits", fixedRows(4), 2, 8, []Range{{0, 2}}},
		{"even split", fixedRows(4), 10, 10, []Range{{0, 2}, {2, 4}, {4, 6}, {6, 8}, {8, 10}}},
		{"zero width rows", fixedRows(0), 3, 1, []Range{{0, 3}}},
		{"uneven", func(i int) int64 { return []int64{3, 3, 5, 1, 1}[i] }, 5, 6, []Range{{0, 2}, {2, 5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlanChunks(tt.sizer, tt.n, tt.ceiling)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlanChunksRowTooLarge(t *testing.T) {
	_, err := PlanChunks(func(i int) int64 { return int64(i * 10) }, 3, 15)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCapacity))
	row, _ := errDetail(err, "row")
	assert.Equal(t, 2, row)
}

func TestAlignPlans(t *testing.T) {
	got := AlignPlans([][]Range{
		{{0, 4}, {4, 10}},
		{{0, 6}, {6, 10}},
		{{0, 10}},
	})
	assert.Equal(t, []Range{{0, 4}, {4, 6}, {6, 10}}, got)
	assert.Nil(t, AlignPlans(nil))
	assert.Equal(t, []Range{{0, 3}}, AlignPlans([][]Range{{{0, 3}}}))
}

func TestChunkedFromSeriesSplitsAtCeiling(t *testing.T) {
	mem := checkedAllocator(t)
	values := make([]string, 10)
	for i := range values {
		values[i] = strings.Repeat(string(rune('a'+i)), 4)
	}
	s := frame.NewStrings("s", values...)

	ch, err := ChunkedFromSeries(s, testOptions(t, mem, WithChunkCeiling(10))...)
	require.NoError(t, err)
	defer ch.Release()
	require.Len(t, ch.Chunks(), 5)
	for _, c := range ch.Chunks() {
		assert.Equal(t, 2, c.Len())
	}

	whole := arrayOf(t, mem, s)
	defer whole.Release()
	joined, err := array.Concatenate(ch.Chunks(), mem)
	require.NoError(t, err)
	defer joined.Release()
	assert.True(t, array.Equal(whole, joined))

	back, err := ChunkedToSeries(ch, testOptions(t, mem)...)
	require.NoError(t, err)
	assertSeriesEqual(t, s, back.Rename("s"))

	_, err = ArrayFromSeries(s, testOptions(t, mem, WithChunkCeiling(10))...)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCapacity))
}

func TestChunkedFixedWidthSplit(t *testing.T) {
	mem := checkedAllocator(t)
	s := frame.NewNumeric("x", []int32{1, 2, 3, 4, 5})

	ch, err := ChunkedFromSeries(s, testOptions(t, mem, WithChunkCeiling(8), WithMask([]bool{false, false, true, false, false}))...)
	require.NoError(t, err)
	defer ch.Release()
	require.Len(t, ch.Chunks(), 3)
	assert.Equal(t, 1, ch.Chunk(1).NullN())

	back, err := ChunkedToSeries(ch, testOptions(t, mem)...)
	require.NoError(t, err)
	assert.Equal(t, frame.Float64, back.Dtype())
	assert.True(t, back.IsNull(2))
	assert.Equal(t, 5.0, back.Value(4))
}

func TestChunkedEmptySeries(t *testing.T) {
	mem := checkedAllocator(t)
	ch, err := ChunkedFromSeries(frame.NewNumeric("x", []float64{}), testOptions(t, mem)...)
	require.NoError(t, err)
	defer ch.Release()
	require.Len(t, ch.Chunks(), 1)
	assert.Equal(t, 0, ch.Len())
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Float64, ch.DataType()))
}

func TestChunkedNestedSplit(t *testing.T) {
	row := []any{"abcdefgh", "abcdefgh"}
	lists := make([]any, 20)
	structs := make([]any, 20)
	for i := range lists {
		lists[i] = row
		structs[i] = map[string]any{"k": "abcdefgh"}
	}
	structs[3] = nil

	tests := []struct {
		name   string
		s      *frame.Series
		chunks int
	}{
		{"list", frame.NewObject("l", lists), 10},
		{"struct", frame.NewObject("st", structs), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := checkedAllocator(t)
			ch, err := ChunkedFromSeries(tt.s, testOptions(t, mem, WithChunkCeiling(32))...)
			require.NoError(t, err)
			defer ch.Release()
			assert.Len(t, ch.Chunks(), tt.chunks)
			assert.Equal(t, 20, ch.Len())

			back, err := ChunkedToSeries(ch, testOptions(t, mem)...)
			require.NoError(t, err)
			assertSeriesEqual(t, tt.s, back.Rename(tt.s.Name()))
		})
	}
}

func TestChunkedDictionarySplit(t *testing.T) {
	mem := checkedAllocator(t)
	codes := []int8{0, 1, 2, 0, -1, 1, 2, 0, 1, 2}
	c := frame.NewCategorical(codes, frame.NewStrings(nil, "a", "b", "c"), false)
	s := frame.NewCategoricalSeries("c", c)

	ch, err := ChunkedFromSeries(s, testOptions(t, mem, WithChunkCeiling(4))...)
	require.NoError(t, err)
	defer ch.Release()
	require.Len(t, ch.Chunks(), 3)
	assert.Equal(t, 2, ch.Chunk(2).Len())

	back, err := ChunkedToSeries(ch, testOptions(t, mem)...)
	require.NoError(t, err)
	assertSeriesEqual(t, s, back.Rename("c"))
}

func TestRowSizerNested(t *testing.T) {
	dt := arrow.StructOf(
		arrow.Field{Name: "tags", Type: arrow.ListOf(arrow.BinaryTypes.String), Nullable: true},
		arrow.Field{Name: "n", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	)
	v := map[string]any{"tags": []any{"ab", nil, "cde"}, "n": int32(7)}
	assert.Equal(t, int64(9), valueBytes(v, dt))
	assert.Equal(t, int64(0), valueBytes(nil, dt))

	s := frame.NewObject("x", []any{nil})
	assert.Nil(t, rowSizer(s, arrow.Null, nil))
}
