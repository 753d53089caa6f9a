package convert

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
)

func mixedFrame(t *testing.T) *frame.Frame {
	t.Helper()
	c := frame.NewCategorical([]int8{0, 1, -1}, frame.NewStrings(nil, "lo", "hi"), false)
	df, err := frame.New([]*frame.Series{
		frame.NewNumeric("int", []int64{1, 2, 3}),
		frame.NewNumeric("float", []float64{0.5, math.NaN(), -2}),
		frame.NewBool("bool", []bool{true, false, true}),
		frame.NewStrings("str", "a", "", "c"),
		frame.NewObject("obj", []any{"x", nil, "z"}),
		frame.NewDatetime("ts", frame.Nanosecond, "Europe/Berlin", []int64{0, frame.NaT, 1e18}),
		frame.NewCategoricalSeries("cat", c),
		frame.NewObject("dec", []any{decimal.RequireFromString("1.10"), nil, decimal.RequireFromString("-3")}),
		frame.NewObject("list", []any{[]any{int64(1)}, nil, []any{}}),
		frame.NewObject("struct", []any{map[string]any{"k": "v"}, map[string]any{"k": nil}, nil}),
	})
	require.NoError(t, err)
	return df
}

func TestTableRoundTrip(t *testing.T) {
	df := mixedFrame(t)
	back := roundTrip(t, df)

	require.Equal(t, df.NumCols(), back.NumCols())
	require.Equal(t, df.NumRows(), back.NumRows())
	for i := range df.Columns() {
		assertSeriesEqual(t, df.Column(i), back.Column(i))
	}
	assert.True(t, df.Equal(back))
}

func TestTableRoundTripParallel(t *testing.T) {
	var cols []*frame.Series
	for i := 0; i < 16; i++ {
		cols = append(cols, frame.NewNumeric(fmt.Sprintf("c%02d", i), []int64{int64(i), int64(i * 2)}))
	}
	df := frame.MustNew(cols)
	mem := checkedAllocator(t)

	tbl, err := TableFromFrame(df, testOptions(t, mem, WithThreads(4))...)
	require.NoError(t, err)
	defer tbl.Release()

	for i := 0; i < 16; i++ {
		assert.Equal(t, fmt.Sprintf("c%02d", i), tbl.Schema().Field(i).Name)
	}

	back, err := TableToFrame(tbl, testOptions(t, mem, WithThreads(0))...)
	require.NoError(t, err)
	assert.True(t, df.Equal(back))
}

func TestTableDuplicateColumnNames(t *testing.T) {
	mem := checkedAllocator(t)
	df := frame.MustNew([]*frame.Series{
		frame.NewNumeric("a", []int64{1}),
		frame.NewNumeric("a", []int64{2}),
	})

	_, err := TableFromFrame(df, testOptions(t, mem)...)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchemaMismatch))
	assert.Contains(t, err.Error(), "duplicate")
}

func TestTablePartialSchema(t *testing.T) {
	mem := checkedAllocator(t)
	df := frame.MustNew([]*frame.Series{
		frame.NewNumeric("a", []int64{1, 2}),
		frame.NewStrings("b", "x", "y"),
		frame.NewNumeric("c", []int64{3, 4}),
	})
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "c", Type: arrow.PrimitiveTypes.Int32, Nullable: false},
		{Name: "a", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)

	tbl, err := TableFromFrame(df, testOptions(t, mem, WithSchema(schema))...)
	require.NoError(t, err)
	defer tbl.Release()

	got := tbl.Schema()
	require.Equal(t, 3, got.NumFields())
	assert.Equal(t, "c", got.Field(0).Name)
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int32, got.Field(0).Type))
	assert.False(t, got.Field(0).Nullable)
	assert.Equal(t, "a", got.Field(1).Name)
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Float64, got.Field(1).Type))
	assert.Equal(t, "b", got.Field(2).Name)
	assert.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, got.Field(2).Type))
}

func TestTableSchemaFieldWithoutColumn(t *testing.T) {
	mem := checkedAllocator(t)
	df := frame.MustNew([]*frame.Series{frame.NewNumeric("a", []int64{1})})
	schema := arrow.NewSchema([]arrow.Field{{Name: "zz", Type: arrow.PrimitiveTypes.Int64}}, nil)

	_, err := TableFromFrame(df, testOptions(t, mem, WithSchema(schema))...)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchemaMismatch))
}

func TestTableNonNullableFieldWithNulls(t *testing.T) {
	mem := checkedAllocator(t)
	df := frame.MustNew([]*frame.Series{frame.NewNumeric("a", []float64{1, math.NaN()})})
	schema := arrow.NewSchema([]arrow.Field{{Name: "a", Type: arrow.PrimitiveTypes.Float64, Nullable: false}}, nil)

	_, err := TableFromFrame(df, testOptions(t, mem, WithSchema(schema))...)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchemaMismatch))
	col, _ := errDetail(err, "column")
	assert.Equal(t, "a", col)
}

func TestTableColumnErrorNamesColumn(t *testing.T) {
	mem := checkedAllocator(t)
	df := frame.MustNew([]*frame.Series{
		frame.NewNumeric("ok", []int64{1, 2}),
		frame.NewObject("bad", []any{"a", 1}),
	})

	_, err := TableFromFrame(df, testOptions(t, mem, WithThreads(2))...)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTypeInference))
	col, _ := errDetail(err, "column")
	assert.Equal(t, "bad", col)
}

func TestTableTimedeltaNotImplemented(t *testing.T) {
	mem := checkedAllocator(t)
	df := frame.MustNew([]*frame.Series{frame.NewTimedelta("d", frame.Millisecond, []int64{1})})

	_, err := TableFromFrame(df, testOptions(t, mem)...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotImplemented))
}

func TestPreserveNamedIndex(t *testing.T) {
	mem := checkedAllocator(t)
	ix := frame.NewIndex(frame.NewStrings("key", "k1", "k2"), frame.NewNumeric(nil, []int64{7, 8}))
	df := frame.MustNew([]*frame.Series{frame.NewNumeric("v", []float64{1, 2})}, frame.WithIndex(ix))

	tbl, err := TableFromFrame(df, testOptions(t, mem, WithPreserveIndex(true))...)
	require.NoError(t, err)
	defer tbl.Release()

	schema := tbl.Schema()
	require.Equal(t, 3, schema.NumFields())
	assert.Equal(t, "v", schema.Field(0).Name)
	assert.Equal(t, "key", schema.Field(1).Name)
	assert.Equal(t, "__index_level_1__", schema.Field(2).Name)
	assert.Equal(t, []any{"key", "__index_level_1__"}, rawMetadata(t, schema)["index_columns"])

	back, err := TableToFrame(tbl, testOptions(t, mem)...)
	require.NoError(t, err)
	assert.Equal(t, 1, back.NumCols())
	assert.Equal(t, []frame.Label{"key", nil}, back.Index().Names())
	assert.True(t, df.Equal(back))
}

func TestPreserveIndexNameCollision(t *testing.T) {
	mem := checkedAllocator(t)
	ix := frame.NewIndex(frame.NewNumeric("id", []int64{10, 20}))
	df := frame.MustNew([]*frame.Series{
		frame.NewNumeric("id", []int64{1, 2}),
		frame.NewNumeric("id_1", []int64{3, 4}),
	}, frame.WithIndex(ix))

	tbl, err := TableFromFrame(df, testOptions(t, mem, WithPreserveIndex(true))...)
	require.NoError(t, err)
	defer tbl.Release()
	assert.Equal(t, "id_2", tbl.Schema().Field(2).Name)

	back, err := TableToFrame(tbl, testOptions(t, mem)...)
	require.NoError(t, err)
	assert.True(t, df.Equal(back))
	assert.Equal(t, []frame.Label{"id"}, back.Index().Names())
}

func TestPreserveRangeIndexAsMetadata(t *testing.T) {
	mem := checkedAllocator(t)
	df := frame.MustNew([]*frame.Series{frame.NewNumeric("v", []int64{1, 2, 3})},
		frame.WithIndex(frame.NewRangeIndex("r", 10, 16, 2)))

	tbl, err := TableFromFrame(df, testOptions(t, mem, WithPreserveIndex(true))...)
	require.NoError(t, err)
	defer tbl.Release()
	assert.Equal(t, int64(1), tbl.NumCols())

	back, err := TableToFrame(tbl, testOptions(t, mem)...)
	require.NoError(t, err)
	require.True(t, back.Index().IsRange())
	start, stop, step := back.Index().Range()
	assert.Equal(t, []int64{10, 16, 2}, []int64{start, stop, step})
	assert.True(t, df.Equal(back))

	// doubling the rows invalidates the recorded range
	twice, err := ConcatTables(tbl, tbl)
	require.NoError(t, err)
	defer twice.Release()
	back, err = TableToFrame(twice, testOptions(t, mem)...)
	require.NoError(t, err)
	assert.True(t, back.Index().IsDefault())
	assert.Equal(t, 6, back.NumRows())
}

func TestIndexDroppedWithoutPreserve(t *testing.T) {
	ix := frame.NewIndex(frame.NewStrings("key", "a", "b"))
	df := frame.MustNew([]*frame.Series{frame.NewNumeric("v", []int64{1, 2})}, frame.WithIndex(ix))

	back := roundTrip(t, df)
	assert.True(t, back.Index().IsDefault())
	assert.Equal(t, 1, back.NumCols())
}

func TestEmptyFrames(t *testing.T) {
	noColumns := frame.MustNew(nil, frame.WithNumRows(3))
	back := roundTrip(t, noColumns)
	assert.Equal(t, 0, back.NumCols())
	assert.Equal(t, 3, back.NumRows())

	noRows := frame.MustNew([]*frame.Series{
		frame.NewNumeric("i", []int64{}),
		frame.NewObject("o", []any{}),
	})
	back = roundTrip(t, noRows)
	assert.Equal(t, 2, back.NumCols())
	assert.Equal(t, 0, back.NumRows())
	assert.Equal(t, frame.Int64, back.Column(0).Dtype())
}

func TestTupleAndNumericLabels(t *testing.T) {
	df := frame.MustNew([]*frame.Series{
		frame.NewNumeric(frame.Tuple{"a", int64(1)}, []int64{1}),
		frame.NewNumeric(frame.Tuple{"b", int64(2)}, []int64{2}),
	})
	back := roundTrip(t, df)
	assert.Equal(t, []frame.Label{frame.Tuple{"a", int64(1)}, frame.Tuple{"b", int64(2)}}, back.ColumnNames())
	assert.Len(t, back.Axis().Levels, 2)
	assert.True(t, df.Equal(back))

	df = frame.MustNew([]*frame.Series{frame.NewNumeric(int64(0), []float64{1})})
	back = roundTrip(t, df)
	assert.Equal(t, []frame.Label{int64(0)}, back.ColumnNames())
	assert.Equal(t, frame.Int64, back.Axis().Levels[0].Dtype)
}

func TestDatetimeColumnLabels(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	t0 := time.Date(2024, 3, 10, 1, 30, 0, 0, ny)
	t1 := time.Date(2024, 3, 10, 3, 30, 0, 500, ny)

	df := frame.MustNew([]*frame.Series{
		frame.NewNumeric(t0, []int64{1}),
		frame.NewNumeric(t1, []int64{2}),
	})
	back := roundTrip(t, df)
	require.Len(t, back.ColumnNames(), 2)
	got, ok := back.ColumnNames()[1].(time.Time)
	require.True(t, ok, "label %#v", back.ColumnNames()[1])
	assert.True(t, got.Equal(t1))
	assert.Equal(t, "America/New_York", got.Location().String())
	assert.Equal(t, "America/New_York", back.Axis().Levels[0].Dtype.TZ)
	assert.True(t, df.Equal(back))

	df = frame.MustNew([]*frame.Series{
		frame.NewNumeric(frame.Tuple{"open", t0}, []int64{1}),
		frame.NewNumeric(frame.Tuple{"close", t1}, []int64{2}),
	})
	back = roundTrip(t, df)
	tuple, ok := back.ColumnNames()[0].(frame.Tuple)
	require.True(t, ok)
	assert.Equal(t, "open", tuple[0])
	assert.True(t, frame.ValuesEqual(t0, tuple[1]))
	assert.True(t, df.Equal(back))
}

func TestTableWithoutMetadata(t *testing.T) {
	mem := checkedAllocator(t)
	b := array.NewInt64Builder(mem)
	b.AppendValues([]int64{4, 5}, nil)
	col := b.NewArray()
	b.Release()
	defer col.Release()

	schema := arrow.NewSchema([]arrow.Field{{Name: "plain", Type: arrow.PrimitiveTypes.Int64}}, nil)
	rec := array.NewRecord(schema, []arrow.Array{col}, 2)
	defer rec.Release()

	df, err := RecordToFrame(rec, testOptions(t, mem)...)
	require.NoError(t, err)
	assert.Equal(t, []frame.Label{"plain"}, df.ColumnNames())
	assert.True(t, df.Index().IsDefault())
}

func TestStringsToCategoricalTable(t *testing.T) {
	df := frame.MustNew([]*frame.Series{
		frame.NewStrings("s", "x", "y", "x"),
		frame.NewNumeric("n", []int64{1, 2, 3}),
	})
	back := roundTrip(t, df, WithStringsToCategorical(true))
	assert.Equal(t, frame.Category, back.Column(0).Dtype())
	assert.Equal(t, frame.Int64, back.Column(1).Dtype())
	assert.Equal(t, "y", back.Column(0).Value(1))
}

func TestTableZeroCopyOnly(t *testing.T) {
	mem := checkedAllocator(t)
	ints := []int64{1, 2, 3}
	df := frame.MustNew([]*frame.Series{
		frame.NewNumeric("i", ints),
		frame.NewNumeric("f", []float32{1, 2, 3}),
	})

	tbl, err := TableFromFrame(df, testOptions(t, mem, WithZeroCopyOnly(true))...)
	require.NoError(t, err)
	defer tbl.Release()
	stored := tbl.Column(0).Data().Chunk(0).(*array.Int64).Int64Values()
	assert.Same(t, &ints[0], &stored[0])

	withText := frame.MustNew([]*frame.Series{frame.NewStrings("s", "a")})
	_, err = TableFromFrame(withText, testOptions(t, mem, WithZeroCopyOnly(true))...)
	assert.Equal(t, ReasonObject, ZeroCopyReason(err))
}

func TestUniformChunks(t *testing.T) {
	mem := checkedAllocator(t)
	df := frame.MustNew([]*frame.Series{
		frame.NewStrings("s", strings.Split("aaaa bbbb cccc dddd eeee ffff", " ")...),
		frame.NewNumeric("n", []int64{1, 2, 3, 4, 5, 6}),
	})

	tbl, err := TableFromFrame(df, testOptions(t, mem, WithChunkCeiling(16))...)
	require.NoError(t, err)
	assert.Len(t, tbl.Column(0).Data().Chunks(), 2)
	assert.Len(t, tbl.Column(1).Data().Chunks(), 3)
	tbl.Release()

	tbl, err = TableFromFrame(df, testOptions(t, mem, WithChunkCeiling(16), WithUniformChunks(true))...)
	require.NoError(t, err)
	defer tbl.Release()
	for i := 0; i < 2; i++ {
		chunks := tbl.Column(i).Data().Chunks()
		require.Len(t, chunks, 3)
		for _, c := range chunks {
			assert.Equal(t, 2, c.Len())
		}
	}

	back, err := TableToFrame(tbl, testOptions(t, mem)...)
	require.NoError(t, err)
	assert.True(t, df.Equal(back))
}

func TestRecordRoundTrip(t *testing.T) {
	mem := checkedAllocator(t)
	df := mixedFrame(t)

	rec, err := RecordFromFrame(df, testOptions(t, mem)...)
	require.NoError(t, err)
	defer rec.Release()
	assert.Equal(t, int64(df.NumRows()), rec.NumRows())

	back, err := RecordToFrame(rec, testOptions(t, mem)...)
	require.NoError(t, err)
	assert.True(t, df.Equal(back))

	long := frame.MustNew([]*frame.Series{frame.NewNumeric("x", []int64{1, 2, 3})})
	_, err = RecordFromFrame(long, testOptions(t, mem, WithChunkCeiling(8))...)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCapacity))
}

func TestConcatTables(t *testing.T) {
	mem := checkedAllocator(t)
	a, err := TableFromFrame(frame.MustNew([]*frame.Series{frame.NewNumeric("x", []int64{1, 2})}), testOptions(t, mem)...)
	require.NoError(t, err)
	defer a.Release()
	b, err := TableFromFrame(frame.MustNew([]*frame.Series{frame.NewNumeric("x", []int64{3})}), testOptions(t, mem)...)
	require.NoError(t, err)
	defer b.Release()

	joined, err := ConcatTables(a, b)
	require.NoError(t, err)
	defer joined.Release()
	assert.Equal(t, int64(3), joined.NumRows())
	assert.Len(t, joined.Column(0).Data().Chunks(), 2)

	back, err := TableToFrame(joined, testOptions(t, mem)...)
	require.NoError(t, err)
	values, _ := frame.Values[int64](back.Column(0))
	assert.Equal(t, []int64{1, 2, 3}, values)

	other, err := TableFromFrame(frame.MustNew([]*frame.Series{frame.NewNumeric("x", []float64{1})}), testOptions(t, mem)...)
	require.NoError(t, err)
	defer other.Release()
	_, err = ConcatTables(a, other)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchemaMismatch))

	_, err = ConcatTables()
	assert.Error(t, err)
}

func TestRemoveColumn(t *testing.T) {
	mem := checkedAllocator(t)
	ix := frame.NewIndex(frame.NewStrings("key", "a", "b"))
	df := frame.MustNew([]*frame.Series{
		frame.NewNumeric("x", []int64{1, 2}),
		frame.NewNumeric("y", []int64{3, 4}),
	}, frame.WithIndex(ix))

	tbl, err := TableFromFrame(df, testOptions(t, mem, WithPreserveIndex(true))...)
	require.NoError(t, err)
	defer tbl.Release()

	// dropping the stored index level leaves a default index
	trimmed, err := RemoveColumn(tbl, 2)
	require.NoError(t, err)
	defer trimmed.Release()
	back, err := TableToFrame(trimmed, testOptions(t, mem)...)
	require.NoError(t, err)
	assert.True(t, back.Index().IsDefault())
	assert.Equal(t, []frame.Label{"x", "y"}, back.ColumnNames())

	trimmed2, err := RemoveColumn(tbl, 0)
	require.NoError(t, err)
	defer trimmed2.Release()
	back, err = TableToFrame(trimmed2, testOptions(t, mem)...)
	require.NoError(t, err)
	assert.Equal(t, []frame.Label{"y"}, back.ColumnNames())
	assert.Equal(t, []frame.Label{"key"}, back.Index().Names())

	_, err = RemoveColumn(tbl, 3)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalid))
}
