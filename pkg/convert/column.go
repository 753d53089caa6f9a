package convert

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
	"github.com/ajitpratap0/arrowframe/pkg/metrics"
)

// columnPlan is what the first conversion phase learns about a column:
// its target type, null mask and chunk ranges. No values are copied yet.
type columnPlan struct {
	series   *frame.Series
	dt       arrow.DataType
	nulls    *NullMask
	ranges   []Range
	zeroCopy bool
}

func (p *columnPlan) release() {
	if p != nil && p.nulls != nil {
		p.nulls.Release()
	}
}

// planColumn resolves the type and null mask of s and plans its chunks.
// target may be nil to infer the type.
func planColumn(s *frame.Series, target arrow.DataType, nullable bool, mask []bool, o *options) (*columnPlan, error) {
	if s.Dtype().Kind == frame.KindTimedelta64 {
		return nil, errors.Wrap(errors.ErrNotImplemented, errors.ErrorTypeTypeInference, "timedelta64 columns").
			WithDetail("dtype", s.Dtype().String())
	}

	dt := target
	if dt == nil {
		inferred, err := InferType(s)
		if err != nil {
			return nil, err
		}
		dt = inferred
	}

	nulls, err := ResolveNulls(s, mask)
	if err != nil {
		return nil, err
	}
	p := &columnPlan{series: s, dt: dt, nulls: nulls}

	if !nullable && nulls.NullN() > 0 {
		p.release()
		return nil, errors.Newf(errors.ErrorTypeSchemaMismatch, "column has %d nulls but its field is not nullable", nulls.NullN()).
			WithDetail("null_count", nulls.NullN())
	}

	zcErr := checkSeriesZeroCopy(s, dt, nulls.NullN())
	if zcErr != nil && o.cfg.Conversion.ZeroCopyOnly {
		p.release()
		return nil, zcErr
	}

	p.ranges, err = planRanges(s, dt, nulls, o.cfg.Performance.ChunkCeiling)
	if err != nil {
		p.release()
		return nil, err
	}
	if len(p.ranges) > 1 && o.cfg.Conversion.ZeroCopyOnly {
		p.release()
		return nil, CheckZeroCopy(dt, 0, len(p.ranges), false)
	}
	p.zeroCopy = zcErr == nil && len(p.ranges) == 1
	return p, nil
}

// build converts every planned range. On failure nothing is returned and
// every chunk already built is released.
func (p *columnPlan) build(mem memory.Allocator) (*arrow.Chunked, error) {
	arrs := make([]arrow.Array, 0, len(p.ranges))
	defer func() {
		for _, a := range arrs {
			a.Release()
		}
	}()

	for _, r := range p.ranges {
		a, err := buildArray(p.series.Slice(r.Lo, r.Hi), p.dt, p.nulls.Slice(r.Lo, r.Hi), mem)
		if err != nil {
			if r.Lo > 0 {
				var e *errors.Error
				if errors.As(err, &e) {
					e.WithDetail("chunk_offset", r.Lo)
				}
			}
			return nil, err
		}
		arrs = append(arrs, a)
	}
	return arrow.NewChunked(p.dt, arrs), nil
}

// buildArray converts a whole series to one array of type dt.
func buildArray(s *frame.Series, dt arrow.DataType, nulls *NullMask, mem memory.Allocator) (arrow.Array, error) {
	if dict, ok := dt.(*arrow.DictionaryType); ok {
		return dictionaryArray(s, dict, nulls, mem)
	}

	kind := s.Dtype().Kind
	if kind == frame.KindCategory {
		s = frame.NewObject(s.Name(), objectValues(s))
		kind = frame.KindObject
	}

	switch dt.ID() {
	case arrow.NULL:
		if nulls.NullN() != s.Len() {
			return nil, errors.Newf(errors.ErrorTypeSchemaMismatch, "null column holds %d non-null values", s.Len()-nulls.NullN())
		}
		return array.NewNull(s.Len()), nil
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT32, arrow.FLOAT64:
		if kind.IsNumeric() {
			return numericArray(s, dt, nulls, mem)
		}
	case arrow.BOOL:
		if kind == frame.KindBool {
			return boolArray(s, nulls, mem), nil
		}
	case arrow.DATE32, arrow.DATE64, arrow.TIME32, arrow.TIME64, arrow.TIMESTAMP:
		values, err := temporalValues(s, dt, nulls)
		if err != nil {
			return nil, err
		}
		if narrow, ok := values.([]int32); ok {
			return primitiveArray(dt, narrow, nulls, mem, false), nil
		}
		return primitiveArray(dt, values.([]int64), nulls, mem, false), nil
	}
	return objectArray(s, dt, nulls, mem)
}

// ArrayFromSeries converts a series to a single array. WithType overrides
// inference and WithMask adds nulls. A column that needs more than one
// chunk fails with a capacity error; use ChunkedFromSeries for those.
func ArrayFromSeries(s *frame.Series, opts ...Option) (arrow.Array, error) {
	ch, err := ChunkedFromSeries(s, opts...)
	if err != nil {
		return nil, err
	}
	defer ch.Release()

	if len(ch.Chunks()) != 1 {
		return nil, errors.Newf(errors.ErrorTypeCapacity, "column needs %d chunks", len(ch.Chunks())).
			WithDetail("chunks", len(ch.Chunks()))
	}
	arr := ch.Chunk(0)
	arr.Retain()
	return arr, nil
}

// ChunkedFromSeries converts a series to a chunked column, splitting it at
// the configured chunk ceiling.
func ChunkedFromSeries(s *frame.Series, opts ...Option) (*arrow.Chunked, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	const op = "array_from_series"
	collector := o.collector(op)

	p, err := planColumn(s, o.typ, true, o.mask, o)
	if err != nil {
		collector.Error(op, string(errors.TypeOf(err)))
		return nil, errors.Column(err, frame.FormatLabel(s.Name()))
	}
	defer p.release()

	ch, err := p.build(o.mem)
	if err != nil {
		collector.Error(op, string(errors.TypeOf(err)))
		return nil, errors.Column(err, frame.FormatLabel(s.Name()))
	}
	collector.ColumnConverted(metrics.DirectionToArrow, p.dt.ID().String(), p.zeroCopy)
	collector.Chunks(len(ch.Chunks()))
	o.logger.Debug("converted series",
		zap.String("column", frame.FormatLabel(s.Name())),
		zap.Stringer("type", p.dt),
		zap.Int("chunks", len(ch.Chunks())),
		zap.Bool("zero_copy", p.zeroCopy))
	return ch, nil
}

// ArrayToSeries converts an array to an unnamed series.
func ArrayToSeries(arr arrow.Array, opts ...Option) (*frame.Series, error) {
	return toSeries(arr.DataType(), []arrow.Array{arr}, opts)
}

// ChunkedToSeries converts every chunk of a column into one unnamed series.
func ChunkedToSeries(ch *arrow.Chunked, opts ...Option) (*frame.Series, error) {
	return toSeries(ch.DataType(), ch.Chunks(), opts)
}

func toSeries(dt arrow.DataType, chunks []arrow.Array, opts []Option) (*frame.Series, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	const op = "array_to_series"
	collector := o.collector(op)

	s, err := chunkedToSeries(nil, dt, chunks, o)
	if err != nil {
		collector.Error(op, string(errors.TypeOf(err)))
		return nil, err
	}
	collector.ColumnConverted(metrics.DirectionToFrame, dt.ID().String(), aliasesSource(dt, o.cfg.Conversion.ZeroCopyOnly))
	return s, nil
}

// chunkedToSeries materializes the chunks of one column. Under
// ZeroCopyOnly the gate runs before any value is read and a single
// primitive chunk is returned as a view of its buffer.
func chunkedToSeries(name frame.Label, dt arrow.DataType, chunks []arrow.Array, o *options) (*frame.Series, error) {
	if err := checkSupported(dt); err != nil {
		return nil, err
	}

	n, nullN := 0, 0
	for _, c := range chunks {
		n += c.Len()
		nullN += c.NullN()
	}

	zeroCopy := o.cfg.Conversion.ZeroCopyOnly
	if zeroCopy {
		if err := CheckZeroCopy(dt, nullN, len(chunks), false); err != nil {
			return nil, err
		}
	}

	switch t := dt.(type) {
	case *arrow.DictionaryType:
		c, err := decodeDictionary(chunks, t, o)
		if err != nil {
			return nil, err
		}
		return frame.NewCategoricalSeries(name, c), nil
	case *arrow.NullType:
		return frame.NewObject(name, make([]any, n)), nil
	case *arrow.BooleanType:
		if nullN == 0 {
			return frame.NewBool(name, boolValues(chunks, n)), nil
		}
	case *arrow.StringType, *arrow.BinaryType:
		if o.cfg.Conversion.StringsToCategorical {
			c, err := stringsToCategorical(materialize(chunks, n))
			if err != nil {
				return nil, err
			}
			return frame.NewCategoricalSeries(name, c), nil
		}
	case *arrow.Date32Type:
		if !o.cfg.Conversion.DateAsObject {
			return frame.NewDatetime(name, frame.Day, "", ticksOf[int32](chunks, n)), nil
		}
	case *arrow.Date64Type:
		if !o.cfg.Conversion.DateAsObject {
			return frame.NewDatetime(name, frame.Millisecond, "", ticksOf[int64](chunks, n)), nil
		}
	case *arrow.TimestampType:
		return frame.NewDatetime(name, frameUnit(t.Unit), t.TimeZone, ticksOf[int64](chunks, n)), nil
	}

	if s := numericSeries(name, dt, chunks, n, nullN, zeroCopy); s != nil {
		return s, nil
	}
	return frame.NewObject(name, materialize(chunks, n)), nil
}

func numericSeries(name frame.Label, dt arrow.DataType, chunks []arrow.Array, n, nullN int, alias bool) *frame.Series {
	switch dt.ID() {
	case arrow.INT8:
		return intSeries[int8](name, chunks, n, nullN, alias)
	case arrow.INT16:
		return intSeries[int16](name, chunks, n, nullN, alias)
	case arrow.INT32:
		return intSeries[int32](name, chunks, n, nullN, alias)
	case arrow.INT64:
		return intSeries[int64](name, chunks, n, nullN, alias)
	case arrow.UINT8:
		return intSeries[uint8](name, chunks, n, nullN, alias)
	case arrow.UINT16:
		return intSeries[uint16](name, chunks, n, nullN, alias)
	case arrow.UINT32:
		return intSeries[uint32](name, chunks, n, nullN, alias)
	case arrow.UINT64:
		return intSeries[uint64](name, chunks, n, nullN, alias)
	case arrow.FLOAT32:
		return floatSeries[float32](name, chunks, n, nullN, alias)
	case arrow.FLOAT64:
		return floatSeries[float64](name, chunks, n, nullN, alias)
	}
	return nil
}

// intSeries keeps the integer width when no value is null; otherwise the
// column becomes float64 with NaN in null slots.
func intSeries[T frame.Number](name frame.Label, chunks []arrow.Array, n, nullN int, alias bool) *frame.Series {
	if nullN == 0 {
		return frame.NewNumeric(name, collect[T](chunks, n, alias))
	}
	out := make([]float64, 0, n)
	for _, c := range chunks {
		for i, v := range primitiveValues[T](c) {
			if c.IsNull(i) {
				out = append(out, math.NaN())
				continue
			}
			out = append(out, float64(v))
		}
	}
	return frame.NewNumeric(name, out)
}

func floatSeries[T float32 | float64](name frame.Label, chunks []arrow.Array, n, nullN int, alias bool) *frame.Series {
	values := collect[T](chunks, n, alias && nullN == 0)
	if nullN > 0 {
		row := 0
		for _, c := range chunks {
			for i := 0; i < c.Len(); i++ {
				if c.IsNull(i) {
					values[row+i] = T(math.NaN())
				}
			}
			row += c.Len()
		}
	}
	return frame.NewNumeric(name, values)
}

// collect concatenates the values of every chunk. With alias set a single
// chunk is returned as a view of its buffer.
func collect[T primitive](chunks []arrow.Array, n int, alias bool) []T {
	if alias && len(chunks) == 1 {
		return primitiveValues[T](chunks[0])
	}
	out := make([]T, 0, n)
	for _, c := range chunks {
		out = append(out, primitiveValues[T](c)...)
	}
	return out
}

// ticksOf widens date and timestamp values to int64 ticks, NaT when null.
func ticksOf[T int32 | int64](chunks []arrow.Array, n int) []int64 {
	out := make([]int64, 0, n)
	for _, c := range chunks {
		for i, v := range primitiveValues[T](c) {
			if c.IsNull(i) {
				out = append(out, frame.NaT)
				continue
			}
			out = append(out, int64(v))
		}
	}
	return out
}

func boolValues(chunks []arrow.Array, n int) []bool {
	out := make([]bool, 0, n)
	for _, c := range chunks {
		b := c.(*array.Boolean)
		for i := 0; i < b.Len(); i++ {
			out = append(out, b.Value(i))
		}
	}
	return out
}

// materialize reads every slot of every chunk as a dynamic value.
func materialize(chunks []arrow.Array, n int) []any {
	out := make([]any, 0, n)
	for _, c := range chunks {
		for i := 0; i < c.Len(); i++ {
			out = append(out, getValue(c, i))
		}
	}
	return out
}
