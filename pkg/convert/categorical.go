package convert

import (
	"fmt"
	"math"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
)

// dictionaryArray encodes s as a dictionary array. A category series keeps
// its own categories; any other series is factorized by first occurrence.
// The ordered flag always comes from dt.
func dictionaryArray(s *frame.Series, dt *arrow.DictionaryType, nulls *NullMask, mem memory.Allocator) (arrow.Array, error) {
	c := s.Categorical()
	if c == nil {
		var err error
		c, err = frame.Factorize(objectValues(s), dt.Ordered)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeSchemaMismatch, "cannot dictionary-encode column")
		}
	}

	cats := c.Categories()
	catNulls, err := ResolveNulls(cats, nil)
	if err != nil {
		return nil, err
	}
	defer catNulls.Release()
	if catNulls.NullN() > 0 {
		return nil, errors.New(errors.ErrorTypeInvalid, "categories must not contain missing values")
	}

	codes := make([]int64, c.Len())
	for i := range codes {
		if nulls.IsNull(i) {
			continue
		}
		codes[i] = c.Code(i)
		if codes[i] >= int64(cats.Len()) {
			return nil, boundsError(i, codes[i], cats.Len())
		}
	}

	dict, err := buildArray(cats, dt.ValueType, catNulls, mem)
	if err != nil {
		return nil, err
	}
	defer dict.Release()

	indices, err := castArray(codes, dt.IndexType, nulls, mem)
	if err != nil {
		return nil, err
	}
	defer indices.Release()

	return array.NewDictionaryArray(dt, indices, dict), nil
}

// objectValues returns the rows of s as dynamic values, sharing the backing
// slice of an object series.
func objectValues(s *frame.Series) []any {
	if values, ok := s.Objects(); ok {
		return values
	}
	out := make([]any, s.Len())
	for i := range out {
		out[i] = s.Value(i)
	}
	return out
}

// ValidateIndices checks that every non-null index of arr addresses an
// entry of its dictionary. It never reads dictionary values.
func ValidateIndices(arr *array.Dictionary) error {
	indices := arr.Indices()
	size := arr.Dictionary().Len()
	for i := 0; i < indices.Len(); i++ {
		if indices.IsNull(i) {
			continue
		}
		if idx := indexAt(indices, i); idx < 0 || idx >= int64(size) {
			return boundsError(i, idx, size)
		}
	}
	return nil
}

func boundsError(row int, idx int64, size int) *errors.Error {
	return errors.Newf(errors.ErrorTypeBounds, "dictionary index %d at row %d is outside [0, %d)", idx, row, size).
		WithDetail("row", row).
		WithDetail("index", idx).
		WithDetail("size", size)
}

// indexAt reads index i as a signed value. Unsigned indices beyond int64
// report math.MaxInt64.
func indexAt(indices arrow.Array, i int) int64 {
	switch a := indices.(type) {
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return int64(a.Value(i))
	case *array.Uint16:
		return int64(a.Value(i))
	case *array.Uint32:
		return int64(a.Value(i))
	case *array.Uint64:
		if v := a.Value(i); v <= math.MaxInt64 {
			return int64(v)
		}
	}
	return math.MaxInt64
}

// decodeDictionary turns the chunks of a dictionary column into one
// categorical. Chunks sharing a dictionary keep their codes; otherwise the
// dictionaries are merged in first-seen order and codes remapped. The
// dictionaries and indices of the chunks are borrowed, not retained.
func decodeDictionary(chunks []arrow.Array, dt *arrow.DictionaryType, o *options) (*frame.Categorical, error) {
	dicts := make([]arrow.Array, 0, len(chunks))

	n := 0
	for _, chunk := range chunks {
		arr, ok := chunk.(*array.Dictionary)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeInternal, "expected dictionary array, got %T", chunk)
		}
		if err := ValidateIndices(arr); err != nil {
			return nil, err
		}
		dicts = append(dicts, arr.Dictionary())
		n += arr.Len()
	}
	if len(dicts) == 0 {
		empty := array.MakeArrayOfNull(o.mem, dt.ValueType, 0)
		defer empty.Release()
		dicts = append(dicts, empty)
	}

	shared := true
	for _, d := range dicts[1:] {
		if !array.Equal(dicts[0], d) {
			shared = false
			break
		}
	}

	var (
		cats  arrow.Array
		remap [][]int64
	)
	if shared {
		cats = dicts[0]
		cats.Retain()
	} else {
		var err error
		cats, remap, err = unionDictionaries(dicts, dt.ValueType, o.mem)
		if err != nil {
			return nil, err
		}
	}
	defer cats.Release()

	codes := make([]int64, 0, n)
	for k, chunk := range chunks {
		arr := chunk.(*array.Dictionary)
		indices := arr.Indices()
		for i := 0; i < indices.Len(); i++ {
			if indices.IsNull(i) {
				codes = append(codes, -1)
				continue
			}
			idx := indexAt(indices, i)
			if remap != nil {
				idx = remap[k][idx]
			}
			codes = append(codes, idx)
		}
	}

	categories, err := chunkedToSeries(nil, cats.DataType(), []arrow.Array{cats}, o.plain())
	if err != nil {
		return nil, err
	}
	return frame.NewCategoricalFromCodes(codes, categories, dt.Ordered), nil
}

// unionDictionaries merges dictionaries in first-seen order. remap[k][i] is
// the merged position of entry i of dictionary k.
func unionDictionaries(dicts []arrow.Array, valueType arrow.DataType, mem memory.Allocator) (arrow.Array, [][]int64, error) {
	b := array.NewBuilder(mem, valueType)
	defer b.Release()

	seen := make(map[any]int64)
	remap := make([][]int64, len(dicts))
	for k, d := range dicts {
		remap[k] = make([]int64, d.Len())
		for i := 0; i < d.Len(); i++ {
			v := getValue(d, i)
			key := dictKey(v)
			code, ok := seen[key]
			if !ok {
				code = int64(len(seen))
				seen[key] = code
				if err := appendValue(b, v); err != nil {
					return nil, nil, err
				}
			}
			remap[k][i] = code
		}
	}
	return b.NewArray(), remap, nil
}

type (
	bytesKey   string
	decimalKey string
	timeKey    string
	reprKey    string
)

// dictKey maps a dictionary value to a comparable key.
func dictKey(v any) any {
	switch x := v.(type) {
	case nil, string, bool, int8, int16, int32, int64, uint8, uint16, uint32, uint64, float32, float64:
		return x
	case []byte:
		return bytesKey(x)
	case decimal.Decimal:
		return decimalKey(x.String())
	case time.Time:
		return timeKey(x.UTC().Format(time.RFC3339Nano))
	}
	return reprKey(fmt.Sprintf("%T:%v", v, v))
}

// stringsToCategorical dictionary-encodes materialized text values.
func stringsToCategorical(values []any) (*frame.Categorical, error) {
	c, err := frame.Factorize(values, false)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "cannot factorize text column")
	}
	return c, nil
}
