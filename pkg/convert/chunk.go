package convert

import (
	"sort"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
)

// Range is a contiguous row range [Lo, Hi).
type Range struct {
	Lo, Hi int
}

// Len returns the number of rows in the range.
func (r Range) Len() int { return r.Hi - r.Lo }

// PlanChunks splits n rows into the fewest contiguous ranges whose payload
// stays within ceiling bytes, filling each range greedily. rowBytes reports
// the payload of one row; nil means the column is never split. A single row
// larger than the ceiling fails with a capacity error. Zero rows yield one
// empty range.
func PlanChunks(rowBytes func(i int) int64, n int, ceiling int64) ([]Range, error) {
	if n == 0 || rowBytes == nil {
		return []Range{{0, n}}, nil
	}

	var (
		ranges []Range
		lo     int
		size   int64
	)
	for i := 0; i < n; i++ {
		b := rowBytes(i)
		if b > ceiling {
			return nil, errors.Newf(errors.ErrorTypeCapacity, "row %d needs %d bytes, chunk ceiling is %d", i, b, ceiling).
				WithDetail("row", i).
				WithDetail("ceiling", ceiling)
		}
		if size+b > ceiling {
			ranges = append(ranges, Range{lo, i})
			lo, size = i, 0
		}
		size += b
	}
	return append(ranges, Range{lo, n}), nil
}

// AlignPlans merges the cut points of every plan so all columns share the
// same chunk boundaries. Each merged range lies inside one range of every
// input plan.
func AlignPlans(plans [][]Range) []Range {
	if len(plans) == 0 {
		return nil
	}
	n := 0
	cuts := make(map[int]struct{})
	for _, plan := range plans {
		for _, r := range plan {
			if r.Hi > n {
				n = r.Hi
			}
			if r.Lo > 0 {
				cuts[r.Lo] = struct{}{}
			}
		}
	}

	points := make([]int, 0, len(cuts))
	for c := range cuts {
		points = append(points, c)
	}
	sort.Ints(points)

	aligned := make([]Range, 0, len(points)+1)
	lo := 0
	for _, c := range points {
		aligned = append(aligned, Range{lo, c})
		lo = c
	}
	return append(aligned, Range{lo, n})
}

// rowSizer returns the per-row payload function of a column converted to
// dt. Variable-width binaries count their value bytes, nested values the sum
// of their leaves and dictionaries their index width. Null columns return nil.
func rowSizer(s *frame.Series, dt arrow.DataType, nulls *NullMask) func(int) int64 {
	switch t := dt.(type) {
	case *arrow.NullType:
		return nil
	case *arrow.DictionaryType:
		width := fixedBytes(t.IndexType)
		return func(int) int64 { return width }
	case *arrow.StringType, *arrow.BinaryType, *arrow.ListType, *arrow.StructType:
		values := objectValues(s)
		return func(i int) int64 {
			if nulls.IsNull(i) {
				return 0
			}
			return valueBytes(values[i], dt)
		}
	}

	if _, ok := dt.(arrow.FixedWidthDataType); !ok {
		return nil
	}
	width := fixedBytes(dt)
	return func(int) int64 { return width }
}

// valueBytes returns the payload one value adds to a column of type dt.
func valueBytes(v any, dt arrow.DataType) int64 {
	if v == nil {
		return 0
	}
	switch t := dt.(type) {
	case *arrow.StringType, *arrow.BinaryType:
		switch b := v.(type) {
		case string:
			return int64(len(b))
		case []byte:
			return int64(len(b))
		}
		return 0
	case *arrow.ListType:
		seq, ok := frame.AsSequence(v)
		if !ok {
			return 0
		}
		var size int64
		for _, e := range seq {
			size += valueBytes(e, t.Elem())
		}
		return size
	case *arrow.StructType:
		m, ok := v.(map[string]any)
		if !ok {
			return 0
		}
		var size int64
		for _, f := range t.Fields() {
			size += valueBytes(m[f.Name], f.Type)
		}
		return size
	case *arrow.DictionaryType:
		return fixedBytes(t.IndexType)
	}
	return fixedBytes(dt)
}

// fixedBytes returns the element width of a fixed-width type, zero for any
// other type.
func fixedBytes(dt arrow.DataType) int64 {
	fw, ok := dt.(arrow.FixedWidthDataType)
	if !ok {
		return 0
	}
	return int64((fw.BitWidth() + 7) / 8)
}

// planRanges plans the chunks of one column. Fixed-width columns that fit
// the ceiling skip the per-row walk.
func planRanges(s *frame.Series, dt arrow.DataType, nulls *NullMask, ceiling int64) ([]Range, error) {
	n := s.Len()
	if _, ok := dt.(arrow.FixedWidthDataType); ok {
		if fixedBytes(dt)*int64(n) <= ceiling {
			return []Range{{0, n}}, nil
		}
	}
	return PlanChunks(rowSizer(s, dt, nulls), n, ceiling)
}
