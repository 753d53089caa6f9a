package frame

import (
	"fmt"
	"math"
)

// Code is the set of integer widths categorical codes are stored in.
type Code interface {
	int8 | int16 | int32 | int64
}

// Categorical is a dictionary-encoded column: per-row codes into a list of
// distinct categories. Code -1 marks a missing value.
type Categorical struct {
	codes      any
	categories *Series
	ordered    bool
}

// NewCategorical creates a categorical from codes of any supported width.
func NewCategorical[T Code](codes []T, categories *Series, ordered bool) *Categorical {
	return &Categorical{codes: codes, categories: categories, ordered: ordered}
}

// NewCategoricalFromCodes stores codes in the narrowest width that can
// address every category.
func NewCategoricalFromCodes(codes []int64, categories *Series, ordered bool) *Categorical {
	switch bits := CodeBitsFor(categories.Len()); bits {
	case 8:
		return NewCategorical(narrow[int8](codes), categories, ordered)
	case 16:
		return NewCategorical(narrow[int16](codes), categories, ordered)
	case 32:
		return NewCategorical(narrow[int32](codes), categories, ordered)
	}
	return NewCategorical(codes, categories, ordered)
}

func narrow[T Code](codes []int64) []T {
	out := make([]T, len(codes))
	for i, c := range codes {
		out[i] = T(c)
	}
	return out
}

// CodeBitsFor returns the narrowest code width, in bits, for n categories.
func CodeBitsFor(n int) int {
	switch {
	case n-1 <= math.MaxInt8:
		return 8
	case n-1 <= math.MaxInt16:
		return 16
	case n-1 <= math.MaxInt32:
		return 32
	}
	return 64
}

// Factorize encodes values by first occurrence. Missing values get code -1
// and are not categories.
func Factorize(values []any, ordered bool) (*Categorical, error) {
	codes := make([]int64, len(values))
	seen := make(map[any]int64)
	var cats []any
	for i, v := range values {
		if IsNullValue(v) {
			codes[i] = -1
			continue
		}
		key, err := hashKey(v)
		if err != nil {
			return nil, err
		}
		code, ok := seen[key]
		if !ok {
			code = int64(len(cats))
			seen[key] = code
			cats = append(cats, v)
		}
		codes[i] = code
	}
	return NewCategoricalFromCodes(codes, NewObject(nil, cats), ordered), nil
}

type bytesKey string

func hashKey(v any) (any, error) {
	switch x := v.(type) {
	case []byte:
		return bytesKey(x), nil
	case string, bool, float32, float64:
		return x, nil
	}
	if i, ok := AsInt64(v); ok {
		return i, nil
	}
	if u, ok := v.(uint64); ok {
		return u, nil
	}
	return nil, fmt.Errorf("value of type %T cannot be a category", v)
}

// Len returns the number of rows.
func (c *Categorical) Len() int {
	switch v := c.codes.(type) {
	case []int8:
		return len(v)
	case []int16:
		return len(v)
	case []int32:
		return len(v)
	case []int64:
		return len(v)
	}
	return 0
}

// Code returns the code of row i widened to int64.
func (c *Categorical) Code(i int) int64 {
	switch v := c.codes.(type) {
	case []int8:
		return int64(v[i])
	case []int16:
		return int64(v[i])
	case []int32:
		return int64(v[i])
	case []int64:
		return v[i]
	}
	return -1
}

// Codes returns the backing code slice: []int8, []int16, []int32 or []int64.
func (c *Categorical) Codes() any { return c.codes }

// CodeBits returns the storage width of the codes.
func (c *Categorical) CodeBits() int {
	switch c.codes.(type) {
	case []int8:
		return 8
	case []int16:
		return 16
	case []int32:
		return 32
	}
	return 64
}

// Categories returns the distinct values.
func (c *Categorical) Categories() *Series { return c.categories }

// Ordered reports whether the categories carry an order.
func (c *Categorical) Ordered() bool { return c.ordered }

// Slice returns rows [lo, hi) sharing codes and categories.
func (c *Categorical) Slice(lo, hi int) *Categorical {
	cp := *c
	switch v := c.codes.(type) {
	case []int8:
		cp.codes = v[lo:hi]
	case []int16:
		cp.codes = v[lo:hi]
	case []int32:
		cp.codes = v[lo:hi]
	case []int64:
		cp.codes = v[lo:hi]
	}
	return &cp
}
