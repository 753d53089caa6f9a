package convert

import (
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
	"github.com/ajitpratap0/arrowframe/pkg/pool"
)

// NullMask is the single null bitmap of a column: the OR of a caller
// supplied mask and the dtype's missing-value sentinels.
type NullMask struct {
	scratch *pool.BoolSlice
	nulls   []bool
	count   int
}

// ResolveNulls computes the null mask of s. mask may be nil; otherwise it
// must have one entry per row.
func ResolveNulls(s *frame.Series, mask []bool) (*NullMask, error) {
	n := s.Len()
	if mask != nil && len(mask) != n {
		return nil, errors.Newf(errors.ErrorTypeSchemaMismatch, "mask has %d entries, series has %d rows", len(mask), n)
	}

	m := &NullMask{scratch: pool.GetBoolSlice(n)}
	m.nulls = m.scratch.Values
	for i := 0; i < n; i++ {
		if (mask != nil && mask[i]) || s.IsNull(i) {
			m.nulls[i] = true
			m.count++
		}
	}
	return m, nil
}

// Len returns the number of rows covered.
func (m *NullMask) Len() int { return len(m.nulls) }

// IsNull reports whether row i is null.
func (m *NullMask) IsNull(i int) bool { return m.nulls[i] }

// NullN returns the number of null rows.
func (m *NullMask) NullN() int { return m.count }

// Slice returns the mask of rows [lo, hi). The result shares storage with m
// and must not outlive it.
func (m *NullMask) Slice(lo, hi int) *NullMask {
	s := &NullMask{nulls: m.nulls[lo:hi]}
	for _, isNull := range s.nulls {
		if isNull {
			s.count++
		}
	}
	return s
}

// Valid returns a builder-ready validity slice, or nil when no row is null.
func (m *NullMask) Valid() []bool {
	if m.count == 0 {
		return nil
	}
	valid := make([]bool, len(m.nulls))
	for i, isNull := range m.nulls {
		valid[i] = !isNull
	}
	return valid
}

// Bitmap returns an Arrow validity buffer, or nil when no row is null.
func (m *NullMask) Bitmap(mem memory.Allocator) *memory.Buffer {
	if m.count == 0 {
		return nil
	}
	buf := memory.NewResizableBuffer(mem)
	buf.Resize(int(bitutil.BytesForBits(int64(len(m.nulls)))))
	bits := buf.Bytes()
	for i, isNull := range m.nulls {
		bitutil.SetBitTo(bits, i, !isNull)
	}
	return buf
}

// Release returns the mask's scratch space to the pool. The mask must not be
// used afterwards.
func (m *NullMask) Release() {
	if m.scratch != nil {
		pool.PutBoolSlice(m.scratch)
		m.scratch = nil
	}
	m.nulls = nil
}
