package pool

import (
	"sync"
	"sync/atomic"
)

// Pool represents a generic object pool with type safety.
// It wraps sync.Pool with statistics tracking and an optional reset
// function. The pool is safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	new   func() T
	reset func(T)
	stats struct {
		allocated int64
		inUse     int64
		hits      int64
		misses    int64
	}
}

// New creates a new typed pool with custom allocation and reset functions.
// The new function is called when the pool is empty and a new object is needed.
// The reset function, if not nil, is called before an object re-enters the
// pool.
//
// Example:
//
//	p := New(
//	    func() *Scratch { return &Scratch{buf: make([]byte, 0, 1024)} },
//	    func(s *Scratch) { s.buf = s.buf[:0] },
//	)
func New[T any](new func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{
		new:   new,
		reset: reset,
	}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		atomic.AddInt64(&p.stats.misses, 1)
		return new()
	}
	return p
}

// Get retrieves an object from the pool, creating one if the pool is empty.
// Return it with Put when no longer needed.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.inUse, 1)
	obj := p.pool.Get().(T)
	atomic.AddInt64(&p.stats.hits, 1)
	return obj
}

// Put returns an object to the pool for reuse.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	atomic.AddInt64(&p.stats.inUse, -1)
	p.pool.Put(obj)
}

// Stats returns current pool statistics.
//
// Returns:
//   - allocated: Total number of objects created by the pool
//   - inUse: Number of objects currently checked out from the pool
//   - hits: Number of Get operations
//   - misses: Number of times a new object had to be created
func (p *Pool[T]) Stats() (allocated, inUse, hits, misses int64) {
	return atomic.LoadInt64(&p.stats.allocated),
		atomic.LoadInt64(&p.stats.inUse),
		atomic.LoadInt64(&p.stats.hits),
		atomic.LoadInt64(&p.stats.misses)
}

// BoolSlice is a pooled []bool used for validity scratch space.
type BoolSlice struct {
	Values []bool
}

// maxPooledBools bounds what is kept around between conversions.
const maxPooledBools = 1 << 20

// BoolSlicePool holds validity scratch buffers.
var BoolSlicePool = New(
	func() *BoolSlice { return &BoolSlice{Values: make([]bool, 0, 1024)} },
	func(s *BoolSlice) {
		if cap(s.Values) > maxPooledBools {
			s.Values = make([]bool, 0, 1024)
			return
		}
		s.Values = s.Values[:0]
	},
)

// GetBoolSlice returns a zeroed scratch slice of length n.
func GetBoolSlice(n int) *BoolSlice {
	s := BoolSlicePool.Get()
	if cap(s.Values) < n {
		s.Values = make([]bool, n)
		return s
	}
	s.Values = s.Values[:n]
	clear(s.Values)
	return s
}

// PutBoolSlice returns a scratch slice to the pool.
func PutBoolSlice(s *BoolSlice) {
	if s == nil {
		return
	}
	BoolSlicePool.Put(s)
}
