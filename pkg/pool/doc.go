// Package pool implements type-safe object pooling for arrowframe.
//
// Conversions allocate one validity slice per column and per chunk; the
// scratch space is recycled through BoolSlicePool so repeated conversions of
// wide frames do not grow the heap.
//
// Core Types:
//
//   - Pool[T]: Generic pool implementation for any type T
//   - BoolSlice: pooled []bool for validity bitmaps
//
// Usage:
//
//	scratch := pool.GetBoolSlice(n)
//	defer pool.PutBoolSlice(scratch)
//	for i := range scratch.Values {
//		scratch.Values[i] = isNull(i)
//	}
//
// Objects must not be used after Put.
package pool
