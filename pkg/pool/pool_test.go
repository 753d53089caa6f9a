package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolReset(t *testing.T) {
	p := New(func() []int { return make([]int, 0, 4) }, nil)
	obj := p.Get()
	assert.Equal(t, 0, len(obj))
	p.Put(obj)

	allocated, inUse, hits, _ := p.Stats()
	assert.GreaterOrEqual(t, allocated, int64(1))
	assert.Equal(t, int64(0), inUse)
	assert.Equal(t, int64(1), hits)
}

func TestGetBoolSliceIsZeroed(t *testing.T) {
	s := GetBoolSlice(8)
	for i := range s.Values {
		s.Values[i] = true
	}
	PutBoolSlice(s)

	for i := 0; i < 4; i++ {
		got := GetBoolSlice(8)
		assert.Len(t, got.Values, 8)
		for _, v := range got.Values {
			assert.False(t, v)
		}
		PutBoolSlice(got)
	}
}

func TestGetBoolSliceGrows(t *testing.T) {
	s := GetBoolSlice(4096)
	assert.Len(t, s.Values, 4096)
	PutBoolSlice(s)
	PutBoolSlice(nil)
}

func TestConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s := GetBoolSlice(n + i)
				assert.Len(t, s.Values, n+i)
				PutBoolSlice(s)
			}
		}(g * 10)
	}
	wg.Wait()
}
