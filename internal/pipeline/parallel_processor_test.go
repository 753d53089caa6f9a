package pipeline

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRunPlacesResultsByIndex(t *testing.T) {
	p := NewParallelProcessor(ParallelConfig{Name: "test", NumWorkers: 4}, zaptest.NewLogger(t))
	results := make([]int, 50)

	err := p.Run(len(results), func(i int) error {
		// later indexes finish first
		time.Sleep(time.Duration(len(results)-i) * 100 * time.Microsecond)
		results[i] = i * i
		return nil
	})
	require.NoError(t, err)
	for i, v := range results {
		assert.Equal(t, i*i, v)
	}

	processed, elapsed := p.Stats()
	assert.Equal(t, int64(50), processed)
	assert.Greater(t, elapsed, time.Duration(0))
}

func TestRunReturnsFirstError(t *testing.T) {
	p := NewParallelProcessor(ParallelConfig{NumWorkers: 2}, nil)
	boom := errors.New("boom")
	var ran int64

	err := p.Run(100, func(i int) error {
		atomic.AddInt64(&ran, 1)
		if i == 3 {
			return boom
		}
		time.Sleep(time.Millisecond)
		return nil
	})
	require.ErrorIs(t, err, boom)
	assert.Less(t, atomic.LoadInt64(&ran), int64(100))
}

func TestRunSequential(t *testing.T) {
	p := NewParallelProcessor(ParallelConfig{NumWorkers: 1}, nil)
	var order []int
	err := p.Run(5, func(i int) error {
		order = append(order, i)
		if i == 2 {
			return errors.New("stop")
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestDefaultWorkers(t *testing.T) {
	p := NewParallelProcessor(ParallelConfig{}, nil)
	assert.GreaterOrEqual(t, p.Workers(), 1)
}
