package pipeline

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ParallelProcessor runs independent, CPU-bound tasks on a fixed number of
// workers. Tasks write their results into caller-owned slots by index, so
// result order never depends on completion order.
type ParallelProcessor struct {
	name       string
	logger     *zap.Logger
	numWorkers int

	// Performance metrics
	tasksProcessed int64
	processingTime int64 // nanoseconds
}

// ParallelConfig configures the parallel processor
type ParallelConfig struct {
	Name       string
	NumWorkers int // 0 = auto (NumCPU)
}

// NewParallelProcessor creates a new parallel processor
func NewParallelProcessor(config ParallelConfig, logger *zap.Logger) *ParallelProcessor {
	if config.NumWorkers <= 0 {
		config.NumWorkers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParallelProcessor{
		name:       config.Name,
		logger:     logger,
		numWorkers: config.NumWorkers,
	}
}

// Workers returns the worker count.
func (p *ParallelProcessor) Workers() int { return p.numWorkers }

// Run calls fn for every index in [0, n). The first error stops tasks that
// have not started yet and is returned once running tasks finish.
func (p *ParallelProcessor) Run(n int, fn func(i int) error) error {
	start := time.Now()
	defer func() {
		atomic.AddInt64(&p.processingTime, int64(time.Since(start)))
	}()

	if p.numWorkers == 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
			atomic.AddInt64(&p.tasksProcessed, 1)
		}
		return nil
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(p.numWorkers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if err := fn(i); err != nil {
				return err
			}
			atomic.AddInt64(&p.tasksProcessed, 1)
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		p.logger.Debug("parallel run aborted",
			zap.String("processor", p.name),
			zap.Int("tasks", n),
			zap.Error(err))
	}
	return err
}

// Stats returns the number of completed tasks and total time spent in Run.
func (p *ParallelProcessor) Stats() (processed int64, elapsed time.Duration) {
	return atomic.LoadInt64(&p.tasksProcessed), time.Duration(atomic.LoadInt64(&p.processingTime))
}
