// Package metrics provides conversion observability for arrowframe using
// Prometheus metrics.
//
// # Overview
//
// The package registers a small set of collectors with the default
// Prometheus registry:
//   - columns converted, by direction and Arrow type
//   - conversions that aliased the source buffer instead of copying
//   - conversion failures, by error type
//   - chunks produced when a column is split
//   - end-to-end conversion latency
//
// # Basic Usage
//
//	collector := metrics.NewCollector("convert")
//	timer := metrics.NewTimer("table_from_frame")
//	tbl, err := build()
//	collector.ObserveLatency(timer.Name(), timer.Stop())
//
// A nil *Collector is valid and records nothing, which is how conversions run
// with metrics disabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Direction labels.
const (
	DirectionToArrow = "to_arrow"
	DirectionToFrame = "to_frame"
)

var (
	// ColumnsConverted counts converted columns.
	// Labels: direction (to_arrow/to_frame), type (Arrow type name)
	//
	// Example:
	//	metrics.ColumnsConverted.WithLabelValues("to_arrow", "int64").Inc()
	ColumnsConverted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arrowframe_columns_converted_total",
			Help: "Total number of columns converted",
		},
		[]string{"direction", "type"},
	)

	// ZeroCopyConversions counts columns whose values were aliased rather than
	// copied. Labels: direction
	ZeroCopyConversions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arrowframe_zero_copy_conversions_total",
			Help: "Total number of column conversions that aliased the source buffer",
		},
		[]string{"direction"},
	)

	// ConversionErrors counts failed conversions.
	// Labels: operation, error_type
	ConversionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arrowframe_conversion_errors_total",
			Help: "Total number of failed conversions",
		},
		[]string{"operation", "error_type"},
	)

	// ChunksProduced counts chunks emitted by the chunk planner.
	ChunksProduced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arrowframe_chunks_produced_total",
			Help: "Total number of column chunks produced",
		},
	)

	// ConversionLatency tracks the distribution of conversion latencies in
	// nanoseconds. Labels: operation
	ConversionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "arrowframe_conversion_latency_nanoseconds",
			Help: "Conversion latency in nanoseconds",
			Buckets: []float64{
				1000,  // 1μs - single small column
				10000, // 10μs
				1e5,   // 100μs
				1e6,   // 1ms
				1e7,   // 10ms
				1e8,   // 100ms - wide or nested tables
				1e9,   // 1s
				1e10,  // 10s - multi-gigabyte columns
			},
		},
		[]string{"operation"},
	)
)

// Collector records conversion metrics for one component. Each conversion
// call creates its own collector; a nil collector is a no-op.
type Collector struct {
	name      string
	startTime time.Time
}

// NewCollector creates a new metrics collector for a component.
func NewCollector(name string) *Collector {
	return &Collector{
		name:      name,
		startTime: time.Now(),
	}
}

// Name returns the component name.
func (c *Collector) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// ColumnConverted records one converted column.
func (c *Collector) ColumnConverted(direction, arrowType string, zeroCopy bool) {
	if c == nil {
		return
	}
	ColumnsConverted.WithLabelValues(direction, arrowType).Inc()
	if zeroCopy {
		ZeroCopyConversions.WithLabelValues(direction).Inc()
	}
}

// Chunks records the number of chunks a column was split into.
func (c *Collector) Chunks(n int) {
	if c == nil || n <= 0 {
		return
	}
	ChunksProduced.Add(float64(n))
}

// Error records a failed operation.
func (c *Collector) Error(operation, errorType string) {
	if c == nil {
		return
	}
	if errorType == "" {
		errorType = "unknown"
	}
	ConversionErrors.WithLabelValues(operation, errorType).Inc()
}

// ObserveLatency records how long an operation took.
func (c *Collector) ObserveLatency(operation string, d time.Duration) {
	if c == nil {
		return
	}
	ConversionLatency.WithLabelValues(operation).Observe(float64(d.Nanoseconds()))
}

// StartTime returns when the collector was created
func (c *Collector) StartTime() time.Time {
	if c == nil {
		return time.Time{}
	}
	return c.startTime
}

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
//
// Example:
//
//	timer := metrics.NewTimer("table_to_frame")
//	df, err := convert.TableToFrame(tbl)
//	logger.Info("converted", zap.Duration("duration", timer.Stop()))
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the operation the timer measures.
func (t *Timer) Name() string { return t.name }

// Stop returns the elapsed duration since creation. The timer can be stopped
// multiple times.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
