package convert

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/ajitpratap0/arrowframe/pkg/config"
	"github.com/ajitpratap0/arrowframe/pkg/metrics"
)

// Option configures a single conversion call.
type Option func(*options)

type options struct {
	cfg    *config.ConversionConfig
	schema *arrow.Schema
	typ    arrow.DataType
	mask   []bool
	mem    memory.Allocator
	logger *zap.Logger
}

func newOptions(opts []Option) (*options, error) {
	o := &options{
		cfg:    config.DefaultConversionConfig(),
		mem:    memory.DefaultAllocator,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *options) collector(component string) *metrics.Collector {
	if !o.cfg.Observability.EnableMetrics {
		return nil
	}
	return metrics.NewCollector(component)
}

// WithConfig replaces the whole configuration. Options after it refine the
// replacement; options before it are overwritten.
func WithConfig(cfg *config.ConversionConfig) Option {
	return func(o *options) { o.cfg = cfg.Clone() }
}

// WithSchema supplies a full or partial target schema. Declared fields are
// matched to columns by name and converted to the declared type; other
// columns are inferred and appended.
func WithSchema(schema *arrow.Schema) Option {
	return func(o *options) { o.schema = schema }
}

// WithType converts a single series to an explicit type instead of the
// inferred one.
func WithType(dt arrow.DataType) Option {
	return func(o *options) { o.typ = dt }
}

// WithMask marks additional rows of a single series as null. The mask is
// combined with the series' own sentinels.
func WithMask(mask []bool) Option {
	return func(o *options) { o.mask = mask }
}

// WithPreserveIndex stores the frame's row index as extra columns.
func WithPreserveIndex(preserve bool) Option {
	return func(o *options) { o.cfg.Conversion.PreserveIndex = preserve }
}

// WithThreads sets how many columns are converted concurrently. Zero means
// one per CPU.
func WithThreads(n int) Option {
	return func(o *options) { o.cfg.Performance.Threads = n }
}

// WithZeroCopyOnly fails any conversion that cannot alias its source
// buffer.
func WithZeroCopyOnly(zeroCopy bool) Option {
	return func(o *options) { o.cfg.Conversion.ZeroCopyOnly = zeroCopy }
}

// WithStringsToCategorical dictionary-encodes utf8 and binary columns when
// converting to a frame.
func WithStringsToCategorical(enable bool) Option {
	return func(o *options) { o.cfg.Conversion.StringsToCategorical = enable }
}

// WithDatesAsObjects returns date32 and date64 columns as civil.Date values
// instead of datetime64.
func WithDatesAsObjects(enable bool) Option {
	return func(o *options) { o.cfg.Conversion.DateAsObject = enable }
}

// WithChunkCeiling sets the largest payload, in bytes, a single chunk may
// hold.
func WithChunkCeiling(bytes int64) Option {
	return func(o *options) { o.cfg.Performance.ChunkCeiling = bytes }
}

// WithUniformChunks aligns chunk boundaries across all columns.
func WithUniformChunks(uniform bool) Option {
	return func(o *options) { o.cfg.Performance.UniformChunks = uniform }
}

// WithAllocator sets the Arrow allocator for every buffer the conversion
// creates.
func WithAllocator(mem memory.Allocator) Option {
	return func(o *options) { o.mem = mem }
}

// WithLogger sets the logger that receives per-column decisions at debug
// level.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics enables or disables Prometheus metrics for the call.
func WithMetrics(enable bool) Option {
	return func(o *options) { o.cfg.Observability.EnableMetrics = enable }
}

// plain returns a copy of o for converting auxiliary arrays, such as
// dictionary values, that must come back as ordinary series.
func (o *options) plain() *options {
	cp := *o
	cp.cfg = o.cfg.Clone()
	cp.cfg.Conversion.ZeroCopyOnly = false
	cp.cfg.Conversion.StringsToCategorical = false
	cp.schema, cp.typ, cp.mask = nil, nil, nil
	return &cp
}
