package config

import (
	"fmt"
	"math"
	"runtime"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/logger"
)

// DefaultChunkCeiling is the largest payload, in bytes, a single chunk may
// carry: the most a 32-bit Arrow offset buffer can address.
const DefaultChunkCeiling int64 = math.MaxInt32

// ConversionConfig is the single configuration structure for the engine.
type ConversionConfig struct {
	// Conversion controls the semantics of a conversion
	Conversion ConversionSection `yaml:"conversion" json:"conversion" mapstructure:"conversion"`

	// Performance controls parallelism and chunk sizing
	Performance PerformanceSection `yaml:"performance" json:"performance" mapstructure:"performance"`

	// Observability controls logging and metrics
	Observability ObservabilitySection `yaml:"observability" json:"observability" mapstructure:"observability"`
}

// ConversionSection contains the settings that change conversion output.
type ConversionSection struct {
	// PreserveIndex stores the frame's row index as extra columns
	PreserveIndex bool `yaml:"preserve_index" json:"preserve_index" mapstructure:"preserve_index"`
	// ZeroCopyOnly makes any conversion that would copy values fail instead
	ZeroCopyOnly bool `yaml:"zero_copy_only" json:"zero_copy_only" mapstructure:"zero_copy_only"`
	// StringsToCategorical dictionary-encodes utf8 and binary columns when
	// converting to a frame
	StringsToCategorical bool `yaml:"strings_to_categorical" json:"strings_to_categorical" mapstructure:"strings_to_categorical"`
	// DateAsObject returns date columns as civil.Date values instead of
	// datetime64
	DateAsObject bool `yaml:"date_as_object" json:"date_as_object" mapstructure:"date_as_object"`
}

// PerformanceSection contains parallelism and memory bounds.
type PerformanceSection struct {
	// Threads is the number of columns converted concurrently (0 = NumCPU)
	Threads int `yaml:"threads" json:"threads" mapstructure:"threads"`
	// ChunkCeiling is the maximum payload of a single chunk in bytes
	ChunkCeiling int64 `yaml:"chunk_ceiling" json:"chunk_ceiling" mapstructure:"chunk_ceiling"`
	// UniformChunks aligns chunk boundaries across all columns of a table
	UniformChunks bool `yaml:"uniform_chunks" json:"uniform_chunks" mapstructure:"uniform_chunks"`
}

// ObservabilitySection contains logging and metrics settings.
type ObservabilitySection struct {
	// EnableMetrics records conversion counters in the default registry
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics" mapstructure:"enable_metrics"`
	// Log configures the zap logger used by the CLI
	Log logger.Config `yaml:"log" json:"log" mapstructure:"log"`
}

// DefaultConversionConfig returns a configuration with single-threaded,
// copy-permitted conversion and the 2 GiB chunk ceiling.
func DefaultConversionConfig() *ConversionConfig {
	return &ConversionConfig{
		Performance: PerformanceSection{
			Threads:      1,
			ChunkCeiling: DefaultChunkCeiling,
		},
		Observability: ObservabilitySection{
			EnableMetrics: true,
			Log:           logger.DefaultConfig(),
		},
	}
}

// Validate checks that values are within acceptable ranges.
func (c *ConversionConfig) Validate() error {
	if c.Performance.Threads < 0 {
		return errors.New(errors.ErrorTypeConfig, "threads cannot be negative").
			WithDetail("threads", c.Performance.Threads)
	}
	if c.Performance.ChunkCeiling <= 0 {
		return errors.New(errors.ErrorTypeConfig, "chunk_ceiling must be positive").
			WithDetail("chunk_ceiling", c.Performance.ChunkCeiling)
	}
	if c.Performance.ChunkCeiling > DefaultChunkCeiling {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("chunk_ceiling cannot exceed %d", DefaultChunkCeiling)).
			WithDetail("chunk_ceiling", c.Performance.ChunkCeiling)
	}
	if c.Conversion.ZeroCopyOnly && c.Conversion.StringsToCategorical {
		return errors.New(errors.ErrorTypeConfig, "strings_to_categorical requires copying and cannot be combined with zero_copy_only")
	}
	return nil
}

// GetThreads returns the number of workers, ensuring it's at least 1
func (p *PerformanceSection) GetThreads() int {
	if p.Threads <= 0 {
		return runtime.NumCPU()
	}
	return p.Threads
}

// Clone returns a copy that can be modified without affecting c.
func (c *ConversionConfig) Clone() *ConversionConfig {
	cp := *c
	if c.Observability.Log.OutputPaths != nil {
		cp.Observability.Log.OutputPaths = append([]string(nil), c.Observability.Log.OutputPaths...)
	}
	return &cp
}
