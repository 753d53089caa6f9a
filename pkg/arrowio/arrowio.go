// Package arrowio reads and writes arrow.Table values as Arrow IPC files,
// Arrow IPC streams and Parquet files. Schema metadata, including the frame
// description written by the convert package, travels with the table in
// every format.
package arrowio

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
)

// Format represents a file format
type Format string

const (
	// IPC is the Arrow IPC file format
	IPC Format = "arrow"
	// Stream is the Arrow IPC streaming format
	Stream Format = "arrows"
	// Parquet is Apache Parquet format
	Parquet Format = "parquet"
)

// Compression names a buffer codec
type Compression string

const (
	CompressionNone   Compression = ""
	CompressionZstd   Compression = "zstd"
	CompressionLZ4    Compression = "lz4"
	CompressionSnappy Compression = "snappy"
)

// WriterConfig configures table writers
type WriterConfig struct {
	Format      Format
	Compression Compression
	// BatchSize is the largest record batch (IPC) or row group (Parquet)
	// written, in rows
	BatchSize int64
	Allocator memory.Allocator
	Logger    *zap.Logger
}

// DefaultWriterConfig returns default writer configuration
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		Format:    IPC,
		BatchSize: 64 * 1024,
		Allocator: memory.DefaultAllocator,
		Logger:    zap.NewNop(),
	}
}

// ReaderConfig configures table readers
type ReaderConfig struct {
	Format    Format
	Allocator memory.Allocator
	Logger    *zap.Logger
}

// DefaultReaderConfig returns default reader configuration
func DefaultReaderConfig() *ReaderConfig {
	return &ReaderConfig{
		Format:    IPC,
		Allocator: memory.DefaultAllocator,
		Logger:    zap.NewNop(),
	}
}

// ReadAtSeeker is what random-access formats need from their source.
type ReadAtSeeker interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// FormatFromPath guesses the format from a file extension. Unknown
// extensions map to IPC.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return Parquet
	case ".arrows", ".stream":
		return Stream
	}
	return IPC
}

func (c *WriterConfig) validate() error {
	if c.BatchSize <= 0 {
		return errors.New(errors.ErrorTypeConfig, "batch size must be positive").
			WithDetail("batch_size", c.BatchSize)
	}
	switch c.Compression {
	case CompressionNone, CompressionZstd, CompressionLZ4:
	case CompressionSnappy:
		if c.Format != Parquet {
			return errors.New(errors.ErrorTypeConfig, "snappy compression is only available for parquet")
		}
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown compression %q", c.Compression)
	}
	return nil
}

func (c *WriterConfig) defaults() {
	if c.Allocator == nil {
		c.Allocator = memory.DefaultAllocator
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// WriteTable writes tbl to w in the configured format.
func WriteTable(w io.Writer, tbl arrow.Table, config *WriterConfig) error {
	if config == nil {
		config = DefaultWriterConfig()
	}
	cfg := *config
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return err
	}

	var err error
	switch cfg.Format {
	case IPC:
		err = writeIPC(w, tbl, &cfg)
	case Stream:
		err = writeStream(w, tbl, &cfg)
	case Parquet:
		err = writeParquet(w, tbl, &cfg)
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unsupported format %q", cfg.Format)
	}
	if err != nil {
		return err
	}
	cfg.Logger.Debug("wrote table",
		zap.String("format", string(cfg.Format)),
		zap.Int64("rows", tbl.NumRows()),
		zap.Int64("columns", tbl.NumCols()))
	return nil
}

// ReadTable reads a whole table from r. Streams only need r to be an
// io.Reader; the other formats seek.
func ReadTable(r ReadAtSeeker, config *ReaderConfig) (arrow.Table, error) {
	if config == nil {
		config = DefaultReaderConfig()
	}
	cfg := *config
	if cfg.Allocator == nil {
		cfg.Allocator = memory.DefaultAllocator
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	var (
		tbl arrow.Table
		err error
	)
	switch cfg.Format {
	case IPC:
		tbl, err = readIPC(r, &cfg)
	case Stream:
		tbl, err = readStream(r, &cfg)
	case Parquet:
		tbl, err = readParquet(r, &cfg)
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported format %q", cfg.Format)
	}
	if err != nil {
		return nil, err
	}
	cfg.Logger.Debug("read table",
		zap.String("format", string(cfg.Format)),
		zap.Int64("rows", tbl.NumRows()),
		zap.Int64("columns", tbl.NumCols()))
	return tbl, nil
}

// WriteFile writes tbl to path. An empty format is taken from the file
// extension.
func WriteFile(path string, tbl arrow.Table, config *WriterConfig) (err error) {
	if config == nil {
		config = DefaultWriterConfig()
		config.Format = ""
	}
	if config.Format == "" {
		cp := *config
		cp.Format = FormatFromPath(path)
		config = &cp
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "cannot create output file").WithDetail("path", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, errors.ErrorTypeIO, "cannot close output file").WithDetail("path", path)
		}
	}()
	return WriteTable(f, tbl, config)
}

// ReadFile reads the table stored at path. An empty format is taken from
// the file extension.
func ReadFile(path string, config *ReaderConfig) (arrow.Table, error) {
	if config == nil {
		config = DefaultReaderConfig()
		config.Format = ""
	}
	if config.Format == "" {
		cp := *config
		cp.Format = FormatFromPath(path)
		config = &cp
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "cannot open input file").WithDetail("path", path)
	}
	defer f.Close()
	return ReadTable(f, config)
}

// tableFromRecords assembles records into a table and releases them.
func tableFromRecords(schema *arrow.Schema, recs []arrow.Record) arrow.Table {
	tbl := array.NewTableFromRecords(schema, recs)
	for _, rec := range recs {
		rec.Release()
	}
	return tbl
}
