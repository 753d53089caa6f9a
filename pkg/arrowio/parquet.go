package arrowio

import (
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
)

// arrowSchemaKey is the file metadata entry pqarrow uses for the serialized
// Arrow schema.
const arrowSchemaKey = "ARROW:schema"

func parquetCodec(c Compression) compress.Compression {
	switch c {
	case CompressionZstd:
		return compress.Codecs.Zstd
	case CompressionLZ4:
		return compress.Codecs.Lz4Raw
	case CompressionSnappy:
		return compress.Codecs.Snappy
	}
	return compress.Codecs.Uncompressed
}

// sink and source hide Close from the parquet writer and reader, which
// otherwise close any io.Closer they are given. The caller owns both.
type (
	sink   struct{ io.Writer }
	source struct{ ReadAtSeeker }
)

// writeParquet stores the Arrow schema alongside the Parquet one so types
// survive the round trip; schema metadata goes to the file key-value
// metadata.
func writeParquet(w io.Writer, tbl arrow.Table, cfg *WriterConfig) error {
	props := parquet.NewWriterProperties(
		parquet.WithCompression(parquetCodec(cfg.Compression)),
		parquet.WithAllocator(cfg.Allocator),
	)
	arrProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithStoreSchema(),
		pqarrow.WithAllocator(cfg.Allocator),
	)
	if err := pqarrow.WriteTable(tbl, sink{w}, cfg.BatchSize, props, arrProps); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "failed to write parquet file")
	}
	return nil
}

func readParquet(r ReadAtSeeker, cfg *ReaderConfig) (arrow.Table, error) {
	pf, err := file.NewParquetReader(source{r}, file.WithReadProps(parquet.NewReaderProperties(cfg.Allocator)))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to open parquet file")
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{Parallel: true}, cfg.Allocator)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to read parquet schema")
	}
	tbl, err := fr.ReadTable(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to read parquet file")
	}

	kv := pf.MetaData().KeyValueMetadata()
	var keys, values []string
	for i, k := range kv.Keys() {
		if k == arrowSchemaKey {
			continue
		}
		keys = append(keys, k)
		values = append(values, kv.Values()[i])
	}
	if len(keys) == 0 || tbl.Schema().Metadata().Len() > 0 {
		return tbl, nil
	}
	return withMetadata(tbl, arrow.NewMetadata(keys, values)), nil
}

// withMetadata returns tbl with md attached to its schema and releases tbl.
func withMetadata(tbl arrow.Table, md arrow.Metadata) arrow.Table {
	defer tbl.Release()
	cols := make([]arrow.Column, tbl.NumCols())
	for i := range cols {
		cols[i] = *tbl.Column(i)
	}
	schema := arrow.NewSchema(tbl.Schema().Fields(), &md)
	return array.NewTable(schema, cols, tbl.NumRows())
}
