package arrowio

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
)

func ipcOptions(cfg *WriterConfig, schema *arrow.Schema) []ipc.Option {
	opts := []ipc.Option{ipc.WithSchema(schema), ipc.WithAllocator(cfg.Allocator)}
	switch cfg.Compression {
	case CompressionZstd:
		opts = append(opts, ipc.WithZstd())
	case CompressionLZ4:
		opts = append(opts, ipc.WithLZ4())
	}
	return opts
}

// recordWriter is what the IPC file and stream writers have in common.
type recordWriter interface {
	Write(rec arrow.Record) error
	Close() error
}

// writeRecords slices tbl into batches of at most BatchSize rows.
func writeRecords(rw recordWriter, tbl arrow.Table, cfg *WriterConfig) error {
	tr := array.NewTableReader(tbl, cfg.BatchSize)
	defer tr.Release()

	batches := 0
	for tr.Next() {
		if err := rw.Write(tr.Record()); err != nil {
			rw.Close()
			return errors.Wrap(err, errors.ErrorTypeIO, "failed to write record batch").WithDetail("batch", batches)
		}
		batches++
	}
	if err := tr.Err(); err != nil {
		rw.Close()
		return errors.Wrap(err, errors.ErrorTypeIO, "failed to slice table")
	}
	if err := rw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "failed to close Arrow writer")
	}
	return nil
}

func writeIPC(w io.Writer, tbl arrow.Table, cfg *WriterConfig) error {
	fw, err := ipc.NewFileWriter(sink{w}, ipcOptions(cfg, tbl.Schema())...)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "failed to create Arrow writer")
	}
	return writeRecords(fw, tbl, cfg)
}

func writeStream(w io.Writer, tbl arrow.Table, cfg *WriterConfig) error {
	return writeRecords(ipc.NewWriter(sink{w}, ipcOptions(cfg, tbl.Schema())...), tbl, cfg)
}

func readIPC(r ReadAtSeeker, cfg *ReaderConfig) (arrow.Table, error) {
	fr, err := ipc.NewFileReader(r, ipc.WithAllocator(cfg.Allocator))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to create Arrow reader")
	}
	defer fr.Close()

	recs := make([]arrow.Record, 0, fr.NumRecords())
	for i := 0; i < fr.NumRecords(); i++ {
		rec, err := fr.RecordAt(i)
		if err != nil {
			for _, r := range recs {
				r.Release()
			}
			return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to read record batch").WithDetail("batch", i)
		}
		recs = append(recs, rec)
	}
	return tableFromRecords(fr.Schema(), recs), nil
}

func readStream(r io.Reader, cfg *ReaderConfig) (arrow.Table, error) {
	sr, err := ipc.NewReader(r, ipc.WithAllocator(cfg.Allocator))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to create Arrow stream reader")
	}
	defer sr.Release()

	var recs []arrow.Record
	for sr.Next() {
		rec := sr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := sr.Err(); err != nil && err != io.EOF {
		for _, r := range recs {
			r.Release()
		}
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to read record batch").WithDetail("batch", len(recs))
	}
	return tableFromRecords(sr.Schema(), recs), nil
}
