// Package arrowframe converts between in-memory frames and Apache Arrow
// tables without losing what the frame knows about itself.
//
// A frame (package frame) is a two-dimensional, column-labelled table whose
// columns carry numpy-style dtypes, dynamically typed object values or
// categoricals, plus a row index and a possibly hierarchical column axis.
// Arrow tables are strongly typed and immutable. Package convert maps one to
// the other in both directions:
//
//   - Object columns are type-inferred: integers, floats, booleans, strings,
//     bytes, decimals, dates, times, timestamps, lists and structs.
//   - Missing values are unified from masks, NaN, NaT and nil sentinels into
//     Arrow validity bitmaps.
//   - Numeric columns without nulls alias the frame's buffer when the
//     zero-copy gate allows it; WithZeroCopyOnly turns every copy into an
//     error.
//   - Categoricals become dictionary arrays; dictionaries of several chunks
//     are unified on the way back.
//   - Index levels, logical column names and the column axis travel in a
//     "pandas" JSON blob in the schema metadata.
//   - Columns are split into chunks that stay under a byte ceiling, and
//     converted in parallel.
//
// # Quick Start
//
//	df := frame.MustNew([]*frame.Series{
//	    frame.NewNumeric("id", []int64{1, 2, 3}),
//	    frame.NewStrings("name", "a", "b", "c"),
//	})
//
//	tbl, err := convert.TableFromFrame(df, convert.WithPreserveIndex(true))
//	if err != nil {
//	    return err
//	}
//	defer tbl.Release()
//
//	back, err := convert.TableToFrame(tbl)
//
// Tables can be stored as Arrow IPC files, IPC streams or Parquet with
// package arrowio; the schema metadata survives all three.
//
// # Configuration
//
// Every conversion takes functional options, or a whole
// config.ConversionConfig through convert.WithConfig. Configurations load
// from YAML with ${ENV} substitution:
//
//	conversion:
//	  preserve_index: true
//	  strings_to_categorical: false
//	performance:
//	  threads: 0          # one per CPU
//	  chunk_ceiling: 67108864
//	observability:
//	  enable_metrics: true
//	  log:
//	    level: debug
//
// # Errors
//
// Failures are *errors.Error values classified by type (type_inference,
// zero_copy, bounds, schema_mismatch, fixed_width, capacity, invalid, config,
// io) with details naming the column and row involved:
//
//	if errors.IsType(err, errors.ErrorTypeZeroCopy) {
//	    reason, _ := err.(*errors.Error).Detail("reason")
//	}
//
// # Command line
//
// cmd/arrowframe converts CSV files into tables and inspects table files:
//
//	arrowframe convert trades.csv trades.parquet --index-col id
//	arrowframe inspect trades.parquet --rows 10
package arrowframe
