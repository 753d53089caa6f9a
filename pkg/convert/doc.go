// Package convert translates between Arrow columnar data and frames.
//
// The forward direction (TableFromFrame, RecordFromFrame, ArrayFromSeries,
// ChunkedFromSeries) runs each column through the same steps: infer or
// take the target type, resolve one null mask from the column's sentinels
// and any explicit mask, consult the zero-copy gate, plan chunks against the
// byte ceiling and finally build the arrays. The frame's logical names, row
// index and column axis are stored as JSON under the "pandas" schema
// metadata key.
//
// The reverse direction (TableToFrame, RecordToFrame, ArrayToSeries,
// ChunkedToSeries) reads that metadata back, validates dictionary indices
// before touching dictionary values and reinserts sentinels where the
// bitmap marks nulls: NaN for integer and float columns, NaT for datetimes,
// nil for object columns.
//
// # Usage
//
//	tbl, err := convert.TableFromFrame(df,
//		convert.WithPreserveIndex(true),
//		convert.WithThreads(4))
//	if err != nil {
//		return err
//	}
//	defer tbl.Release()
//
//	back, err := convert.TableToFrame(tbl, convert.WithStringsToCategorical(true))
//
// # Errors
//
// Every failure is an *errors.Error whose Type classifies it:
// type_inference, zero_copy, bounds, schema_mismatch, fixed_width or
// capacity. Zero-copy failures carry the first disqualifying reason under
// the "reason" detail; see ZeroCopyReason.
//
// # Memory
//
// Arrays are allocated from the allocator given by WithAllocator. Numeric
// columns whose type needs no cast alias the frame's slices instead of
// copying them, and WithZeroCopyOnly makes the reverse direction return
// views of Arrow buffers. Callers own every returned table, record and
// array and must Release them.
package convert
