package convert

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"go.uber.org/zap"

	"github.com/ajitpratap0/arrowframe/internal/pipeline"
	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
	"github.com/ajitpratap0/arrowframe/pkg/metrics"
)

// tableColumn is one stored column: a frame column or a preserved index
// level.
type tableColumn struct {
	series   *frame.Series
	label    frame.Label
	field    string
	target   arrow.DataType
	nullable bool
	metadata arrow.Metadata
}

// TableFromFrame converts a frame to a table. Columns are converted in
// parallel when WithThreads allows it, but always appear in frame order,
// followed by preserved index levels. Any column error aborts the whole
// conversion and no table is returned.
func TableFromFrame(df *frame.Frame, opts ...Option) (arrow.Table, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	const op = "table_from_frame"
	collector := o.collector(op)
	timer := metrics.NewTimer(op)
	defer func() { collector.ObserveLatency(op, timer.Stop()) }()

	tbl, err := tableFromFrame(df, o, collector)
	if err != nil {
		collector.Error(op, string(errors.TypeOf(err)))
		return nil, err
	}
	return tbl, nil
}

func tableFromFrame(df *frame.Frame, o *options, collector *metrics.Collector) (arrow.Table, error) {
	cols, index, err := layoutColumns(df, o)
	if err != nil {
		return nil, err
	}

	proc := pipeline.NewParallelProcessor(pipeline.ParallelConfig{
		Name:       "table_from_frame",
		NumWorkers: o.cfg.Performance.GetThreads(),
	}, o.logger)

	plans := make([]*columnPlan, len(cols))
	defer func() {
		for _, p := range plans {
			p.release()
		}
	}()
	err = proc.Run(len(cols), func(i int) error {
		c := cols[i]
		p, err := planColumn(c.series, c.target, c.nullable, nil, o)
		if err != nil {
			return errors.Column(err, c.field)
		}
		plans[i] = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if o.cfg.Performance.UniformChunks && len(plans) > 0 {
		all := make([][]Range, len(plans))
		for i, p := range plans {
			all[i] = p.ranges
		}
		aligned := AlignPlans(all)
		if len(aligned) > 1 && o.cfg.Conversion.ZeroCopyOnly {
			return nil, CheckZeroCopy(plans[0].dt, 0, len(aligned), false)
		}
		for _, p := range plans {
			p.ranges = aligned
			p.zeroCopy = p.zeroCopy && len(aligned) == 1
		}
	}

	chunked := make([]*arrow.Chunked, len(cols))
	defer func() {
		for _, ch := range chunked {
			if ch != nil {
				ch.Release()
			}
		}
	}()
	err = proc.Run(len(cols), func(i int) error {
		ch, err := plans[i].build(o.mem)
		if err != nil {
			return errors.Column(err, cols[i].field)
		}
		chunked[i] = ch
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{Name: c.field, Type: plans[i].dt, Nullable: c.nullable, Metadata: c.metadata}
		collector.ColumnConverted(metrics.DirectionToArrow, plans[i].dt.ID().String(), plans[i].zeroCopy)
		collector.Chunks(len(chunked[i].Chunks()))
		o.logger.Debug("converted column",
			zap.String("column", c.field),
			zap.Stringer("type", plans[i].dt),
			zap.Int("chunks", len(chunked[i].Chunks())),
			zap.Bool("zero_copy", plans[i].zeroCopy))
	}

	md := buildMetadata(df, cols, plans, chunked, index)
	meta, err := md.Schema()
	if err != nil {
		return nil, err
	}
	schema := arrow.NewSchema(fields, &meta)

	columns := make([]arrow.Column, len(cols))
	for i := range cols {
		columns[i] = *arrow.NewColumn(fields[i], chunked[i])
	}
	tbl := array.NewTable(schema, columns, int64(df.NumRows()))
	for i := range columns {
		columns[i].Release()
	}

	o.logger.Debug("converted frame",
		zap.Int("columns", len(cols)),
		zap.Int("rows", df.NumRows()),
		zap.Int("index_levels", len(index)))
	return tbl, nil
}

// layoutColumns orders the stored columns: fields declared by the target
// schema first, in schema order, then the remaining frame columns in frame
// order, then preserved index levels. Duplicate names are rejected before
// anything is converted.
func layoutColumns(df *frame.Frame, o *options) ([]tableColumn, []IndexColumn, error) {
	labels := df.ColumnNames()
	fieldNames := make([]string, len(labels))
	taken := make(map[string]bool, len(labels))
	for i, l := range labels {
		name := frame.FormatLabel(l)
		if taken[name] {
			return nil, nil, errors.Newf(errors.ErrorTypeSchemaMismatch, "duplicate column name %q", name).
				WithDetail("column", name)
		}
		taken[name] = true
		fieldNames[i] = name
	}

	cols := make([]tableColumn, 0, len(labels))
	used := make([]bool, len(labels))
	if o.schema != nil {
		for _, f := range o.schema.Fields() {
			i := indexOf(fieldNames, f.Name)
			if i < 0 {
				return nil, nil, errors.Newf(errors.ErrorTypeSchemaMismatch, "schema field %q has no matching column", f.Name).
					WithDetail("column", f.Name)
			}
			used[i] = true
			cols = append(cols, tableColumn{
				series:   df.Column(i),
				label:    labels[i],
				field:    f.Name,
				target:   f.Type,
				nullable: f.Nullable,
				metadata: f.Metadata,
			})
		}
	}
	for i, l := range labels {
		if used[i] {
			continue
		}
		cols = append(cols, tableColumn{series: df.Column(i), label: l, field: fieldNames[i], nullable: true})
	}

	index := []IndexColumn{}
	if !o.cfg.Conversion.PreserveIndex {
		return cols, index, nil
	}

	ix := df.Index()
	if ix.IsRange() {
		start, stop, step := ix.Range()
		index = append(index, IndexColumn{Range: &RangeDescriptor{
			Kind:  "range",
			Name:  encodeLabel(ix.Names()[0]),
			Start: start,
			Stop:  stop,
			Step:  step,
		}})
		return cols, index, nil
	}
	for lvl, s := range ix.Levels() {
		field := uniqueName(indexFieldName(s.Name(), lvl), taken)
		taken[field] = true
		cols = append(cols, tableColumn{series: s, label: s.Name(), field: field, nullable: true})
		index = append(index, IndexColumn{Field: field})
	}
	return cols, index, nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// buildMetadata records every stored column, the index layout and the
// column axis.
func buildMetadata(df *frame.Frame, cols []tableColumn, plans []*columnPlan, chunked []*arrow.Chunked, index []IndexColumn) *PandasMetadata {
	md := &PandasMetadata{
		IndexColumns:  index,
		ColumnIndexes: buildColumnIndexes(df),
		Columns:       make([]ColumnMetadata, 0, len(cols)),
		Creator:       Creator{Library: Library, Version: Version},
	}
	for i, c := range cols {
		pt, tm := pandasType(plans[i].dt, dictionarySize(chunked[i]))
		md.Columns = append(md.Columns, ColumnMetadata{
			Name:       encodeLabel(c.label),
			FieldName:  c.field,
			PandasType: pt,
			NumpyType:  numpyType(c.series),
			Metadata:   tm,
		})
	}
	return md
}

func dictionarySize(ch *arrow.Chunked) int {
	if len(ch.Chunks()) == 0 {
		return 0
	}
	arr, ok := ch.Chunk(0).(*array.Dictionary)
	if !ok {
		return 0
	}
	return arr.Dictionary().Len()
}

// RecordFromFrame converts a frame to a single record batch. A column that
// needs more than one chunk fails with a capacity error.
func RecordFromFrame(df *frame.Frame, opts ...Option) (arrow.Record, error) {
	tbl, err := TableFromFrame(df, opts...)
	if err != nil {
		return nil, err
	}
	defer tbl.Release()

	cols := make([]arrow.Array, tbl.NumCols())
	for i := range cols {
		ch := tbl.Column(i).Data()
		if len(ch.Chunks()) != 1 {
			return nil, errors.Newf(errors.ErrorTypeCapacity, "column %q needs %d chunks and cannot form one record batch", tbl.Column(i).Name(), len(ch.Chunks())).
				WithDetail("column", tbl.Column(i).Name())
		}
		cols[i] = ch.Chunk(0)
	}
	return array.NewRecord(tbl.Schema(), cols, tbl.NumRows()), nil
}

// TableToFrame converts a table to a frame. Stored metadata restores
// logical column names, the row index and the column axis; without it
// field names become column labels and the index is a default range.
func TableToFrame(tbl arrow.Table, opts ...Option) (*frame.Frame, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	const op = "table_to_frame"
	collector := o.collector(op)
	timer := metrics.NewTimer(op)
	defer func() { collector.ObserveLatency(op, timer.Stop()) }()

	df, err := tableToFrame(tbl, o, collector)
	if err != nil {
		collector.Error(op, string(errors.TypeOf(err)))
		return nil, err
	}
	return df, nil
}

func tableToFrame(tbl arrow.Table, o *options, collector *metrics.Collector) (*frame.Frame, error) {
	schema := tbl.Schema()
	md, err := ParseMetadata(schema.Metadata())
	if err != nil {
		return nil, err
	}

	proc := pipeline.NewParallelProcessor(pipeline.ParallelConfig{
		Name:       "table_to_frame",
		NumWorkers: o.cfg.Performance.GetThreads(),
	}, o.logger)

	series := make([]*frame.Series, tbl.NumCols())
	err = proc.Run(len(series), func(i int) error {
		col := tbl.Column(i)
		s, err := chunkedToSeries(columnLabel(md, col.Name()), col.DataType(), col.Data().Chunks(), o)
		if err != nil {
			return errors.Column(err, col.Name())
		}
		series[i] = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	indexFields := make(map[string]bool)
	var rangeIndex *RangeDescriptor
	if md != nil {
		for _, ic := range md.IndexColumns {
			if ic.Range != nil {
				rangeIndex = ic.Range
				continue
			}
			indexFields[ic.Field] = true
		}
	}

	data := make([]*frame.Series, 0, len(series))
	levelByField := make(map[string]*frame.Series)
	for i, s := range series {
		field := schema.Field(i).Name
		collector.ColumnConverted(metrics.DirectionToFrame, schema.Field(i).Type.ID().String(),
			aliasesSource(schema.Field(i).Type, o.cfg.Conversion.ZeroCopyOnly))
		if indexFields[field] {
			levelByField[field] = s
			continue
		}
		data = append(data, s)
	}

	n := int(tbl.NumRows())
	frameOpts := []frame.Option{frame.WithNumRows(n)}

	var levels []*frame.Series
	if md != nil {
		for _, ic := range md.IndexColumns {
			if s, ok := levelByField[ic.Field]; ok && ic.Range == nil {
				levels = append(levels, s)
			}
		}
	}
	switch {
	case len(levels) > 0:
		frameOpts = append(frameOpts, frame.WithIndex(frame.NewIndex(levels...)))
	case rangeIndex != nil && rangeIndex.Step != 0:
		ix := frame.NewRangeIndex(rangeIndex.Name, rangeIndex.Start, rangeIndex.Stop, rangeIndex.Step)
		if ix.Len() == n {
			frameOpts = append(frameOpts, frame.WithIndex(ix))
		} else {
			o.logger.Debug("ignoring range index of mismatched length",
				zap.Int("index_rows", ix.Len()),
				zap.Int("rows", n))
		}
	}

	if md != nil {
		labels := make([]frame.Label, len(data))
		for i, s := range data {
			labels[i] = s.Name()
		}
		if axis := md.axis(labels); axis != nil {
			for i, l := range axisTimes(axis, labels) {
				if !frame.ValuesEqual(l, labels[i]) {
					data[i] = data[i].Rename(l)
				}
			}
			frameOpts = append(frameOpts, frame.WithColumnAxis(axis))
		}
	}

	df, err := frame.New(data, frameOpts...)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("converted table",
		zap.Int("columns", df.NumCols()),
		zap.Int("rows", n),
		zap.Int("index_levels", len(levels)))
	return df, nil
}

// columnLabel returns the logical label recorded for a field, or the field
// name itself.
func columnLabel(md *PandasMetadata, field string) frame.Label {
	if md != nil {
		if c, ok := md.column(field); ok {
			return c.Name
		}
	}
	return field
}

// RecordToFrame converts a single record batch to a frame.
func RecordToFrame(rec arrow.Record, opts ...Option) (*frame.Frame, error) {
	tbl := array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec})
	defer tbl.Release()
	return TableToFrame(tbl, opts...)
}

// ConcatTables appends the rows of tables with equal schemas. Chunks are
// shared, not copied, and the first table's metadata is kept.
func ConcatTables(tables ...arrow.Table) (arrow.Table, error) {
	if len(tables) == 0 {
		return nil, errors.New(errors.ErrorTypeInvalid, "no tables to concatenate")
	}
	schema := tables[0].Schema()
	var rows int64
	for i, t := range tables {
		if !schema.Equal(t.Schema()) {
			return nil, errors.Newf(errors.ErrorTypeSchemaMismatch, "table %d has schema %s, expected %s", i, t.Schema(), schema).
				WithDetail("table", i)
		}
		rows += t.NumRows()
	}

	columns := make([]arrow.Column, schema.NumFields())
	for i := range columns {
		var chunks []arrow.Array
		for _, t := range tables {
			chunks = append(chunks, t.Column(i).Data().Chunks()...)
		}
		ch := arrow.NewChunked(schema.Field(i).Type, chunks)
		columns[i] = *arrow.NewColumn(schema.Field(i), ch)
		ch.Release()
	}
	tbl := array.NewTable(schema, columns, rows)
	for i := range columns {
		columns[i].Release()
	}
	return tbl, nil
}

// RemoveColumn returns a table without column i. Metadata is kept, so a
// removed index level is simply skipped when converting back.
func RemoveColumn(tbl arrow.Table, i int) (arrow.Table, error) {
	n := int(tbl.NumCols())
	if i < 0 || i >= n {
		return nil, errors.Newf(errors.ErrorTypeInvalid, "column %d out of range [0, %d)", i, n)
	}
	schema := tbl.Schema()
	fields := make([]arrow.Field, 0, n-1)
	columns := make([]arrow.Column, 0, n-1)
	for j := 0; j < n; j++ {
		if j == i {
			continue
		}
		fields = append(fields, schema.Field(j))
		columns = append(columns, *tbl.Column(j))
	}
	md := schema.Metadata()
	return array.NewTable(arrow.NewSchema(fields, &md), columns, tbl.NumRows()), nil
}
