package frame

import (
	"time"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
)

// AxisLevel describes one level of the column labels.
type AxisLevel struct {
	Name    Label
	Dtype   Dtype
	Ordered bool
}

// ColumnAxis describes the structure of the column labels. A frame whose
// labels are Tuples has one level per tuple element.
type ColumnAxis struct {
	Levels []AxisLevel
}

// DefaultAxis derives an unnamed axis from the column labels.
func DefaultAxis(labels []Label) *ColumnAxis {
	depth := 1
	if len(labels) > 0 {
		if t, ok := labels[0].(Tuple); ok && len(t) > 0 {
			depth = len(t)
		}
	}
	levels := make([]AxisLevel, depth)
	for lvl := range levels {
		values := make([]Label, 0, len(labels))
		for _, l := range labels {
			if t, ok := l.(Tuple); ok {
				if lvl < len(t) {
					values = append(values, t[lvl])
				}
				continue
			}
			values = append(values, l)
		}
		levels[lvl] = AxisLevel{Dtype: labelDtype(values)}
	}
	return &ColumnAxis{Levels: levels}
}

func labelDtype(values []Label) Dtype {
	if len(values) == 0 {
		return Object
	}
	var ints, floats, times int
	tz := ""
	for _, v := range values {
		switch x := v.(type) {
		case time.Time:
			times++
			if loc := x.Location(); loc != time.UTC {
				tz = loc.String()
			}
		case float32, float64:
			floats++
		default:
			if IsInteger(v) {
				ints++
			}
		}
	}
	switch len(values) {
	case ints:
		return Int64
	case floats, ints + floats:
		return Float64
	case times:
		return Datetime64(Nanosecond, tz)
	}
	return Object
}

// Names returns the name of each axis level.
func (a *ColumnAxis) Names() []Label {
	names := make([]Label, len(a.Levels))
	for i, l := range a.Levels {
		names[i] = l.Name
	}
	return names
}

// Frame is a dynamically typed table: ordered columns, a row index and a
// description of the column labels.
type Frame struct {
	columns []*Series
	index   *Index
	axis    *ColumnAxis
	n       int
}

// Option configures a Frame built by New.
type Option func(*Frame)

// WithIndex sets the row index.
func WithIndex(ix *Index) Option {
	return func(f *Frame) { f.index = ix }
}

// WithColumnAxis sets the column axis description.
func WithColumnAxis(ax *ColumnAxis) Option {
	return func(f *Frame) { f.axis = ax }
}

// WithNumRows sets the row count of a frame without columns.
func WithNumRows(n int) Option {
	return func(f *Frame) { f.n = n }
}

// New builds a frame. Columns must have equal length, and a supplied index
// must label exactly that many rows.
func New(columns []*Series, opts ...Option) (*Frame, error) {
	f := &Frame{columns: columns, n: -1}
	for _, opt := range opts {
		opt(f)
	}

	switch {
	case len(columns) > 0:
		f.n = columns[0].Len()
	case f.index != nil:
		f.n = f.index.Len()
	case f.n < 0:
		f.n = 0
	}

	for _, c := range columns {
		if c.Len() != f.n {
			return nil, errors.Newf(errors.ErrorTypeInvalid, "column %s has %d rows, expected %d", FormatLabel(c.Name()), c.Len(), f.n).
				WithDetail("column", FormatLabel(c.Name()))
		}
	}

	if f.index == nil {
		f.index = RangeIndex(f.n)
	}
	if f.index.Len() != f.n {
		return nil, errors.Newf(errors.ErrorTypeInvalid, "index has %d rows, expected %d", f.index.Len(), f.n)
	}
	if !f.index.IsRange() {
		for _, l := range f.index.levels {
			if l.Len() != f.n {
				return nil, errors.Newf(errors.ErrorTypeInvalid, "index level %s has %d rows, expected %d", FormatLabel(l.Name()), l.Len(), f.n)
			}
		}
	}

	if f.axis == nil {
		f.axis = DefaultAxis(f.ColumnNames())
	}
	return f, nil
}

// MustNew is New for statically known frames; it panics on error.
func MustNew(columns []*Series, opts ...Option) *Frame {
	f, err := New(columns, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int { return f.n }

// NumCols returns the number of columns.
func (f *Frame) NumCols() int { return len(f.columns) }

// Columns returns the columns in order.
func (f *Frame) Columns() []*Series { return f.columns }

// Column returns column i.
func (f *Frame) Column(i int) *Series { return f.columns[i] }

// ColumnNames returns the column labels in order.
func (f *Frame) ColumnNames() []Label {
	names := make([]Label, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name()
	}
	return names
}

// Dtypes returns the column dtypes in order.
func (f *Frame) Dtypes() []Dtype {
	dtypes := make([]Dtype, len(f.columns))
	for i, c := range f.columns {
		dtypes[i] = c.Dtype()
	}
	return dtypes
}

// Index returns the row index.
func (f *Frame) Index() *Index { return f.index }

// Axis returns the column axis description.
func (f *Frame) Axis() *ColumnAxis { return f.axis }

// ColumnByName returns the first column whose formatted label equals name.
func (f *Frame) ColumnByName(name string) (*Series, bool) {
	for _, c := range f.columns {
		if FormatLabel(c.Name()) == name {
			return c, true
		}
	}
	return nil, false
}
