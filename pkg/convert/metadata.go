package convert

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
	"github.com/ajitpratap0/arrowframe/pkg/json"
)

// MetadataKey is the schema metadata key holding the frame description.
const MetadataKey = "pandas"

// Library and Version identify the writer in the creator record.
const (
	Library = "arrowframe"
	Version = "0.1.0"
)

// PandasMetadata describes what a frame carries beyond its columns' values:
// logical column names, the row index and the column axis.
type PandasMetadata struct {
	IndexColumns  []IndexColumn    `json:"index_columns"`
	ColumnIndexes []ColumnMetadata `json:"column_indexes"`
	Columns       []ColumnMetadata `json:"columns"`
	Creator       Creator          `json:"creator"`
}

// ColumnMetadata describes one stored column or one column-axis level.
// Name holds the JSON form of the logical label: Tuples are arrays, []byte
// labels are strings.
type ColumnMetadata struct {
	Name       any           `json:"name"`
	FieldName  string        `json:"field_name"`
	PandasType string        `json:"pandas_type"`
	NumpyType  string        `json:"numpy_type"`
	Metadata   *TypeMetadata `json:"metadata"`
}

// TypeMetadata carries the per-type details of a column.
type TypeMetadata struct {
	Timezone      *string `json:"timezone,omitempty"`
	Precision     *int32  `json:"precision,omitempty"`
	Scale         *int32  `json:"scale,omitempty"`
	NumCategories *int    `json:"num_categories,omitempty"`
	Ordered       *bool   `json:"ordered,omitempty"`
	Encoding      string  `json:"encoding,omitempty"`
}

// Creator names the library that wrote the metadata.
type Creator struct {
	Library string `json:"library"`
	Version string `json:"version"`
}

// IndexColumn is one entry of index_columns: either the field name of a
// stored index level or a range descriptor for an index kept as metadata
// only.
type IndexColumn struct {
	Field string
	Range *RangeDescriptor
}

// RangeDescriptor records a range index without storing its values.
type RangeDescriptor struct {
	Kind  string `json:"kind"`
	Name  any    `json:"name"`
	Start int64  `json:"start"`
	Stop  int64  `json:"stop"`
	Step  int64  `json:"step"`
}

// MarshalJSON writes a field name as a string and a range as an object.
func (c IndexColumn) MarshalJSON() ([]byte, error) {
	if c.Range != nil {
		return json.Marshal(c.Range)
	}
	return json.Marshal(c.Field)
}

// UnmarshalJSON accepts either form written by MarshalJSON.
func (c *IndexColumn) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		return json.Unmarshal(data, &c.Field)
	}
	var r RangeDescriptor
	if err := json.UnmarshalNumber(data, &r); err != nil {
		return err
	}
	if r.Kind != "range" {
		return fmt.Errorf("unknown index descriptor kind %q", r.Kind)
	}
	r.Name = decodeLabel(r.Name)
	c.Range = &r
	return nil
}

// indexFieldName returns the storage name of index level i.
func indexFieldName(name frame.Label, i int) string {
	if name == nil {
		return fmt.Sprintf("__index_level_%d__", i)
	}
	return frame.FormatLabel(name)
}

// uniqueName returns name, or name with the first free "_1", "_2", ...
// suffix when it is already taken. Data columns keep their names; only
// index fields yield.
func uniqueName(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	for i := 1; ; i++ {
		candidate := name + "_" + strconv.Itoa(i)
		if !taken[candidate] {
			return candidate
		}
	}
}

// encodeLabel converts a label to its JSON form.
func encodeLabel(l frame.Label) any {
	switch v := l.(type) {
	case []byte:
		return string(v)
	case frame.Tuple:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = encodeLabel(e)
		}
		return out
	case time.Time:
		return v.Format(time.RFC3339Nano)
	}
	return l
}

// decodeLabel reverses encodeLabel. Numbers come back as int64 when
// integral, arrays as Tuples; times stay strings.
func decodeLabel(v any) frame.Label {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case float64:
		if isIntegral(x) && x >= -(1<<53) && x <= 1<<53 {
			return int64(x)
		}
		return x
	case []any:
		t := make(frame.Tuple, len(x))
		for i, e := range x {
			t[i] = decodeLabel(e)
		}
		return t
	}
	return v
}

// pandasType returns the pandas_type tag and type metadata of dt. size is
// the dictionary length for dictionary columns.
func pandasType(dt arrow.DataType, size int) (string, *TypeMetadata) {
	switch t := dt.(type) {
	case *arrow.NullType:
		return "empty", nil
	case *arrow.BooleanType:
		return "bool", nil
	case *arrow.Int8Type, *arrow.Int16Type, *arrow.Int32Type, *arrow.Int64Type,
		*arrow.Uint8Type, *arrow.Uint16Type, *arrow.Uint32Type, *arrow.Uint64Type,
		*arrow.Float32Type, *arrow.Float64Type:
		return dt.Name(), nil
	case *arrow.Decimal128Type:
		precision, scale := t.Precision, t.Scale
		return "decimal", &TypeMetadata{Precision: &precision, Scale: &scale}
	case *arrow.StringType:
		return "unicode", &TypeMetadata{Encoding: "UTF-8"}
	case *arrow.BinaryType, *arrow.FixedSizeBinaryType:
		return "bytes", nil
	case *arrow.Date32Type, *arrow.Date64Type:
		return "date", nil
	case *arrow.Time32Type, *arrow.Time64Type:
		return "time", nil
	case *arrow.TimestampType:
		if t.TimeZone != "" {
			tz := t.TimeZone
			return "datetimetz", &TypeMetadata{Timezone: &tz}
		}
		return "datetime", nil
	case *arrow.ListType:
		elem, _ := pandasType(t.Elem(), 0)
		return "list[" + elem + "]", nil
	case *arrow.DictionaryType:
		ordered := t.Ordered
		return "categorical", &TypeMetadata{NumCategories: &size, Ordered: &ordered}
	}
	return "object", nil
}

// numpyType returns the numpy_type tag of a stored series.
func numpyType(s *frame.Series) string {
	if c := s.Categorical(); c != nil {
		return fmt.Sprintf("int%d", c.CodeBits())
	}
	return s.Dtype().NumpyString()
}

// axisMetadata describes one column-axis level.
func axisMetadata(level frame.AxisLevel, labels []frame.Label) ColumnMetadata {
	md := ColumnMetadata{
		Name:      encodeLabel(level.Name),
		FieldName: frame.FormatLabel(level.Name),
		NumpyType: level.Dtype.NumpyString(),
	}
	switch level.Dtype.Kind {
	case frame.KindObject:
		md.PandasType = "unicode"
		md.Metadata = &TypeMetadata{Encoding: "UTF-8"}
		for _, l := range labels {
			if _, ok := l.(string); !ok && l != nil {
				md.PandasType, md.Metadata = "mixed", nil
				break
			}
		}
	case frame.KindDatetime64:
		md.PandasType = "datetime"
		if level.Dtype.TZ != "" {
			tz := level.Dtype.TZ
			md.PandasType = "datetimetz"
			md.Metadata = &TypeMetadata{Timezone: &tz}
		}
	case frame.KindCategory:
		n := distinctLabels(labels)
		ordered := level.Ordered
		md.PandasType = "categorical"
		md.Metadata = &TypeMetadata{NumCategories: &n, Ordered: &ordered}
	default:
		md.PandasType = level.Dtype.String()
	}
	return md
}

func distinctLabels(labels []frame.Label) int {
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		seen[frame.FormatLabel(l)] = true
	}
	return len(seen)
}

// axisLabels returns the labels of axis level lvl.
func axisLabels(names []frame.Label, lvl, depth int) []frame.Label {
	out := make([]frame.Label, 0, len(names))
	for _, n := range names {
		if t, ok := n.(frame.Tuple); ok && depth > 1 {
			if lvl < len(t) {
				out = append(out, t[lvl])
			}
			continue
		}
		out = append(out, n)
	}
	return out
}

// buildColumnIndexes describes every level of the frame's column axis.
func buildColumnIndexes(df *frame.Frame) []ColumnMetadata {
	axis := df.Axis()
	names := df.ColumnNames()
	out := make([]ColumnMetadata, len(axis.Levels))
	for lvl, level := range axis.Levels {
		out[lvl] = axisMetadata(level, axisLabels(names, lvl, len(axis.Levels)))
	}
	return out
}

// Marshal encodes the metadata as the schema metadata value.
func (m *PandasMetadata) Marshal() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeInternal, "cannot encode frame metadata")
	}
	return string(data), nil
}

// Schema returns the metadata to attach to a schema.
func (m *PandasMetadata) Schema() (arrow.Metadata, error) {
	blob, err := m.Marshal()
	if err != nil {
		return arrow.Metadata{}, err
	}
	return arrow.NewMetadata([]string{MetadataKey}, []string{blob}), nil
}

// ParseMetadata reads the frame description from schema metadata. It
// returns nil without error when the key is absent.
func ParseMetadata(md arrow.Metadata) (*PandasMetadata, error) {
	idx := md.FindKey(MetadataKey)
	if idx < 0 {
		return nil, nil
	}
	var out PandasMetadata
	if err := json.UnmarshalNumber([]byte(md.Values()[idx]), &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInvalid, "malformed frame metadata")
	}
	for i := range out.Columns {
		out.Columns[i].Name = decodeLabel(out.Columns[i].Name)
	}
	for i := range out.ColumnIndexes {
		out.ColumnIndexes[i].Name = decodeLabel(out.ColumnIndexes[i].Name)
	}
	return &out, nil
}

// column returns the descriptor of the stored field, if any.
func (m *PandasMetadata) column(field string) (ColumnMetadata, bool) {
	for _, c := range m.Columns {
		if c.FieldName == field {
			return c, true
		}
	}
	return ColumnMetadata{}, false
}

// axis rebuilds the column axis. It returns nil when the recorded levels do
// not fit the given column labels.
func (m *PandasMetadata) axis(labels []frame.Label) *frame.ColumnAxis {
	if len(m.ColumnIndexes) == 0 {
		return nil
	}
	depth := len(m.ColumnIndexes)
	for _, l := range labels {
		t, isTuple := l.(frame.Tuple)
		if (depth > 1) != isTuple || (isTuple && len(t) != depth) {
			return nil
		}
	}

	levels := make([]frame.AxisLevel, depth)
	for i, c := range m.ColumnIndexes {
		level := frame.AxisLevel{Name: c.Name, Dtype: frame.Object}
		switch c.PandasType {
		case "categorical":
			level.Dtype = frame.Category
			if c.Metadata != nil && c.Metadata.Ordered != nil {
				level.Ordered = *c.Metadata.Ordered
			}
		case "unicode", "mixed", "bytes", "object":
		default:
			if dt, err := frame.ParseDtype(c.NumpyType); err == nil {
				level.Dtype = dt
			}
			if c.Metadata != nil && c.Metadata.Timezone != nil {
				level.Dtype.TZ = *c.Metadata.Timezone
			}
		}
		levels[i] = level
	}
	return &frame.ColumnAxis{Levels: levels}
}

// axisTimes parses the labels of the datetime levels of ax, stored as RFC
// 3339 strings, back into times in the level's zone. Labels that do not
// parse are kept as they are.
func axisTimes(ax *frame.ColumnAxis, labels []frame.Label) []frame.Label {
	out := make([]frame.Label, len(labels))
	copy(out, labels)
	for lvl, level := range ax.Levels {
		if level.Dtype.Kind != frame.KindDatetime64 {
			continue
		}
		loc, err := frame.LoadZone(level.Dtype.TZ)
		if err != nil {
			loc = time.UTC
		}
		for i, l := range out {
			if t, ok := l.(frame.Tuple); ok && len(ax.Levels) > 1 {
				nt := make(frame.Tuple, len(t))
				copy(nt, t)
				nt[lvl] = parseTimeLabel(nt[lvl], loc)
				out[i] = nt
				continue
			}
			out[i] = parseTimeLabel(l, loc)
		}
	}
	return out
}

func parseTimeLabel(l frame.Label, loc *time.Location) frame.Label {
	s, ok := l.(string)
	if !ok {
		return l
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return l
	}
	return t.In(loc)
}
