package convert

import (
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
)

// appendList appends one sequence value. A nil slice is a null slot; an
// empty slice is a present, empty list.
func appendList(b *array.ListBuilder, v any) error {
	seq, ok := frame.AsSequence(v)
	if !ok {
		return valueMismatch(v, b.Type())
	}
	if seq == nil {
		b.AppendNull()
		return nil
	}
	b.Append(true)
	elems := b.ValueBuilder()
	for i, e := range seq {
		if err := appendValue(elems, e); err != nil {
			return nestedError(err, "element", i)
		}
	}
	return nil
}

// appendStruct appends one mapping value. Keys missing from the mapping
// become null fields; keys the struct does not declare are rejected.
func appendStruct(b *array.StructBuilder, v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		return valueMismatch(v, b.Type())
	}
	if m == nil {
		appendNull(b)
		return nil
	}

	st := b.Type().(*arrow.StructType)
	if extra := undeclaredKeys(m, st); len(extra) > 0 {
		return errors.Newf(errors.ErrorTypeSchemaMismatch, "mapping has keys %v not declared by %s", extra, st)
	}

	b.Append(true)
	for i, f := range st.Fields() {
		fb := b.FieldBuilder(i)
		fv, present := m[f.Name]
		if !present {
			appendNull(fb)
			continue
		}
		if err := appendValue(fb, fv); err != nil {
			return nestedError(err, "field", f.Name)
		}
	}
	return nil
}

// appendNull appends a null slot. Struct children are padded so every
// child stays as long as its parent.
func appendNull(b array.Builder) {
	b.AppendNull()
	sb, ok := b.(*array.StructBuilder)
	if !ok {
		return
	}
	for i := 0; i < sb.NumField(); i++ {
		fb := sb.FieldBuilder(i)
		for fb.Len() < sb.Len() {
			appendNull(fb)
		}
	}
}

func undeclaredKeys(m map[string]any, st *arrow.StructType) []string {
	var extra []string
	for k := range m {
		if _, ok := st.FieldIdx(k); !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return extra
}

func nestedError(err error, kind string, at any) error {
	var e *errors.Error
	if errors.As(err, &e) {
		return e.WithDetail(kind, at)
	}
	return errors.Wrap(err, errors.ErrorTypeSchemaMismatch, "nested value")
}

// listValue materializes slot i of a list array. Elements keep their own
// nulls as nil.
func listValue(arr *array.List, i int) []any {
	start, end := arr.ValueOffsets(i)
	values := arr.ListValues()
	out := make([]any, 0, end-start)
	for j := start; j < end; j++ {
		out = append(out, getValue(values, int(j)))
	}
	return out
}

// structValue materializes row i of a struct array as a mapping of every
// declared field.
func structValue(arr *array.Struct, i int) map[string]any {
	st := arr.DataType().(*arrow.StructType)
	out := make(map[string]any, arr.NumField())
	for f := 0; f < arr.NumField(); f++ {
		out[st.Field(f).Name] = getValue(arr.Field(f), i)
	}
	return out
}
