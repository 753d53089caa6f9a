package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type column struct {
	Name      RawMessage        `json:"name"`
	FieldName string            `json:"field_name"`
	Metadata  map[string]string `json:"metadata"`
}

func TestMarshalDoesNotEscapeHTML(t *testing.T) {
	out, err := Marshal(map[string]string{"name": "<a&b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"<a&b>"}`, string(out))
}

func TestMarshalResultOutlivesBuffer(t *testing.T) {
	first, err := Marshal([]int{1, 2, 3})
	require.NoError(t, err)
	_, err = Marshal("overwrite the pooled buffer")
	require.NoError(t, err)
	assert.Equal(t, "[1,2,3]", string(first))
}

func TestUnmarshalRawMessage(t *testing.T) {
	var c column
	require.NoError(t, Unmarshal([]byte(`{"name":["a",1],"field_name":"('a', 1)","metadata":null}`), &c))
	assert.JSONEq(t, `["a",1]`, string(c.Name))
	assert.Equal(t, "('a', 1)", c.FieldName)
	assert.Nil(t, c.Metadata)
}

func TestUnmarshalNumber(t *testing.T) {
	var v []interface{}
	require.NoError(t, UnmarshalNumber([]byte(`[9007199254740993, 1.5]`), &v))
	require.Len(t, v, 2)
	assert.Equal(t, Number("9007199254740993"), v[0])
	assert.Equal(t, Number("1.5"), v[1])
}

func TestIndent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Indent(&buf, []byte(`{"a":[1]}`), "  "))
	assert.Equal(t, "{\n  \"a\": [\n    1\n  ]\n}\n", buf.String())
}

func TestPutBufferDropsLargeBuffers(t *testing.T) {
	buf := bytes.NewBuffer(make([]byte, 0, 2*1024*1024))
	PutBuffer(buf)
	got := GetBuffer()
	assert.Equal(t, 0, got.Len())
	PutBuffer(got)
}
