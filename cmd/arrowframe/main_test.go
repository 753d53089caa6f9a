package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arrowframe/pkg/arrowio"
	"github.com/ajitpratap0/arrowframe/pkg/convert"
	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
)

const tradesCSV = `id,symbol,price,qty,active
1,AAPL,189.5,10,true
2,MSFT,,20,false
3,GOOG,141.25,,true
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error", "--enable-metrics=false"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseField(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", nil},
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"1.5", 1.5},
		{"true", true},
		{"FALSE", false},
		{"AAPL", "AAPL"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseField(tt.in), tt.in)
	}
}

func TestReadCSV(t *testing.T) {
	df, err := readCSV(strings.NewReader(tradesCSV), ',', "")
	require.NoError(t, err)
	assert.Equal(t, 3, df.NumRows())
	assert.Equal(t, []frame.Label{"id", "symbol", "price", "qty", "active"}, df.ColumnNames())

	price, _ := df.ColumnByName("price")
	values, ok := price.Objects()
	require.True(t, ok)
	assert.Equal(t, []any{189.5, nil, 141.25}, values)
}

func TestReadCSVIndex(t *testing.T) {
	df, err := readCSV(strings.NewReader(tradesCSV), ',', "symbol")
	require.NoError(t, err)
	assert.Equal(t, 4, df.NumCols())
	assert.Equal(t, []frame.Label{"symbol"}, df.Index().Names())

	_, err = readCSV(strings.NewReader(tradesCSV), ',', "missing")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestReadCSVErrors(t *testing.T) {
	_, err := readCSV(strings.NewReader(""), ',', "")
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalid))

	_, err = readCSV(strings.NewReader("a,b\n1,2,3\n"), ',', "")
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
}

func TestReadCSVDelimiter(t *testing.T) {
	df, err := readCSV(strings.NewReader("a;b\nx;1\n"), ';', "")
	require.NoError(t, err)
	assert.Equal(t, []frame.Label{"a", "b"}, df.ColumnNames())
}

func TestConvertAndInspect(t *testing.T) {
	input := writeFile(t, "trades.csv", tradesCSV)

	for _, name := range []string{"trades.arrow", "trades.arrows", "trades.parquet"} {
		t.Run(name, func(t *testing.T) {
			output := filepath.Join(t.TempDir(), name)
			out, err := execute(t, "convert", input, output, "--index-col", "id", "--batch-size", "2")
			require.NoError(t, err)
			assert.Contains(t, out, "wrote 3 rows, 5 columns")

			tbl, err := arrowio.ReadFile(output, nil)
			require.NoError(t, err)
			defer tbl.Release()

			md, err := convert.ParseMetadata(tbl.Schema().Metadata())
			require.NoError(t, err)
			require.NotNil(t, md)
			require.Len(t, md.IndexColumns, 1)
			assert.Equal(t, "id", md.IndexColumns[0].Field)

			out, err = execute(t, "inspect", output, "--rows", "2")
			require.NoError(t, err)
			assert.Contains(t, out, "rows: 3")
			assert.Contains(t, out, "symbol: utf8")
			assert.Contains(t, out, "price: float64")
			assert.Contains(t, out, `"index_columns"`)
			assert.Contains(t, out, "frame: 3 rows x 4 columns, index [id]")
			assert.Contains(t, out, "AAPL")
			assert.NotContains(t, out, "GOOG")
		})
	}
}

func TestConvertCompression(t *testing.T) {
	input := writeFile(t, "trades.csv", tradesCSV)
	output := filepath.Join(t.TempDir(), "trades.arrow")

	_, err := execute(t, "convert", input, output, "--compression", "zstd")
	require.NoError(t, err)

	_, err = execute(t, "convert", input, output, "--compression", "snappy")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "convert", filepath.Join(dir, "missing.csv"), filepath.Join(dir, "out.arrow"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))

	input := writeFile(t, "trades.csv", tradesCSV)
	_, err = execute(t, "convert", input, filepath.Join(dir, "out.arrow"), "--delimiter", "::")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = execute(t, "convert", input, filepath.Join(dir, "out.arrow"), "--zero-copy-only")
	assert.True(t, errors.IsType(err, errors.ErrorTypeZeroCopy))
}

func TestConfiguration(t *testing.T) {
	input := writeFile(t, "trades.csv", tradesCSV)
	output := filepath.Join(t.TempDir(), "trades.arrow")

	good := writeFile(t, "good.yaml", "performance:\n  threads: 2\nconversion:\n  preserve_index: true\n")
	_, err := execute(t, "--config", good, "convert", input, output)
	require.NoError(t, err)

	bad := writeFile(t, "bad.yaml", "conversion:\n  zero_copy_only: true\n")
	_, err = execute(t, "--config", bad, "--strings-to-categorical", "version")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = execute(t, "--threads", "-1", "version")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	t.Setenv("ARROWFRAME_PERFORMANCE_CHUNK_CEILING", "0")
	_, err = execute(t, "version")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, convert.Library+" v"+convert.Version)
}
