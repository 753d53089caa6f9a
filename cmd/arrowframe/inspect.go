package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/arrowframe/pkg/arrowio"
	"github.com/ajitpratap0/arrowframe/pkg/convert"
	"github.com/ajitpratap0/arrowframe/pkg/json"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		format string
		rows   int64
	)

	cmd := &cobra.Command{
		Use:   "inspect <table>",
		Short: "Show the schema, frame metadata and first rows of a table file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rcfg := arrowio.DefaultReaderConfig()
			rcfg.Format = arrowio.Format(format)
			rcfg.Logger = a.log
			tbl, err := arrowio.ReadFile(args[0], rcfg)
			if err != nil {
				return err
			}
			defer tbl.Release()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rows: %d\n\n", tbl.NumRows())
			printSchema(out, tbl.Schema())
			if err := printMetadata(out, tbl.Schema()); err != nil {
				return err
			}

			df, err := convert.TableToFrame(tbl, a.options()...)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nframe: %d rows x %d columns, index %v\n", df.NumRows(), df.NumCols(), df.Index().Names())
			if rows > 0 {
				fmt.Fprintln(out)
				printPreview(out, tbl, rows)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Input format: arrow, arrows or parquet")
	cmd.Flags().Int64VarP(&rows, "rows", "n", 5, "Rows to preview")
	return cmd
}

func printSchema(w io.Writer, schema *arrow.Schema) {
	fmt.Fprintln(w, "schema:")
	for _, f := range schema.Fields() {
		nullable := ""
		if !f.Nullable {
			nullable = " not null"
		}
		fmt.Fprintf(w, "  %s: %s%s\n", f.Name, f.Type, nullable)
	}
}

func printMetadata(w io.Writer, schema *arrow.Schema) error {
	md := schema.Metadata()
	idx := md.FindKey(convert.MetadataKey)
	if idx < 0 {
		fmt.Fprintln(w, "\nno frame metadata")
		return nil
	}
	if _, err := convert.ParseMetadata(md); err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(md.Values()[idx]), "  "); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nframe metadata:\n%s", pretty.String())
	return nil
}

// printPreview writes up to n rows of tbl as an aligned table.
func printPreview(w io.Writer, tbl arrow.Table, n int64) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	names := make([]string, tbl.NumCols())
	for i, f := range tbl.Schema().Fields() {
		names[i] = f.Name
	}
	fmt.Fprintln(tw, strings.Join(names, "\t"))

	tr := array.NewTableReader(tbl, n)
	defer tr.Release()
	if !tr.Next() {
		return
	}
	rec := tr.Record()
	cells := make([]string, rec.NumCols())
	for row := 0; row < int(rec.NumRows()); row++ {
		for col := range cells {
			arr := rec.Column(col)
			if arr.IsNull(row) {
				cells[col] = "null"
				continue
			}
			cells[col] = arr.ValueStr(row)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
}
