package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/arrowframe/pkg/arrowio"
	"github.com/ajitpratap0/arrowframe/pkg/convert"
	"github.com/ajitpratap0/arrowframe/pkg/errors"
	"github.com/ajitpratap0/arrowframe/pkg/frame"
)

func newConvertCmd(a *app) *cobra.Command {
	var (
		format      string
		compression string
		batchSize   int64
		delimiter   string
		indexCol    string
	)

	cmd := &cobra.Command{
		Use:   "convert <input.csv> <output>",
		Short: "Convert a CSV file to an Arrow or Parquet table",
		Long: `Convert reads a CSV file with a header row, infers a type for every column
and writes the table with frame metadata attached.

The output format follows the file extension (.arrow, .arrows, .parquet)
unless --format is given.

Example:
  arrowframe convert trades.csv trades.parquet --index-col id --compression zstd`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(delimiter) != 1 {
				return errors.New(errors.ErrorTypeConfig, "delimiter must be a single character")
			}
			df, err := readCSVFile(args[0], rune(delimiter[0]), indexCol)
			if err != nil {
				return err
			}

			opts := a.options()
			if indexCol != "" {
				opts = append(opts, convert.WithPreserveIndex(true))
			}
			tbl, err := convert.TableFromFrame(df, opts...)
			if err != nil {
				return err
			}
			defer tbl.Release()

			wcfg := arrowio.DefaultWriterConfig()
			wcfg.Format = arrowio.Format(format)
			wcfg.Compression = arrowio.Compression(compression)
			wcfg.BatchSize = batchSize
			wcfg.Logger = a.log
			if err := arrowio.WriteFile(args[1], tbl, wcfg); err != nil {
				return err
			}

			a.log.Info("converted",
				zap.String("input", args[0]),
				zap.String("output", args[1]),
				zap.Int64("rows", tbl.NumRows()),
				zap.Int64("columns", tbl.NumCols()))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows, %d columns to %s\n", tbl.NumRows(), tbl.NumCols(), args[1])
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: arrow, arrows or parquet")
	cmd.Flags().StringVarP(&compression, "compression", "c", "", "Compression: zstd, lz4 or snappy (parquet only)")
	cmd.Flags().Int64Var(&batchSize, "batch-size", 64*1024, "Rows per record batch or row group")
	cmd.Flags().StringVarP(&delimiter, "delimiter", "d", ",", "Field delimiter")
	cmd.Flags().StringVar(&indexCol, "index-col", "", "Column to use as the row index")
	return cmd
}

func readCSVFile(path string, comma rune, indexCol string) (*frame.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "cannot open input file").WithDetail("path", path)
	}
	defer f.Close()
	return readCSV(f, comma, indexCol)
}

// readCSV builds a frame of object columns from CSV with a header row.
// Empty fields are null; other fields become int64, float64, bool or string,
// whichever parses first. Mixed columns are resolved by type inference.
func readCSV(r io.Reader, comma rune, indexCol string) (*frame.Frame, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrorTypeInvalid, "input has no header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to read CSV header")
	}
	names := append([]string(nil), header...)

	values := make([][]any, len(names))
	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to read CSV record").WithDetail("row", row)
		}
		for i, field := range record {
			values[i] = append(values[i], parseField(field))
		}
	}

	var (
		cols  []*frame.Series
		index *frame.Index
	)
	for i, name := range names {
		s := frame.NewObject(name, values[i])
		if values[i] == nil {
			s = frame.NewObject(name, []any{})
		}
		if name == indexCol && index == nil {
			index = frame.NewIndex(s)
			continue
		}
		cols = append(cols, s)
	}
	if indexCol != "" && index == nil {
		return nil, errors.Newf(errors.ErrorTypeConfig, "index column %q not found", indexCol)
	}

	var opts []frame.Option
	if index != nil {
		opts = append(opts, frame.WithIndex(index))
	}
	if len(cols) == 0 && len(values) > 0 {
		opts = append(opts, frame.WithNumRows(len(values[0])))
	}
	df, err := frame.New(cols, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInvalid, "cannot build frame from CSV")
	}
	return df, nil
}

func parseField(value string) any {
	if value == "" {
		return nil
	}
	if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
		return intVal
	}
	if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
		return floatVal
	}
	if boolVal, err := strconv.ParseBool(value); err == nil {
		return boolVal
	}
	return value
}
