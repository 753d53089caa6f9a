// Command arrowframe converts CSV files to Arrow and Parquet tables that
// carry frame metadata, and inspects such tables.
package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/arrowframe/pkg/config"
	"github.com/ajitpratap0/arrowframe/pkg/convert"
	"github.com/ajitpratap0/arrowframe/pkg/logger"
)

// overrides maps configuration keys to the flags that may set them. Each key
// can also be set through ARROWFRAME_<KEY> with dots replaced by underscores.
var overrides = []struct {
	key   string
	flag  string
	apply func(v *viper.Viper, key string, cfg *config.ConversionConfig)
}{
	{"conversion.preserve_index", "preserve-index", func(v *viper.Viper, k string, c *config.ConversionConfig) {
		c.Conversion.PreserveIndex = v.GetBool(k)
	}},
	{"conversion.zero_copy_only", "zero-copy-only", func(v *viper.Viper, k string, c *config.ConversionConfig) {
		c.Conversion.ZeroCopyOnly = v.GetBool(k)
	}},
	{"conversion.strings_to_categorical", "strings-to-categorical", func(v *viper.Viper, k string, c *config.ConversionConfig) {
		c.Conversion.StringsToCategorical = v.GetBool(k)
	}},
	{"conversion.date_as_object", "date-as-object", func(v *viper.Viper, k string, c *config.ConversionConfig) {
		c.Conversion.DateAsObject = v.GetBool(k)
	}},
	{"performance.threads", "threads", func(v *viper.Viper, k string, c *config.ConversionConfig) {
		c.Performance.Threads = v.GetInt(k)
	}},
	{"performance.chunk_ceiling", "chunk-ceiling", func(v *viper.Viper, k string, c *config.ConversionConfig) {
		c.Performance.ChunkCeiling = v.GetInt64(k)
	}},
	{"performance.uniform_chunks", "uniform-chunks", func(v *viper.Viper, k string, c *config.ConversionConfig) {
		c.Performance.UniformChunks = v.GetBool(k)
	}},
	{"observability.enable_metrics", "enable-metrics", func(v *viper.Viper, k string, c *config.ConversionConfig) {
		c.Observability.EnableMetrics = v.GetBool(k)
	}},
	{"observability.log.level", "log-level", func(v *viper.Viper, k string, c *config.ConversionConfig) {
		c.Observability.Log.Level = v.GetString(k)
	}},
}

// app holds what every subcommand needs once flags are parsed.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.ConversionConfig
	log     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "arrowframe",
		Short: "Convert between frames and Arrow tables",
		Long: `arrowframe converts CSV files into Arrow IPC or Parquet tables whose schema
metadata describes the original frame, and inspects such tables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "Path to a YAML configuration file")
	pf.Bool("preserve-index", false, "Store the row index as columns")
	pf.Bool("zero-copy-only", false, "Fail conversions that would copy values")
	pf.Bool("strings-to-categorical", false, "Dictionary-encode string columns when reading")
	pf.Bool("date-as-object", false, "Return dates as calendar dates instead of datetime64")
	pf.Int("threads", 1, "Columns converted concurrently (0 = one per CPU)")
	pf.Int64("chunk-ceiling", config.DefaultChunkCeiling, "Largest chunk payload in bytes")
	pf.Bool("uniform-chunks", false, "Align chunk boundaries across columns")
	pf.Bool("enable-metrics", true, "Record conversion metrics")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")

	a.v.SetEnvPrefix("ARROWFRAME")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, o := range overrides {
		_ = a.v.BindPFlag(o.key, pf.Lookup(o.flag))
		_ = a.v.BindEnv(o.key)
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s v%s\n", convert.Library, convert.Version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	root.AddCommand(newConvertCmd(a))
	root.AddCommand(newInspectCmd(a))
	return root
}

// load reads the configuration file, applies environment and flag
// overrides, then sets up logging.
func (a *app) load(cmd *cobra.Command) error {
	cfg := config.DefaultConversionConfig()
	if a.cfgFile != "" {
		loaded, err := config.Load(a.cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	for _, o := range overrides {
		if a.v.IsSet(o.key) {
			o.apply(a.v, o.key, cfg)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.Init(cfg.Observability.Log); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.Named(cmd.Name())
	a.log.Debug("configuration loaded",
		zap.String("config_file", a.cfgFile),
		zap.Int("threads", cfg.Performance.GetThreads()),
		zap.Bool("preserve_index", cfg.Conversion.PreserveIndex))
	return nil
}

// options returns the conversion options derived from the configuration.
func (a *app) options() []convert.Option {
	return []convert.Option{convert.WithConfig(a.cfg), convert.WithLogger(a.log)}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
