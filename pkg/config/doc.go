// Package config provides the configuration for arrowframe conversions.
//
// A ConversionConfig is an explicit value handed to every conversion entry
// point; nothing is read from process-wide state.
//
// # Sections
//
//   - Conversion: index handling, zero-copy policy, categorical decoding
//   - Performance: worker count, chunk ceiling and chunk alignment
//   - Observability: logging and metrics
//
// # Usage
//
//	cfg := config.DefaultConversionConfig()
//	cfg.Performance.Threads = 4
//	cfg.Conversion.PreserveIndex = true
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
//	tbl, err := convert.TableFromFrame(df, convert.WithConfig(cfg))
//
// # Environment Variable Substitution
//
// Load and Parse replace ${VAR_NAME} references before decoding:
//
//	performance:
//	  threads: ${ARROWFRAME_THREADS}
//	  chunk_ceiling: 1048576
package config
