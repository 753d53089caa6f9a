package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arrowframe/pkg/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ConversionConfig)
		ok     bool
	}{
		{"defaults", func(*ConversionConfig) {}, true},
		{"negative threads", func(c *ConversionConfig) { c.Performance.Threads = -1 }, false},
		{"zero threads means NumCPU", func(c *ConversionConfig) { c.Performance.Threads = 0 }, true},
		{"zero ceiling", func(c *ConversionConfig) { c.Performance.ChunkCeiling = 0 }, false},
		{"ceiling above offset range", func(c *ConversionConfig) { c.Performance.ChunkCeiling = DefaultChunkCeiling + 1 }, false},
		{"small ceiling", func(c *ConversionConfig) { c.Performance.ChunkCeiling = 16 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConversionConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}
}

func TestGetThreads(t *testing.T) {
	p := PerformanceSection{Threads: 3}
	assert.Equal(t, 3, p.GetThreads())
	p.Threads = 0
	assert.GreaterOrEqual(t, p.GetThreads(), 1)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arrowframe.yaml")

	cfg := DefaultConversionConfig()
	cfg.Performance.Threads = 6
	cfg.Performance.UniformChunks = true
	cfg.Conversion.StringsToCategorical = true
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse([]byte("performance:\n  chunk_ceiling: -5\n"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("AF_A", "one")
	assert.Equal(t, "x: one, y: ", substituteEnvVars("x: ${AF_A}, y: ${AF_UNSET_VAR}"))
	assert.Equal(t, "unterminated ${AF_A", substituteEnvVars("unterminated ${AF_A"))
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := DefaultConversionConfig()
	cfg.Observability.Log.OutputPaths = []string{"stderr"}
	cp := cfg.Clone()
	cp.Observability.Log.OutputPaths[0] = "stdout"
	cp.Performance.Threads = 9
	assert.Equal(t, "stderr", cfg.Observability.Log.OutputPaths[0])
	assert.Equal(t, 1, cfg.Performance.Threads)
}
