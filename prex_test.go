package prex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cexlab/prex/internal/infer"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, "largest", config.Strategy)
	assert.Equal(t, "default", config.Semantics)
	assert.Equal(t, 500, config.RandomCases)
	assert.Equal(t, 10, config.SolverGood)
	assert.Equal(t, 10, config.SolverBad)
	require.NotNil(t, config.Incompletes)
	assert.True(t, *config.Incompletes)
	assert.False(t, config.AssumePre)
}

func TestParseConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".prex.yaml")
	content := `
strategy: smallest
random-cases: 100
incompletes: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := ParseConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "smallest", config.Strategy)
	assert.Equal(t, 100, config.RandomCases)
	require.NotNil(t, config.Incompletes)
	assert.False(t, *config.Incompletes)
	// untouched keys keep their defaults
	assert.Equal(t, "default", config.Semantics)
	assert.Equal(t, 10, config.SolverBad)
}

func TestParseConfigFileMissing(t *testing.T) {
	_, err := ParseConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseConfigFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: [\n"), 0o644))
	_, err := ParseConfigFile(path)
	assert.Error(t, err)
}

func TestConfigOptions(t *testing.T) {
	opts, err := DefaultConfig().Options(infer.NopReporter{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 500, opts.RandomCases)
	assert.Equal(t, 10, opts.SolverGood)
	assert.True(t, opts.Incompletes)
	assert.NotNil(t, opts.Strategy)
	assert.Equal(t, "default", opts.Profile.Name)
}

func TestConfigOptionsUnknownStrategy(t *testing.T) {
	config := DefaultConfig()
	config.Strategy = "bogus"
	_, err := config.Options(infer.NopReporter{}, zap.NewNop())
	assert.Error(t, err)

	config = DefaultConfig()
	config.Semantics = "bogus"
	_, err = config.Options(infer.NopReporter{}, zap.NewNop())
	assert.Error(t, err)
}
