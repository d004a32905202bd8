package cindervm_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	cindervm "github.com/cindervm/cindervm-core/pkg/cindervm-core"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, cindervm.DefaultConfig().Validate())
}

func TestWithSettersChainAndMutateInPlace(t *testing.T) {
	cfg := cindervm.DefaultConfig().
		WithMaxFrameDepth(64).
		WithStrictNumericConversions(true)

	require.Equal(t, 64, cfg.MaxFrameDepth)
	require.True(t, cfg.StrictNumericConversions)
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := cindervm.DefaultConfig()
	clone := cfg.Clone()
	clone.MaxFrameDepth = 1

	require.NotEqual(t, cfg.MaxFrameDepth, clone.MaxFrameDepth)
}

func TestValidateRejectsNonPositiveFields(t *testing.T) {
	cfg := cindervm.DefaultConfig().WithMaxFrameDepth(0)
	require.Error(t, cfg.Validate())
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cindervm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_frame_depth: 42\nstrict_numeric_conversions: true\n"), 0o644))

	cfg, err := cindervm.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 42, cfg.MaxFrameDepth)
	require.True(t, cfg.StrictNumericConversions)
	// Fields absent from the document keep DefaultConfig's values.
	require.Equal(t, cindervm.DefaultConfig().InitialHeapObjects, cfg.InitialHeapObjects)
}

func TestLoadConfigRejectsInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cindervm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_frame_depth: -1\n"), 0o644))

	_, err := cindervm.LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := cindervm.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
