package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiver-build/quiver/pkg/types"
)

func TestDefaultsLoad(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")

	cm, err := NewConfigManager[types.AppConfig]()
	require.NoError(t, err)

	cfg := cm.GetConfig()
	assert.Equal(t, "dist", cfg.Dist.Dir)
	assert.Equal(t, filepath.Join(".quiver", "store"), filepath.FromSlash(cfg.Store.Root))
	assert.Equal(t, 2*time.Minute, cfg.Download.Timeout)
	assert.Empty(t, cfg.Backends)
}

func TestWorkspaceFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiver.yaml")
	content := `
backends:
  - helm
  - scripts
download:
  timeout: 30s
  maxRetries: 5
tools:
  helm:
    version: 3.15.0
    resolve: infra
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv(ConfigPathEnv, path)

	cm, err := NewConfigManager[types.AppConfig]()
	require.NoError(t, err)

	cfg := cm.GetConfig()
	assert.Equal(t, []string{"helm", "scripts"}, cfg.Backends)
	assert.Equal(t, 30*time.Second, cfg.Download.Timeout)
	assert.Equal(t, 5, cfg.Download.MaxRetries)
	assert.Equal(t, "3.15.0", cfg.ToolFor("helm").Version)
	assert.Equal(t, "infra", cfg.ToolFor("helm").Resolve)
	assert.True(t, cfg.BackendEnabled("scripts"))
	assert.False(t, cfg.BackendEnabled("kubeconform"))

	// Untouched defaults survive the merge
	assert.Equal(t, "dist", cfg.Dist.Dir)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")

	cm, err := NewConfigManager[types.AppConfig]()
	require.NoError(t, err)

	require.NoError(t, cm.LoadOverrides([]byte("debugMode: true\ndist:\n  dir: out")))

	cfg := cm.GetConfig()
	assert.True(t, cfg.DebugMode)
	assert.Equal(t, "out", cfg.Dist.Dir)
}

func TestMissingConfigFileErrors(t *testing.T) {
	t.Setenv(ConfigPathEnv, filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := NewConfigManager[types.AppConfig]()
	assert.Error(t, err)
}
