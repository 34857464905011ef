package scripts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiver-build/quiver/pkg/digest"
	"github.com/quiver-build/quiver/pkg/export"
	"github.com/quiver-build/quiver/pkg/types"
)

func newTestEnv(t *testing.T, cfg *types.AppConfig) *export.Environment {
	t.Helper()
	store, err := digest.NewStore(filepath.Join(t.TempDir(), "store"), 0)
	require.NoError(t, err)
	return &export.Environment{
		Config:  cfg,
		Store:   store,
		DistDir: filepath.Join(t.TempDir(), "dist"),
	}
}

func TestExportsScriptSets(t *testing.T) {
	scriptsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(scriptsDir, "deploy.sh"), []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(scriptsDir, "lib.sh"), []byte("helpers\n"), 0644))

	cfg := &types.AppConfig{
		Scripts: []types.ScriptSetConfig{{
			Name:     "ops",
			Dir:      scriptsDir,
			Binaries: map[string]string{"deploy": "deploy.sh"},
		}},
	}
	env := newTestEnv(t, cfg)

	registry := export.NewRegistry()
	Register(registry, cfg)

	plan, err := export.NewEngine(registry, env).Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, plan.Results, 1)

	res := plan.Results[0]
	assert.Equal(t, "scripts/ops", res.RelDir)
	assert.Equal(t, "ops", res.Resolve)
	require.Len(t, res.Binaries, 1)
	assert.Equal(t, "deploy", res.Binaries[0].Name)
	assert.Equal(t, "deploy.sh", res.Binaries[0].PathInExport)

	// The whole set, not just the entry point, is in the digest
	_, err = env.Store.Stat(res.Digest, "lib.sh")
	assert.NoError(t, err)
}

func TestRejectsMissingScriptDir(t *testing.T) {
	cfg := &types.AppConfig{
		Scripts: []types.ScriptSetConfig{{
			Name: "ghost",
			Dir:  filepath.Join(t.TempDir(), "does-not-exist"),
		}},
	}
	env := newTestEnv(t, cfg)

	registry := export.NewRegistry()
	Register(registry, cfg)

	_, err := export.NewEngine(registry, env).Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
}

func TestNoSetsProducesNoResults(t *testing.T) {
	cfg := &types.AppConfig{}
	env := newTestEnv(t, cfg)

	registry := export.NewRegistry()
	Register(registry, cfg)

	plan, err := export.NewEngine(registry, env).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, plan.Results)
}
