package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiver-build/quiver/pkg/digest"
	"github.com/quiver-build/quiver/pkg/types"
)

type fakeRequest struct {
	tool string
}

func (r *fakeRequest) ToolName() string {
	return r.tool
}

type fakeTool struct {
	name string
}

func (f *fakeTool) Name() string {
	return f.name
}

func (f *fakeTool) Version() string {
	return "1.0.0"
}

func (f *fakeTool) Request(cfg *types.AppConfig) (Request, error) {
	return &fakeRequest{tool: f.name}, nil
}

func newTestEnv(t *testing.T) *Environment {
	t.Helper()
	store, err := digest.NewStore(filepath.Join(t.TempDir(), "store"), 0)
	require.NoError(t, err)
	return &Environment{
		Config:  &types.AppConfig{},
		Store:   store,
		DistDir: filepath.Join(t.TempDir(), "dist"),
	}
}

// snapshotTree captures a single-binary tree and returns its digest.
func snapshotTree(t *testing.T, env *Environment, binPath string) digest.Digest {
	t.Helper()
	src := t.TempDir()
	full := filepath.Join(src, filepath.FromSlash(binPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte("#!/bin/sh\n"), 0755))
	d, err := env.Store.Snapshot(src)
	require.NoError(t, err)
	return d
}

func staticHandler(results ...Result) Handler {
	return func(ctx context.Context, req Request, env *Environment) (Results, error) {
		return Results{Results: results}, nil
	}
}

func TestRunRejectsToolWithoutHandler(t *testing.T) {
	env := newTestEnv(t)
	registry := NewRegistry()
	registry.RegisterTool(&fakeTool{name: "lonely"})

	_, err := NewEngine(registry, env).Run(context.Background(), nil)
	require.Error(t, err)

	var missing *types.ErrHandlerMissing
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "lonely", missing.Tool)
}

func TestRunProducesValidatedPlan(t *testing.T) {
	env := newTestEnv(t)
	d := snapshotTree(t, env, "tool")

	registry := NewRegistry()
	registry.RegisterTool(&fakeTool{name: "tool"})
	registry.RegisterHandler("tool", staticHandler(Result{
		Description: "tool 1.0.0",
		RelDir:      "tool/1.0.0",
		Digest:      d,
		Resolve:     "1.0.0",
		Binaries:    []Binary{{Name: "tool", PathInExport: "tool"}},
	}))

	plan, err := NewEngine(registry, env).Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, plan.Results, 1)
	assert.Equal(t, "tool/1.0.0", plan.Results[0].RelDir)
}

func TestRunDestinationConflict(t *testing.T) {
	env := newTestEnv(t)
	d := snapshotTree(t, env, "tool")

	registry := NewRegistry()
	for _, name := range []string{"first", "second"} {
		registry.RegisterTool(&fakeTool{name: name})
		registry.RegisterHandler(name, staticHandler(Result{
			Description: name,
			RelDir:      "shared/dest",
			Digest:      d,
			Binaries:    []Binary{{Name: name, PathInExport: "tool"}},
		}))
	}

	_, err := NewEngine(registry, env).Run(context.Background(), nil)
	require.Error(t, err)

	var conflict *types.ErrDestinationConflict
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "shared/dest", conflict.RelDir)
}

func TestRunBinaryMustResolveInDigest(t *testing.T) {
	env := newTestEnv(t)
	d := snapshotTree(t, env, "tool")

	registry := NewRegistry()
	registry.RegisterTool(&fakeTool{name: "tool"})
	registry.RegisterHandler("tool", staticHandler(Result{
		Description: "tool 1.0.0",
		RelDir:      "tool/1.0.0",
		Digest:      d,
		Binaries:    []Binary{{Name: "tool", PathInExport: "nope/tool"}},
	}))

	_, err := NewEngine(registry, env).Run(context.Background(), nil)
	require.Error(t, err)

	var notInDigest *types.ErrBinaryNotInDigest
	require.True(t, errors.As(err, &notInDigest))
	assert.Equal(t, "nope/tool", notInDigest.Path)
}

func TestRunRejectsEscapingRelDir(t *testing.T) {
	env := newTestEnv(t)
	d := snapshotTree(t, env, "tool")

	registry := NewRegistry()
	registry.RegisterTool(&fakeTool{name: "tool"})
	registry.RegisterHandler("tool", staticHandler(Result{
		Description: "tool 1.0.0",
		RelDir:      "../outside",
		Digest:      d,
	}))

	_, err := NewEngine(registry, env).Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid export destination")
}

func TestRunSkipsToolsMarkedSkip(t *testing.T) {
	env := newTestEnv(t)
	env.Config.Tools = map[string]types.ToolConfig{
		"tool": {Skip: true},
	}

	registry := NewRegistry()
	registry.RegisterTool(&fakeTool{name: "tool"})
	registry.RegisterHandler("tool", func(ctx context.Context, req Request, env *Environment) (Results, error) {
		t.Fatal("handler should not run for a skipped tool")
		return Results{}, nil
	})

	plan, err := NewEngine(registry, env).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, plan.Results)
}

func TestRunOnlyUnknownTool(t *testing.T) {
	env := newTestEnv(t)
	registry := NewRegistry()

	_, err := NewEngine(registry, env).Run(context.Background(), []string{"ghost"})
	require.Error(t, err)

	var notRegistered *types.ErrToolNotRegistered
	require.True(t, errors.As(err, &notRegistered))
	assert.Equal(t, "ghost", notRegistered.Tool)
}

func TestRegistryListsToolsSorted(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterTool(&fakeTool{name: "zeta"})
	registry.RegisterTool(&fakeTool{name: "alpha"})

	tools := registry.Tools()
	require.Len(t, tools, 2)
	assert.Equal(t, "alpha", tools[0].Name())
	assert.Equal(t, "zeta", tools[1].Name())
}
