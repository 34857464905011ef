package export

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/quiver-build/quiver/pkg/types"
)

const defaultConcurrency = 4

// Engine runs the export goal: it builds one request per selected tool,
// fans the requests out to their handlers, and merges the results into a
// validated plan. Nothing under dist/ is touched until the whole plan is
// known to be valid.
type Engine struct {
	registry    *Registry
	env         *Environment
	concurrency int
}

func NewEngine(registry *Registry, env *Environment) *Engine {
	return &Engine{
		registry:    registry,
		env:         env,
		concurrency: defaultConcurrency,
	}
}

// Plan is the merged, validated output of one export invocation.
type Plan struct {
	Results []Result
}

// Run executes handlers for every selected tool. When only is non-empty,
// the selection is restricted to the named tools; naming an unregistered
// tool is an error.
func (e *Engine) Run(ctx context.Context, only []string) (*Plan, error) {
	tools, err := e.selectTools(only)
	if err != nil {
		return nil, err
	}

	// Pairing check up front: a registry entry without a handler is
	// rejected before any handler runs.
	handlers := make(map[string]Handler, len(tools))
	for _, tool := range tools {
		h, ok := e.registry.Handler(tool.Name())
		if !ok {
			return nil, &types.ErrHandlerMissing{Tool: tool.Name()}
		}
		handlers[tool.Name()] = h
	}

	var (
		mu      sync.Mutex
		results []Result
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.concurrency)

	for _, tool := range tools {
		tool := tool
		eg.Go(func() error {
			req, err := tool.Request(e.env.Config)
			if err != nil {
				return fmt.Errorf("build export request for %s: %w", tool.Name(), err)
			}

			res, err := handlers[tool.Name()](ctx, req, e.env)
			if err != nil {
				return fmt.Errorf("export %s: %w", tool.Name(), err)
			}

			mu.Lock()
			results = append(results, res.Results...)
			mu.Unlock()

			log.Debug().
				Str("tool", tool.Name()).
				Int("results", len(res.Results)).
				Msg("export handler finished")
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].RelDir < results[j].RelDir
	})

	plan := &Plan{Results: results}
	if err := e.validate(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (e *Engine) selectTools(only []string) ([]ExportableTool, error) {
	var tools []ExportableTool
	if len(only) == 0 {
		tools = e.registry.Tools()
	} else {
		for _, name := range only {
			t, ok := e.registry.Tool(name)
			if !ok {
				return nil, &types.ErrToolNotRegistered{Tool: name}
			}
			tools = append(tools, t)
		}
	}

	selected := tools[:0]
	for _, t := range tools {
		if e.env.Config.ToolFor(t.Name()).Skip {
			log.Debug().Str("tool", t.Name()).Msg("skipping export (skip set in config)")
			continue
		}
		selected = append(selected, t)
	}
	return selected, nil
}

// validate enforces the plan invariants: local relative destinations, one
// owner per destination, and every named binary resolvable to a regular
// file inside its result's digest.
func (e *Engine) validate(plan *Plan) error {
	owners := make(map[string]string, len(plan.Results))

	for _, res := range plan.Results {
		if res.RelDir == "" || !filepath.IsLocal(filepath.FromSlash(res.RelDir)) {
			return fmt.Errorf("invalid export destination %q for %s", res.RelDir, res.Description)
		}

		if owner, ok := owners[res.RelDir]; ok {
			return &types.ErrDestinationConflict{
				RelDir: res.RelDir,
				First:  owner,
				Second: res.Description,
			}
		}
		owners[res.RelDir] = res.Description

		if !e.env.Store.Has(res.Digest) {
			return fmt.Errorf("result %s references unknown digest %s", res.Description, res.Digest.Short())
		}

		for _, bin := range res.Binaries {
			entry, err := e.env.Store.Stat(res.Digest, bin.PathInExport)
			if err != nil {
				return &types.ErrBinaryNotInDigest{
					Binary: bin.Name,
					Path:   bin.PathInExport,
					Digest: res.Digest.Short(),
				}
			}
			if !entry.Executable {
				log.Warn().
					Str("binary", bin.Name).
					Str("path", bin.PathInExport).
					Msg("exported binary is not marked executable in its snapshot")
			}
		}
	}

	return nil
}
