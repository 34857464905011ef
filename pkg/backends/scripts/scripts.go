// Package scripts exports local script trees from the workspace. It is
// the non-download path through the export contract: each configured set
// is snapshotted as-is and its named entry points linked under dist/bin.
package scripts

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/quiver-build/quiver/pkg/export"
	"github.com/quiver-build/quiver/pkg/types"
)

const ToolName = "scripts"

// Tool marks the workspace's script sets as exportable.
type Tool struct{}

func (t *Tool) Name() string {
	return ToolName
}

func (t *Tool) Version() string {
	return ""
}

func (t *Tool) Request(cfg *types.AppConfig) (export.Request, error) {
	return &Request{Sets: cfg.Scripts}, nil
}

// Request carries the script sets configured for this invocation.
type Request struct {
	Sets []types.ScriptSetConfig
}

func (r *Request) ToolName() string {
	return ToolName
}

// Register wires the scripts tool and its export handler into the registry.
func Register(reg *export.Registry, cfg *types.AppConfig) {
	reg.RegisterTool(&Tool{})
	reg.RegisterHandler(ToolName, func(ctx context.Context, req export.Request, env *export.Environment) (export.Results, error) {
		r, ok := req.(*Request)
		if !ok {
			return export.Results{}, fmt.Errorf("unexpected request type %T for scripts", req)
		}

		var results []export.Result
		for _, set := range r.Sets {
			if set.Name == "" {
				return export.Results{}, fmt.Errorf("script set without a name")
			}
			if info, err := os.Stat(set.Dir); err != nil || !info.IsDir() {
				return export.Results{}, fmt.Errorf("script set %s: %s is not a directory", set.Name, set.Dir)
			}

			d, err := env.Store.Snapshot(set.Dir)
			if err != nil {
				return export.Results{}, fmt.Errorf("snapshot script set %s: %w", set.Name, err)
			}

			var binaries []export.Binary
			for name, p := range set.Binaries {
				binaries = append(binaries, export.Binary{Name: name, PathInExport: p})
			}
			sort.Slice(binaries, func(i, j int) bool {
				return binaries[i].Name < binaries[j].Name
			})

			results = append(results, export.Result{
				Description: fmt.Sprintf("script set %s", set.Name),
				RelDir:      path.Join(ToolName, set.Name),
				Digest:      d,
				Resolve:     set.Name,
				Binaries:    binaries,
			})
		}

		return export.Results{Results: results}, nil
	})
}
