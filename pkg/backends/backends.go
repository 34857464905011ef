// Package backends activates the export backends listed in config.
// Activation is explicit: a backend that is not listed registers nothing,
// and its tools are never considered for export.
package backends

import (
	"sort"

	"github.com/quiver-build/quiver/pkg/backends/helm"
	"github.com/quiver-build/quiver/pkg/backends/kubeconform"
	"github.com/quiver-build/quiver/pkg/backends/scripts"
	"github.com/quiver-build/quiver/pkg/download"
	"github.com/quiver-build/quiver/pkg/export"
	"github.com/quiver-build/quiver/pkg/types"
)

type registerFunc func(reg *export.Registry, dl *download.Downloader, cfg *types.AppConfig)

var registrars = map[string]registerFunc{
	helm.ToolName:        helm.Register,
	kubeconform.ToolName: kubeconform.Register,
	scripts.ToolName: func(reg *export.Registry, _ *download.Downloader, cfg *types.AppConfig) {
		scripts.Register(reg, cfg)
	},
}

// IDs returns the backend identifiers quiver ships.
func IDs() []string {
	ids := make([]string, 0, len(registrars))
	for id := range registrars {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Register activates every backend named in cfg.Backends.
func Register(reg *export.Registry, dl *download.Downloader, cfg *types.AppConfig) error {
	for _, id := range cfg.Backends {
		fn, ok := registrars[id]
		if !ok {
			return &types.ErrUnknownBackend{ID: id}
		}
		fn(reg, dl, cfg)
	}
	return nil
}
