package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/quiver-build/quiver/pkg/backends"
	"github.com/quiver-build/quiver/pkg/digest"
	"github.com/quiver-build/quiver/pkg/download"
	"github.com/quiver-build/quiver/pkg/export"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List tools registered for export",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if len(cfg.Backends) == 0 {
			PrintWarning("No backends activated")
			PrintHint("Available backends: " + strings.Join(backends.IDs(), ", "))
			return nil
		}

		store, err := digest.NewStore(storeRoot(cfg), cfg.Store.ManifestCache)
		if err != nil {
			return err
		}
		dl, err := download.NewDownloader(cfg.Download, store)
		if err != nil {
			return err
		}

		registry := export.NewRegistry()
		if err := backends.Register(registry, dl, cfg); err != nil {
			return err
		}

		tools := registry.Tools()

		if IsJSONOutput() {
			type toolInfo struct {
				Name    string `json:"name"`
				Version string `json:"version,omitempty"`
				Skip    bool   `json:"skip"`
			}
			infos := make([]toolInfo, 0, len(tools))
			for _, t := range tools {
				infos = append(infos, toolInfo{
					Name:    t.Name(),
					Version: t.Version(),
					Skip:    cfg.ToolFor(t.Name()).Skip,
				})
			}
			PrintJSON(infos)
			return nil
		}

		PrintNewline()
		table := NewTable("NAME", "VERSION", "RESOLVE", "SKIP")
		for _, t := range tools {
			tc := cfg.ToolFor(t.Name())
			version := t.Version()
			if version == "" {
				version = "-"
			}
			resolve := tc.Resolve
			if resolve == "" {
				resolve = version
			}
			skip := ""
			if tc.Skip {
				skip = "yes"
			}
			table.AddRow(t.Name(), version, resolve, skip)
		}
		table.Print()
		PrintNewline()
		return nil
	},
}
