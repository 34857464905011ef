package cli

import (
	"github.com/spf13/cobra"

	"github.com/quiver-build/quiver/pkg/backends"
	"github.com/quiver-build/quiver/pkg/digest"
	"github.com/quiver-build/quiver/pkg/download"
	"github.com/quiver-build/quiver/pkg/export"
)

var (
	exportOnly []string
	exportDist string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export tool binaries into dist/",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if len(cfg.Backends) == 0 {
			PrintWarning("No backends activated; nothing to export")
			PrintHint("Add backend ids to the `backends` list in quiver.yaml")
			return nil
		}

		distDir := cfg.Dist.Dir
		if exportDist != "" {
			distDir = exportDist
		}
		if distDir == "" {
			distDir = "dist"
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

		env := &export.Environment{
			Config:  cfg,
			Store:   store,
			DistDir: distDir,
		}

		plan, err := export.NewEngine(registry, env).Run(cmd.Context(), exportOnly)
		if err != nil {
			return err
		}
		if len(plan.Results) == 0 {
			PrintWarning("Nothing selected for export")
			return nil
		}

		summary, err := export.NewMaterializer(store, distDir).Materialize(cmd.Context(), plan)
		if err != nil {
			return err
		}

		if PrintJSON(summary) {
			return nil
		}

		PrintSuccessf("Exported %d tool(s)", summary.Tools)
		PrintKeyValue("bins", summary.BinsDir)
		PrintKeyValue("bin", summary.BinDir)
		for _, name := range summary.Binaries {
			PrintBullet(name)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringSliceVar(&exportOnly, "only", nil, "Restrict the export to the named tools")
	exportCmd.Flags().StringVar(&exportDist, "dist", "", "Override the dist directory")
}
