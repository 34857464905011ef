package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quiver-build/quiver/pkg/common"
	"github.com/quiver-build/quiver/pkg/types"
)

// Build information (injected at compile time via ldflags)
var Version = "dev"

var (
	configPath string
	jsonOutput bool
	debugMode  bool
)

// Custom help template with styled output
var helpTemplate = `{{with .Long}}{{. | trim}}

{{end}}{{if .HasAvailableSubCommands}}` + `{{.CommandPath}}` + ` ` + `<command>` + `

{{end}}{{if .HasAvailableSubCommands}}Commands:
{{range .Commands}}{{if .IsAvailableCommand}}  {{rpad .Name .NamePadding }}  {{.Short}}
{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}
Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}
`

var rootCmd = &cobra.Command{
	Use:   "quiver",
	Short: "Materialize pinned external tools into dist/",
	Long: lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Render("quiver") + ` - tool exporter for workspaces

Export pinned third-party tools through pluggable backends into a
well-known dist/ layout: full trees under dist/bins, binaries linked
from dist/bin.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		SetJSONOutput(jsonOutput)
		if configPath != "" {
			os.Setenv(common.ConfigPathEnv, configPath)
		}
	},
}

func init() {
	// Set custom templates
	rootCmd.SetHelpTemplate(helpTemplate)

	// Version template
	rootCmd.SetVersionTemplate(fmt.Sprintf("  %s version %s\n", BrandStyle.Render("quiver"), Version))

	rootCmd.PersistentFlags().StringVar(&configPath, "config", getEnv(common.ConfigPathEnv, ""), "Path to the workspace config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(toolsCmd)
}

// Execute runs the CLI
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		PrintError(err)
		if suggestions := GetErrorSuggestions(err); len(suggestions) > 0 {
			PrintSuggestions("Suggestions:", suggestions)
		}
	}
	return err
}

// loadConfig loads the merged workspace config and applies the logging
// settings it carries.
func loadConfig() (*types.AppConfig, error) {
	configManager, err := common.NewConfigManager[types.AppConfig]()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := configManager.GetConfig()

	level := zerolog.InfoLevel
	if debugMode || cfg.DebugMode {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Logger.Level(level)
	if cfg.PrettyLogs || debugMode {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	return &cfg, nil
}

func storeRoot(cfg *types.AppConfig) string {
	if cfg.Store.Root != "" {
		return cfg.Store.Root
	}
	return filepath.Join(".quiver", "store")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
