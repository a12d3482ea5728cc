// Package cli implements the imgcrate command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/ferrous-labs/imgcrate-cli/internal/core/ports/driven"
	"github.com/ferrous-labs/imgcrate-cli/internal/core/ports/driving"
	"github.com/ferrous-labs/imgcrate-cli/internal/logger"
)

// version is injected at build time via Execute.
var version = "dev"

// Services wired by Configure. Commands guard against nil so the CLI can
// be exercised without a full wiring (tests, help output).
var (
	harvester   driving.Harvester
	configStore driven.ConfigStore
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "imgcrate",
	Short: "Harvest the images of a web page into an archive",
	Long: `imgcrate discovers the visual assets of a web page - element
attributes, srcset entries, inline and linked CSS, inline SVGs, meta
tags, web app manifests and favicons - downloads them concurrently,
sorts them into category folders and packages the result as a ZIP
archive.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

// Configure wires the core services into the CLI commands.
func Configure(h driving.Harvester, cfg driven.ConfigStore) {
	harvester = h
	configStore = cfg
}

// Execute runs the root command with the given build version.
func Execute(buildVersion string) error {
	if buildVersion != "" {
		version = buildVersion
	}
	return rootCmd.Execute()
}
