package cli

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/metabrainz/picard-plugin-tools/internal/infrastructure/config"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// CLIContainer holds all the dependencies for CLI commands
type CLIContainer struct {
	Config        *config.Config
	Logger        *log.Logger
	MainContainer interface{} // Will be set to *di.Container, avoiding circular import
}

// NewRootCommand represents the base command when called without any subcommands
func NewRootCommand(container *CLIContainer) *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "ppt",
		Short: "Picard Plugin Tools - package, catalog, and verify plugins",
		Long: `Picard Plugin Tools packages plugin source directories into versioned,
integrity-checked archives, extracts declared metadata from plugin source,
and maintains a catalog of available plugins.

Archives carry an embedded manifest binding each entry to its container
checksum, plus an optional whole-archive checksum sidecar, so a finished
archive can later be re-verified for corruption or tampering.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Global setup that runs before any command
			if err := applyConfigurationOverrides(cmd, container); err != nil {
				return fmt.Errorf("failed to apply configuration overrides: %w", err)
			}
			return nil
		},
	}

	// Set custom version template
	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	// Add persistent flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug diagnostics")
	rootCmd.PersistentFlags().String("config", "", "Config file path (default is $HOME/.config/ppt/config.json)")

	// Add subcommands
	rootCmd.AddCommand(NewBuildCatalogCommand(container))
	rootCmd.AddCommand(NewPackageCommand(container))
	rootCmd.AddCommand(NewPackageAllCommand(container))
	rootCmd.AddCommand(NewVerifyCommand(container))
	rootCmd.AddCommand(NewVerifyChecksumCommand(container))
	rootCmd.AddCommand(NewCreateManifestCommand(container))
	rootCmd.AddCommand(NewVerifyManifestCommand(container))
	rootCmd.AddCommand(NewListCommand(container))

	return rootCmd
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// applyConfigurationOverrides applies configuration overrides from command line flags
func applyConfigurationOverrides(cmd *cobra.Command, container *CLIContainer) error {
	if cmd.Flags().Changed("config") {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.LoadFrom(path)
		if err != nil {
			return err
		}
		*container.Config = *loaded
	}

	if cmd.Flags().Changed("debug") {
		debugFlag, _ := cmd.Flags().GetBool("debug")
		container.Config.Debug = debugFlag
	}

	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(container *CLIContainer) {
	rootCmd := NewRootCommand(container)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
