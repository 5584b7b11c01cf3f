package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metabrainz/picard-plugin-tools/internal/core/archive"
	"github.com/metabrainz/picard-plugin-tools/internal/core/catalog"
)

// NewPackageCommand creates the package command for a single plugin
func NewPackageCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "package <plugin_dir> [manifest_path] [output_dir]",
		Short: "Package one plugin directory into a distributable archive",
		Long: `Package a single unpackaged plugin directory into a <dir>.picard.zip
archive.

When a manifest path is given and the document exists, the archive's
structural record (entry names and container checksums, in write order)
is attached to the manifest under "files", the manifest is rewritten in
place, and a copy is embedded in the archive as MANIFEST.json.

Examples:
  ppt package ./myplugin
  ppt package ./myplugin ./myplugin/MANIFEST.json ./dist`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pluginDir := args[0]
			manifestPath := ""
			outputDir := ""
			if len(args) > 1 {
				manifestPath = args[1]
			}
			if len(args) > 2 {
				outputDir = args[2]
			}

			builder := archive.NewBuilder(container.Config.Debug)
			result, err := builder.Build(pluginDir, manifestPath, outputDir)
			if err != nil {
				return fmt.Errorf("failed to package %s: %w", pluginDir, err)
			}

			fmt.Printf("📦 Created: %s\n", result.ArchivePath)
			if result.Manifest != nil {
				fmt.Printf("✅ Manifest embedded with %d file record(s)\n", len(result.Record))
			}
			return nil
		},
	}
}

// NewPackageAllCommand creates the package-all command for batch packaging
func NewPackageAllCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "package-all [source_dir] [dest_dir]",
		Short: "Package every plugin directory under a source root",
		Long: `Package each top-level plugin directory under the source root into the
destination directory, writing a whole-archive checksum sidecar
(<archive>.md5) next to each archive.

When the destination already holds a PLUGINS.json catalog, only the
plugins listed in it are packaged; without a catalog every top-level
directory is packaged. Directories default to the configured
source/destination when omitted.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceDir, destDir := dirArgs(container, args)

			builder := catalog.NewBuilder(container.Config.Debug)
			archives, err := builder.PackageAll(sourceDir, destDir)
			if err != nil {
				return fmt.Errorf("failed to package plugins: %w", err)
			}

			fmt.Printf("✅ Packaged %d plugin(s) to %s\n", len(archives), destDir)
			return nil
		},
	}
}

// dirArgs resolves source and destination directories from positional
// arguments, falling back to configured defaults
func dirArgs(container *CLIContainer, args []string) (string, string) {
	sourceDir := container.Config.SourceDir
	destDir := container.Config.DestDir
	if len(args) > 0 {
		sourceDir = args[0]
	}
	if len(args) > 1 {
		destDir = args[1]
	}
	return sourceDir, destDir
}
