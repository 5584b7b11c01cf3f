package cli

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/metabrainz/picard-plugin-tools/internal/core/catalog"
)

// NewBuildCatalogCommand creates the build-catalog command
func NewBuildCatalogCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "build-catalog [source_dir] [dest_dir]",
		Short: "Scan plugin directories and rebuild the plugin catalog",
		Long: `Scan every top-level plugin directory under the source root and write a
fresh PLUGINS.json catalog to the destination directory.

For each plugin the full subtree is hashed file by file and metadata is
extracted from the first source file that declares any. Plugins with both
files and metadata are cataloged and get their metadata written to the
plugin directory's MANIFEST.json; the rest are skipped. Any previous
catalog is discarded, not merged.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceDir, destDir := dirArgs(container, args)

			builder := catalog.NewBuilder(container.Config.Debug)
			built, err := builder.Build(sourceDir, destDir)
			if err != nil {
				return fmt.Errorf("failed to build catalog: %w", err)
			}

			fmt.Printf("✅ Catalog written with %d plugin(s): %s\n",
				len(built.Plugins), filepath.Join(destDir, catalog.FileName))
			return nil
		},
	}
}

var (
	listHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))
	listDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// NewListCommand creates the list command showing cataloged plugins
func NewListCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "list [dest_dir]",
		Short: "List the plugins recorded in a destination directory's catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			destDir := container.Config.DestDir
			if len(args) > 0 {
				destDir = args[0]
			}

			loaded, err := catalog.Load(destDir)
			if err != nil {
				return fmt.Errorf("failed to load catalog: %w", err)
			}
			if loaded == nil {
				fmt.Printf("No catalog found in %s\n", destDir)
				return nil
			}

			fmt.Println(listHeaderStyle.Render(fmt.Sprintf("%-24s %-12s %s", "PLUGIN", "VERSION", "AUTHOR")))
			for _, name := range loaded.Names() {
				entry := loaded.Plugins[name]
				fmt.Printf("%-24s %-12s %s\n", name, fieldString(entry, "version"), fieldString(entry, "author"))
			}
			fmt.Println(listDimStyle.Render(fmt.Sprintf("%d plugin(s)", len(loaded.Plugins))))
			return nil
		},
	}
}

// fieldString renders one metadata field of a catalog entry, "-" when unset
func fieldString(entry *catalog.Entry, key string) string {
	value, ok := entry.Fields[key]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%v", value)
}
