package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metabrainz/picard-plugin-tools/internal/core/archive"
)

// NewVerifyCommand creates the verify command for structural verification
func NewVerifyCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <archive>",
		Short: "Verify a packaged plugin archive against its embedded manifest",
		Long: `Verify a .picard.zip archive: the archive's live entry list (excluding
MANIFEST.json) must match the file records stored in the embedded
manifest exactly, element for element, in order.

Exits with status 1 when the archive is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			valid, err := archive.Verify(args[0])
			if err != nil {
				return fmt.Errorf("failed to verify %s: %w", args[0], err)
			}

			if !valid {
				fmt.Printf("❌ Archive is invalid: %s does not match its embedded manifest\n", args[0])
				os.Exit(1)
			}
			fmt.Printf("✅ Archive is valid: %s\n", args[0])
			return nil
		},
	}
}

// NewVerifyChecksumCommand creates the verify-checksum command for the
// whole-archive sidecar check
func NewVerifyChecksumCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-checksum <archive>",
		Short: "Verify a packaged plugin archive against its checksum sidecar",
		Long: `Recompute the digest of the archive's raw bytes and compare it against
the digest recorded in the <archive>.md5 sidecar file.

This is a coarse whole-file corruption check, independent of the
embedded-manifest verification done by "verify". Exits with status 1 on
mismatch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			valid, err := archive.VerifyChecksum(args[0])
			if err != nil {
				return fmt.Errorf("failed to verify checksum of %s: %w", args[0], err)
			}

			if !valid {
				fmt.Printf("❌ Checksum mismatch: %s does not match its sidecar\n", args[0])
				os.Exit(1)
			}
			fmt.Printf("✅ Checksum verified: %s\n", args[0])
			return nil
		},
	}
}
