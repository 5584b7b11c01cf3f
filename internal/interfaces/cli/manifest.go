package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/metabrainz/picard-plugin-tools/internal/core/manifest"
	"github.com/metabrainz/picard-plugin-tools/internal/core/metadata"
)

// ManifestFlags holds the command-line flags for non-interactive manifest
// creation
type ManifestFlags struct {
	Name           string
	Author         string
	Version        string
	APIVersions    string
	License        string
	LicenseURL     string
	Description    string
	NonInteractive bool
}

// fieldFlagValue returns the flag value supplied for a known field, empty
// when the flag was not set
func (f *ManifestFlags) fieldFlagValue(key string) string {
	switch key {
	case "PLUGIN_NAME":
		return f.Name
	case "PLUGIN_AUTHOR":
		return f.Author
	case "PLUGIN_VERSION":
		return f.Version
	case "PLUGIN_API_VERSIONS":
		return f.APIVersions
	case "PLUGIN_LICENSE":
		return f.License
	case "PLUGIN_LICENSE_URL":
		return f.LicenseURL
	case "PLUGIN_DESCRIPTION":
		return f.Description
	}
	return ""
}

// NewCreateManifestCommand creates the create-manifest command
func NewCreateManifestCommand(container *CLIContainer) *cobra.Command {
	flags := &ManifestFlags{}

	cmd := &cobra.Command{
		Use:   "create-manifest <manifest_path>",
		Short: "Create a plugin manifest with an interactive wizard",
		Long: `Create a manifest document for a plugin. Fields not supplied via flags
are collected with an interactive wizard; version, API version, and URL
inputs are validated and re-prompted until they parse.

Use --non-interactive with field flags for scripted runs; every field
must then be supplied.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateManifest(args[0], flags)
		},
	}

	// Add command-line flags
	cmd.Flags().StringVar(&flags.Name, "name", "", "Plugin name")
	cmd.Flags().StringVar(&flags.Author, "author", "", "Plugin author name")
	cmd.Flags().StringVar(&flags.Version, "version", "", "Plugin version (dotted numeric)")
	cmd.Flags().StringVar(&flags.APIVersions, "api-versions", "", "Comma-separated supported API versions")
	cmd.Flags().StringVar(&flags.License, "license", "", "Plugin license")
	cmd.Flags().StringVar(&flags.LicenseURL, "license-url", "", "License URL")
	cmd.Flags().StringVar(&flags.Description, "description", "", "Plugin description")
	cmd.Flags().BoolVar(&flags.NonInteractive, "non-interactive", false, "Fail instead of prompting for missing fields")

	return cmd
}

// runCreateManifest assembles a manifest from flags plus wizard input and
// writes it to disk
func runCreateManifest(manifestPath string, flags *ManifestFlags) error {
	doc := manifest.New()

	for _, field := range metadata.KnownFields {
		raw := flags.fieldFlagValue(field.Key)
		if raw == "" {
			continue
		}
		value, err := metadata.ValidateField(field, raw)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", field.Key, err)
		}
		doc.Fields[field.Key] = value
	}

	missing := doc.MissingFields()
	if len(missing) > 0 {
		if flags.NonInteractive {
			return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
		}

		values, err := runWizard(missingFields(doc))
		if err != nil {
			return err
		}
		for key, value := range values {
			doc.Fields[key] = value
		}
	}

	if err := doc.Save(manifestPath); err != nil {
		return err
	}

	fmt.Printf("✅ Manifest written to: %s\n", manifestPath)
	return nil
}

// missingFields maps a document's missing keys back to their field
// definitions, preserving declaration order
func missingFields(doc *manifest.Manifest) []metadata.Field {
	var fields []metadata.Field
	for _, key := range doc.MissingFields() {
		if field, ok := metadata.FieldByKey(key); ok {
			fields = append(fields, field)
		}
	}
	return fields
}

var (
	manifestBannerStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("46"))
	manifestRuleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))
)

// NewVerifyManifestCommand creates the verify-manifest command
func NewVerifyManifestCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-manifest <manifest_path>",
		Short: "Check a plugin manifest for completeness and offer to fill gaps",
		Long: `Load a manifest document, report whether it is readable and complete,
and offer to collect any missing fields interactively. The document is
rewritten only when missing fields are filled in.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerifyManifest(args[0])
		},
	}
}

// runVerifyManifest reports on a manifest document and optionally completes it
func runVerifyManifest(manifestPath string) error {
	doc, err := manifest.Load(manifestPath)
	if err != nil {
		if errors.Is(err, manifest.ErrMalformed) {
			fmt.Println("Manifest is damaged. Invalid JSON file.")
			return nil
		}
		fmt.Println("Unable to find or read manifest file.")
		return nil
	}

	missing := doc.MissingFields()
	if len(missing) > 0 {
		fmt.Printf("⚠️  Manifest incomplete. Following data not found: %s\n", strings.Join(missing, ", "))
		if confirm("Would you like to fill this data now?") {
			values, err := runWizard(missingFields(doc))
			if err != nil {
				return err
			}
			for key, value := range values {
				doc.Fields[key] = value
			}
			if err := doc.Save(manifestPath); err != nil {
				return err
			}
		}
	}

	printManifestReport(manifestPath, doc)
	return nil
}

// printManifestReport prints the verification banner and the document's
// fields in sorted order
func printManifestReport(manifestPath string, doc *manifest.Manifest) {
	rule := manifestRuleStyle.Render(strings.Repeat("=", 20))
	fmt.Println(manifestBannerStyle.Render("Manifest Verified!"))
	fmt.Println(rule)
	fmt.Printf("MANIFEST: %s\n", manifestPath)
	fmt.Println(manifestRuleStyle.Render(strings.Repeat("-", 20)))

	keys := make([]string, 0, len(doc.Fields))
	for key := range doc.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("%s: %v\n", key, doc.Fields[key])
	}
	if doc.Files != nil {
		if doc.Files.Records != nil {
			fmt.Printf("files: %d archived entr(ies)\n", len(doc.Files.Records))
		} else {
			fmt.Printf("files: %d hashed file(s)\n", len(doc.Files.Hashes))
		}
	}
	fmt.Println(rule)
}

// confirm asks a yes/no question on stdin, defaulting to no
func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
