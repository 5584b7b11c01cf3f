package cli

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metabrainz/picard-plugin-tools/internal/core/manifest"
	"github.com/metabrainz/picard-plugin-tools/internal/core/metadata"
)

// keyMsg builds a key press message for driving the wizard model
func keyMsg(name string) tea.KeyMsg {
	switch name {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)}
}

// fullFlags returns a flag set supplying every manifest field
func fullFlags() *ManifestFlags {
	return &ManifestFlags{
		Name:           "My Plugin",
		Author:         "Jane Doe",
		Version:        "1.2.0",
		APIVersions:    "2.0, 2.1",
		License:        "GPL-3.0",
		LicenseURL:     "https://www.gnu.org/licenses/gpl-3.0.html",
		Description:    "Does something useful.",
		NonInteractive: true,
	}
}

// TestRunCreateManifest_NonInteractive verifies a fully flag-driven run
// writes a complete, validated document
func TestRunCreateManifest_NonInteractive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MANIFEST.json")

	require.NoError(t, runCreateManifest(path, fullFlags()))

	doc, err := manifest.Load(path)
	require.NoError(t, err, "The written document should load back")

	assert.Empty(t, doc.MissingFields(), "Every known field should be set")
	assert.Equal(t, "My Plugin", doc.Fields["PLUGIN_NAME"])
	assert.Equal(t, []interface{}{"2.0", "2.1"}, doc.Fields["PLUGIN_API_VERSIONS"],
		"API versions should be stored as a trimmed list")
}

// TestRunCreateManifest_MissingFieldsNonInteractive verifies missing
// fields fail a non-interactive run instead of prompting
func TestRunCreateManifest_MissingFieldsNonInteractive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MANIFEST.json")

	flags := fullFlags()
	flags.Author = ""
	flags.Description = ""

	err := runCreateManifest(path, flags)
	require.Error(t, err, "Missing fields cannot be collected non-interactively")
	assert.Contains(t, err.Error(), "PLUGIN_AUTHOR")
	assert.Contains(t, err.Error(), "PLUGIN_DESCRIPTION")
	assert.NoFileExists(t, path, "No document should be written on failure")
}

// TestRunCreateManifest_InvalidFlagValue verifies flag input goes through
// the same validators as wizard input
func TestRunCreateManifest_InvalidFlagValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MANIFEST.json")

	flags := fullFlags()
	flags.Version = "not-a-version"

	err := runCreateManifest(path, flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLUGIN_VERSION", "The offending field should be named")
}

// TestMissingFields_PreservesDeclarationOrder verifies wizard prompts
// follow the known-field order
func TestMissingFields_PreservesDeclarationOrder(t *testing.T) {
	doc := manifest.New()
	doc.Fields["PLUGIN_VERSION"] = "1.0.0"

	fields := missingFields(doc)

	keys := make([]string, 0, len(fields))
	for _, field := range fields {
		keys = append(keys, field.Key)
	}
	assert.Equal(t, []string{
		"PLUGIN_NAME",
		"PLUGIN_AUTHOR",
		"PLUGIN_API_VERSIONS",
		"PLUGIN_LICENSE",
		"PLUGIN_LICENSE_URL",
		"PLUGIN_DESCRIPTION",
	}, keys)
}

// TestWizardModel_ValidatesAndAdvances drives the wizard model directly
// through its update loop
func TestWizardModel_ValidatesAndAdvances(t *testing.T) {
	version, _ := metadata.FieldByKey("PLUGIN_VERSION")
	name, _ := metadata.FieldByKey("PLUGIN_NAME")
	model := newWizardModel([]metadata.Field{version, name})

	// Invalid version input re-prompts with an error
	model.input.SetValue("oops")
	next, _ := model.Update(keyMsg("enter"))
	model = next.(wizardModel)
	assert.Equal(t, 0, model.index, "Invalid input should not advance")
	assert.NotEmpty(t, model.errMsg, "Validation failure should be surfaced")

	// Valid input advances to the next field
	model.input.SetValue("1.0.0")
	next, _ = model.Update(keyMsg("enter"))
	model = next.(wizardModel)
	assert.Equal(t, 1, model.index)
	assert.Empty(t, model.errMsg)
	assert.Equal(t, "1.0.0", model.values["PLUGIN_VERSION"])

	// Completing the last field finishes the wizard
	model.input.SetValue("My Plugin")
	next, _ = model.Update(keyMsg("enter"))
	model = next.(wizardModel)
	assert.True(t, model.done)
	assert.Equal(t, "My Plugin", model.values["PLUGIN_NAME"])

	// Escape aborts
	aborting := newWizardModel([]metadata.Field{name})
	next, _ = aborting.Update(keyMsg("esc"))
	assert.True(t, next.(wizardModel).aborted)
}
