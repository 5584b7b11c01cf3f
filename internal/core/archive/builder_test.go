package archive

import (
	"archive/zip"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/metabrainz/picard-plugin-tools/internal/core/fingerprint"
	"github.com/metabrainz/picard-plugin-tools/internal/core/manifest"
)

// Local test helpers

// makePluginTree writes files (relative path to content) into a fresh
// plugin directory under a temp parent and returns the plugin directory
func makePluginTree(t *testing.T, name string, files map[string]string) string {
	t.Helper()

	pluginDir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(pluginDir, 0755))
	for rel, content := range files {
		path := filepath.Join(pluginDir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return pluginDir
}

// entryNames lists an archive's entry names in listing order
func entryNames(t *testing.T, archivePath string) []string {
	t.Helper()

	reader, err := zip.OpenReader(archivePath)
	require.NoError(t, err, "Should open the built archive")
	defer reader.Close()

	names := make([]string, 0, len(reader.File))
	for _, entry := range reader.File {
		names = append(names, entry.Name)
	}
	return names
}

// TestBuild_RelativePaths verifies entries are stored relative to the
// plugin's parent directory, prefixed with the plugin directory name
func TestBuild_RelativePaths(t *testing.T) {
	pluginDir := makePluginTree(t, "myplugin", map[string]string{
		"a.txt":     "alpha",
		"sub/b.txt": "beta",
	})
	outputDir := t.TempDir()

	builder := NewBuilder(false)
	result, err := builder.Build(pluginDir, "", outputDir)
	require.NoError(t, err, "Should build the archive")

	assert.Equal(t, filepath.Join(outputDir, "myplugin.picard.zip"), result.ArchivePath,
		"Archive name should derive from the plugin directory basename")
	assert.Equal(t, []string{"myplugin/a.txt", "myplugin/sub/b.txt"}, entryNames(t, result.ArchivePath),
		"Entries should keep paths relative to the plugin's parent directory")
}

// TestBuild_SingleFileFlattened verifies the one-file convenience
// exception: the entry is stored at its base name with no prefix
func TestBuild_SingleFileFlattened(t *testing.T) {
	pluginDir := makePluginTree(t, "tinyplugin", map[string]string{
		"nested/only.txt": "the only file",
	})
	outputDir := t.TempDir()

	builder := NewBuilder(false)
	result, err := builder.Build(pluginDir, "", outputDir)
	require.NoError(t, err)

	assert.Equal(t, []string{"only.txt"}, entryNames(t, result.ArchivePath),
		"A single file should be stored flat at its base name")
}

// TestBuild_RecordMatchesContainerChecksums verifies the structural
// record carries the container's own CRC values in write order
func TestBuild_RecordMatchesContainerChecksums(t *testing.T) {
	pluginDir := makePluginTree(t, "myplugin", map[string]string{
		"a.txt":     "alpha",
		"sub/b.txt": "beta",
	})

	builder := NewBuilder(false)
	result, err := builder.Build(pluginDir, "", t.TempDir())
	require.NoError(t, err)

	require.Len(t, result.Record, 2)
	assert.Equal(t, manifest.FileRecord{
		Filename: "myplugin/a.txt",
		CRC:      crc32.ChecksumIEEE([]byte("alpha")),
	}, result.Record[0], "Record should hold the zip CRC-32 of the entry content")
	assert.Equal(t, manifest.FileRecord{
		Filename: "myplugin/sub/b.txt",
		CRC:      crc32.ChecksumIEEE([]byte("beta")),
	}, result.Record[1])
}

// TestBuild_Deterministic verifies two builds of the same tree produce
// byte-identical archives
func TestBuild_Deterministic(t *testing.T) {
	pluginDir := makePluginTree(t, "myplugin", map[string]string{
		"a.txt":     "alpha",
		"sub/b.txt": "beta",
	})

	builder := NewBuilder(false)
	first, err := builder.Build(pluginDir, "", t.TempDir())
	require.NoError(t, err)
	second, err := builder.Build(pluginDir, "", t.TempDir())
	require.NoError(t, err)

	firstBytes, err := os.ReadFile(first.ArchivePath)
	require.NoError(t, err)
	secondBytes, err := os.ReadFile(second.ArchivePath)
	require.NoError(t, err)

	assert.Equal(t, firstBytes, secondBytes, "Rebuilding the same tree should be byte-identical")
	assert.Equal(t, fingerprint.Sum(firstBytes), fingerprint.Sum(secondBytes),
		"Identical archives should share a sidecar digest")
}

// TestBuild_ManifestBinding verifies the manifest is rewritten with the
// structural record and embedded as the archive's last entry
func TestBuild_ManifestBinding(t *testing.T) {
	pluginDir := makePluginTree(t, "myplugin", map[string]string{
		"a.txt":     "alpha",
		"sub/b.txt": "beta",
	})
	outputDir := t.TempDir()

	manifestPath := filepath.Join(t.TempDir(), "manifest.json")
	doc := manifest.New()
	doc.Fields["PLUGIN_NAME"] = "My Plugin"
	require.NoError(t, doc.Save(manifestPath))

	builder := NewBuilder(false)
	result, err := builder.Build(pluginDir, manifestPath, outputDir)
	require.NoError(t, err)

	require.NotNil(t, result.Manifest, "A bound manifest should be returned")
	assert.NotContains(t, recordNames(result.Record), manifest.EmbeddedName,
		"The structural record must not describe the manifest entry itself")

	names := entryNames(t, result.ArchivePath)
	require.NotEmpty(t, names)
	assert.Equal(t, manifest.EmbeddedName, names[len(names)-1],
		"The manifest should be embedded as the last entry under the reserved name")

	// The document on disk was rewritten with the record attached
	rewritten, err := manifest.Load(manifestPath)
	require.NoError(t, err)
	require.NotNil(t, rewritten.Files, "Rewritten manifest should carry the files field")
	assert.Equal(t, result.Record, rewritten.Files.Records,
		"Rewritten manifest should record the archive entries in write order")

	// The embedded copy matches it
	embedded, err := manifest.LoadEmbedded(result.ArchivePath)
	require.NoError(t, err)
	assert.Equal(t, "My Plugin", embedded.Fields["PLUGIN_NAME"])
	assert.Equal(t, result.Record, embedded.Files.Records)
}

// TestBuild_MissingManifestIgnored verifies a manifest path that does not
// exist is skipped rather than failing the build
func TestBuild_MissingManifestIgnored(t *testing.T) {
	pluginDir := makePluginTree(t, "myplugin", map[string]string{"a.txt": "alpha"})

	builder := NewBuilder(false)
	result, err := builder.Build(pluginDir, filepath.Join(t.TempDir(), "absent.json"), t.TempDir())
	require.NoError(t, err, "A non-existent manifest path should not fail the build")

	assert.Nil(t, result.Manifest, "No manifest should be bound")
	assert.NotContains(t, entryNames(t, result.ArchivePath), manifest.EmbeddedName)
}

// recordNames projects a structural record onto its entry names
func recordNames(record []manifest.FileRecord) []string {
	names := make([]string, 0, len(record))
	for _, r := range record {
		names = append(names, r.Filename)
	}
	return names
}

// TestWriteChecksum_SidecarRoundTrip verifies the sidecar holds exactly
// the archive's digest and verification accepts it
func TestWriteChecksum_SidecarRoundTrip(t *testing.T) {
	pluginDir := makePluginTree(t, "myplugin", map[string]string{"a.txt": "alpha"})

	builder := NewBuilder(false)
	result, err := builder.Build(pluginDir, "", t.TempDir())
	require.NoError(t, err)

	digest, err := WriteChecksum(result.ArchivePath)
	require.NoError(t, err, "Should write the sidecar")

	sidecar, err := os.ReadFile(result.ArchivePath + ChecksumSuffix)
	require.NoError(t, err)
	assert.Equal(t, digest, string(sidecar), "Sidecar should contain exactly the digest string")

	expected, err := fingerprint.SumFile(result.ArchivePath)
	require.NoError(t, err)
	assert.Equal(t, expected, digest, "Digest should cover the archive's raw bytes")

	valid, err := VerifyChecksum(result.ArchivePath)
	require.NoError(t, err)
	assert.True(t, valid, "A freshly written sidecar should verify")
}

// TestVerifyChecksum_DetectsTruncation verifies losing a single byte
// flips the sidecar check to false
func TestVerifyChecksum_DetectsTruncation(t *testing.T) {
	pluginDir := makePluginTree(t, "myplugin", map[string]string{"a.txt": "alpha"})

	builder := NewBuilder(false)
	result, err := builder.Build(pluginDir, "", t.TempDir())
	require.NoError(t, err)

	_, err = WriteChecksum(result.ArchivePath)
	require.NoError(t, err)

	data, err := os.ReadFile(result.ArchivePath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(result.ArchivePath, data[:len(data)-1], 0644))

	valid, err := VerifyChecksum(result.ArchivePath)
	require.NoError(t, err, "A corrupt archive is a mismatch, not an error")
	assert.False(t, valid, "Truncating the archive should fail the sidecar check")
}

// TestVerifyChecksum_MissingSidecar verifies a missing sidecar is an error
func TestVerifyChecksum_MissingSidecar(t *testing.T) {
	pluginDir := makePluginTree(t, "myplugin", map[string]string{"a.txt": "alpha"})

	builder := NewBuilder(false)
	result, err := builder.Build(pluginDir, "", t.TempDir())
	require.NoError(t, err)

	_, err = VerifyChecksum(result.ArchivePath)
	assert.Error(t, err, "A missing sidecar should be reported to the caller")
}

// Property-based tests using rapid

// TestBuild_Properties verifies the structural record always mirrors the
// input tree for arbitrary small plugin layouts
func TestBuild_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fileCount := rapid.IntRange(2, 6).Draw(t, "fileCount")
		files := make(map[string]string, fileCount)
		for i := 0; i < fileCount; i++ {
			files[fmt.Sprintf("dir%d/file%d.txt", i%2, i)] =
				rapid.StringMatching(`[ -~]{0,64}`).Draw(t, fmt.Sprintf("content%d", i))
		}

		parent, err := os.MkdirTemp("", "build")
		if err != nil {
			t.Fatalf("failed to create temp dir: %v", err)
		}
		defer os.RemoveAll(parent)

		pluginDir := filepath.Join(parent, "plugin")
		for rel, content := range files {
			path := filepath.Join(pluginDir, filepath.FromSlash(rel))
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				t.Fatalf("failed to create dir: %v", err)
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write file: %v", err)
			}
		}

		result, err := NewBuilder(false).Build(pluginDir, "", parent)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}

		if len(result.Record) != fileCount {
			t.Fatalf("record has %d entries, want %d", len(result.Record), fileCount)
		}
		for _, record := range result.Record {
			rel := record.Filename[len("plugin/"):]
			content, ok := files[rel]
			if !ok {
				t.Fatalf("unexpected entry %q", record.Filename)
			}
			if record.CRC != crc32.ChecksumIEEE([]byte(content)) {
				t.Fatalf("entry %q CRC mismatch", record.Filename)
			}
		}
	})
}

// Benchmarks

func BenchmarkBuild(b *testing.B) {
	pluginDir := filepath.Join(b.TempDir(), "bench")
	for i := 0; i < 16; i++ {
		path := filepath.Join(pluginDir, "sub", fmt.Sprintf("file%d.txt", i))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			b.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(fmt.Sprintf("content %d", i)), 0644); err != nil {
			b.Fatal(err)
		}
	}
	outputDir := b.TempDir()
	builder := NewBuilder(false)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := builder.Build(pluginDir, "", outputDir); err != nil {
			b.Fatal(err)
		}
	}
}
