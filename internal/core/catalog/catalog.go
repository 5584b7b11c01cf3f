// Package catalog aggregates every plugin under a source root into a
// single JSON index and drives batch packaging against that index. The
// catalog is rebuilt wholesale on each run; there is no incremental merge.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/metabrainz/picard-plugin-tools/internal/core/archive"
	"github.com/metabrainz/picard-plugin-tools/internal/core/fingerprint"
	"github.com/metabrainz/picard-plugin-tools/internal/core/manifest"
	"github.com/metabrainz/picard-plugin-tools/internal/core/metadata"
)

const (
	// FileName is the catalog document written to a destination directory
	FileName = "PLUGINS.json"

	// vcsDirName is skipped when walking top-level plugin directories
	vcsDirName = ".git"

	// compiledExt marks compiled plugin artifacts excluded from hashing
	compiledExt = ".so"

	// sourceExt is the extension of plugin marker source files
	sourceExt = ".go"
)

// Entry is one plugin's catalog record: its extracted metadata fields plus
// the per-file content-hash map keyed by path relative to the plugin
// directory.
type Entry struct {
	Fields metadata.Metadata
	Files  map[string]string
}

// MarshalJSON merges the metadata fields and the file-hash map into a
// single object with the hashes under "files"
func (e *Entry) MarshalJSON() ([]byte, error) {
	merged := make(map[string]interface{}, len(e.Fields)+1)
	for key, value := range e.Fields {
		merged[key] = value
	}
	merged["files"] = e.Files
	return json.Marshal(merged)
}

// UnmarshalJSON splits the "files" map back off from the metadata fields
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.Fields = make(metadata.Metadata, len(raw))
	e.Files = nil
	for key, value := range raw {
		if key == "files" {
			if err := json.Unmarshal(value, &e.Files); err != nil {
				return fmt.Errorf("failed to decode files map: %w", err)
			}
			continue
		}

		var decoded interface{}
		if err := json.Unmarshal(value, &decoded); err != nil {
			return fmt.Errorf("failed to decode field %s: %w", key, err)
		}
		e.Fields[key] = decoded
	}
	return nil
}

// Catalog is the process-wide plugin index
type Catalog struct {
	Plugins map[string]*Entry `json:"plugins"`
}

// Names returns the cataloged plugin directory names in sorted order
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Plugins))
	for name := range c.Plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads the catalog document from a destination directory. A missing
// catalog returns nil with no error; callers treat that as "no gating".
func Load(destDir string) (*Catalog, error) {
	data, err := os.ReadFile(filepath.Join(destDir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	catalog := &Catalog{}
	if err := json.Unmarshal(data, catalog); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return catalog, nil
}

// Builder scans plugin source trees to produce the catalog and packages
// cataloged plugins in batch.
type Builder struct {
	debug     bool
	extractor *metadata.Extractor
	archiver  *archive.Builder
}

// NewBuilder creates a new catalog builder
func NewBuilder(debug bool) *Builder {
	return &Builder{
		debug:     debug,
		extractor: metadata.NewExtractor(debug),
		archiver:  archive.NewBuilder(debug),
	}
}

// Build scans one level of plugin directories under sourceDir and writes a
// fresh catalog document to destDir, discarding any previous catalog. A
// plugin is included only when it has both files and non-empty metadata;
// an included plugin also gets its metadata written to a MANIFEST.json
// inside its own directory. One plugin's failure is logged and skipped
// without aborting the scan.
func (b *Builder) Build(sourceDir, destDir string) (*Catalog, error) {
	dirs, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory %s: %w", sourceDir, err)
	}

	catalog := &Catalog{Plugins: make(map[string]*Entry)}
	for _, dir := range dirs {
		if !dir.IsDir() || dir.Name() == vcsDirName {
			continue
		}

		pluginDir := filepath.Join(sourceDir, dir.Name())
		entry, err := b.scanPlugin(pluginDir)
		if err != nil {
			fmt.Printf("⚠️  Skipping %s: %v\n", dir.Name(), err)
			continue
		}
		if entry == nil {
			if b.debug {
				fmt.Printf("[Catalog] Excluding %s: missing files or metadata\n", dir.Name())
			}
			continue
		}

		if err := writePluginManifest(pluginDir, entry.Fields); err != nil {
			fmt.Printf("⚠️  Skipping %s: %v\n", dir.Name(), err)
			continue
		}

		fmt.Printf("✅ Added plugin: %s\n", dir.Name())
		catalog.Plugins[dir.Name()] = entry
	}

	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}

	outPath := filepath.Join(destDir, FileName)
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write catalog %s: %w", outPath, err)
	}

	return catalog, nil
}

// scanPlugin walks one plugin's full subtree, hashing every regular
// non-compiled file and extracting metadata from the first source file
// that yields any. Returns nil when the plugin does not qualify for the
// catalog.
func (b *Builder) scanPlugin(pluginDir string) (*Entry, error) {
	files := make(map[string]string)
	data := make(metadata.Metadata)

	err := filepath.WalkDir(pluginDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext == compiledExt {
			return nil
		}

		digest, err := fingerprint.SumFile(path)
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(pluginDir, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = digest

		if ext == sourceExt && len(data) == 0 {
			extracted, err := b.extractor.ExtractFile(path)
			if err != nil {
				// Unparseable source is not fatal to the plugin scan
				if b.debug {
					fmt.Printf("[Catalog] Unable to parse %s: %v\n", path, err)
				}
				return nil
			}
			data = extracted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(files) == 0 || len(data) == 0 {
		return nil, nil
	}
	return &Entry{Fields: data, Files: files}, nil
}

// writePluginManifest persists an included plugin's metadata fields (no
// files) as MANIFEST.json inside the plugin directory
func writePluginManifest(pluginDir string, fields metadata.Metadata) error {
	doc := manifest.New()
	for key, value := range fields {
		doc.Fields[key] = value
	}
	return doc.Save(filepath.Join(pluginDir, manifest.EmbeddedName))
}

// PackageAll archives every qualifying plugin directory under sourceDir
// into destDir, writing a checksum sidecar next to each archive. When a
// catalog exists in destDir only its listed plugins are packaged;
// otherwise every top-level directory is. Per-plugin failures are logged
// and skipped. Returns the archive paths created.
func (b *Builder) PackageAll(sourceDir, destDir string) ([]string, error) {
	existing, err := Load(destDir)
	if err != nil {
		return nil, err
	}

	var valid map[string]bool
	if existing != nil && len(existing.Plugins) > 0 {
		valid = make(map[string]bool, len(existing.Plugins))
		for name := range existing.Plugins {
			valid[name] = true
		}
	}

	dirs, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory %s: %w", sourceDir, err)
	}

	var archives []string
	for _, dir := range dirs {
		if !dir.IsDir() || dir.Name() == vcsDirName {
			continue
		}
		if valid != nil && !valid[dir.Name()] {
			if b.debug {
				fmt.Printf("[Catalog] Skipping %s: not in catalog\n", dir.Name())
			}
			continue
		}

		result, err := b.archiver.Build(filepath.Join(sourceDir, dir.Name()), "", destDir)
		if err != nil {
			fmt.Printf("⚠️  Failed to package %s: %v\n", dir.Name(), err)
			continue
		}

		if _, err := archive.WriteChecksum(result.ArchivePath); err != nil {
			fmt.Printf("⚠️  Failed to write checksum for %s: %v\n", result.ArchivePath, err)
			continue
		}

		fmt.Printf("📦 Created: %s\n", result.ArchivePath)
		archives = append(archives, result.ArchivePath)
	}

	return archives, nil
}
