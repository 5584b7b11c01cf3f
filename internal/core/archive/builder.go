// Package archive builds and verifies distributable plugin archives. An
// archive is a zip file whose entry checksums (the container's own CRC-32
// values) double as the structural record used for later verification.
package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/metabrainz/picard-plugin-tools/internal/core/manifest"
)

// Suffix is the filename suffix of every packaged plugin archive
const Suffix = ".picard.zip"

// archiveEpoch pins entry timestamps so two builds of the same tree
// produce byte-identical archives and therefore stable sidecar digests.
var archiveEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Builder packages a plugin directory into a compressed archive and
// captures the structural record of what was written.
type Builder struct {
	debug bool
}

// NewBuilder creates a new archive builder
func NewBuilder(debug bool) *Builder {
	return &Builder{debug: debug}
}

// BuildResult describes a finished archive build
type BuildResult struct {
	// ArchivePath is where the archive was written.
	ArchivePath string

	// Record lists every entry and its container-assigned checksum, in
	// write order. The embedded manifest entry is not part of it.
	Record []manifest.FileRecord

	// Manifest is the bound manifest document, nil when none was given.
	Manifest *manifest.Manifest
}

// Build packages pluginDir into <basename>.picard.zip under outputDir
// (the working directory when empty). A single-file plugin is stored flat
// at its base name; otherwise entries keep their paths relative to the
// plugin's parent directory. When manifestPath names an existing document,
// the structural record is attached to it under "files", the document is
// rewritten in place, and a copy is embedded in the archive under the
// reserved entry name.
func (b *Builder) Build(pluginDir, manifestPath, outputDir string) (*BuildResult, error) {
	pluginDir, err := filepath.Abs(pluginDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plugin directory: %w", err)
	}
	parentDir := filepath.Dir(pluginDir)

	files, err := collectFiles(pluginDir)
	if err != nil {
		return nil, fmt.Errorf("failed to walk plugin directory: %w", err)
	}

	archiveName := filepath.Base(pluginDir) + Suffix
	archivePath := archiveName
	if outputDir != "" {
		archivePath = filepath.Join(outputDir, archiveName)
	}

	if b.debug {
		fmt.Printf("[ArchiveBuilder] Packaging %d file(s) from %s into %s\n", len(files), pluginDir, archivePath)
	}

	if err := writeArchive(archivePath, parentDir, files); err != nil {
		return nil, err
	}

	record, err := readRecord(archivePath)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{
		ArchivePath: archivePath,
		Record:      record,
	}

	if manifestPath != "" {
		if _, err := os.Stat(manifestPath); err == nil {
			bound, err := b.bindManifest(archivePath, manifestPath, record)
			if err != nil {
				return nil, err
			}
			result.Manifest = bound
		}
	}

	return result, nil
}

// collectFiles gathers every regular file beneath root in walk order
func collectFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// writeArchive creates the zip file with deflate compression and pinned
// timestamps. baseDir is the directory archive entry names are computed
// relative to; a tree of exactly one file is flattened to its base name.
func writeArchive(archivePath, baseDir string, files []string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", archivePath, err)
	}
	defer out.Close()

	writer := zip.NewWriter(out)
	writer.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	for _, file := range files {
		name := filepath.Base(file)
		if len(files) > 1 {
			rel, err := filepath.Rel(baseDir, file)
			if err != nil {
				return fmt.Errorf("failed to relativize %s: %w", file, err)
			}
			name = filepath.ToSlash(rel)
		}

		if err := addEntry(writer, name, file); err != nil {
			return err
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return out.Close()
}

// addEntry copies one file into the archive under the given entry name
func addEntry(writer *zip.Writer, name, path string) error {
	entry, err := writer.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: archiveEpoch,
	})
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", name, err)
	}

	source, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer source.Close()

	if _, err := io.Copy(entry, source); err != nil {
		return fmt.Errorf("failed to compress %s: %w", path, err)
	}
	return nil
}

// readRecord reads a finished archive's entry list back to obtain the
// structural record. Checksums come from the container's central
// directory, never recomputed here.
func readRecord(archivePath string) ([]manifest.FileRecord, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen archive %s: %w", archivePath, err)
	}
	defer reader.Close()

	record := make([]manifest.FileRecord, 0, len(reader.File))
	for _, entry := range reader.File {
		record = append(record, manifest.FileRecord{
			Filename: entry.Name,
			CRC:      entry.CRC32,
		})
	}
	return record, nil
}

// bindManifest attaches the structural record to the manifest document,
// rewrites it in place, and embeds it in the archive under the reserved
// entry name.
func (b *Builder) bindManifest(archivePath, manifestPath string, record []manifest.FileRecord) (*manifest.Manifest, error) {
	doc, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}

	doc.Files = manifest.RecordFiles(record)
	if err := doc.Save(manifestPath); err != nil {
		return nil, err
	}

	if b.debug {
		fmt.Printf("[ArchiveBuilder] Embedding %s into %s\n", manifestPath, archivePath)
	}

	if err := embedManifest(archivePath, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// embedManifest rewrites the archive with the manifest appended as its
// last entry. Existing entries are raw-copied so their order, bytes, and
// checksums are untouched.
func embedManifest(archivePath string, doc *manifest.Manifest) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to reopen archive %s: %w", archivePath, err)
	}
	defer reader.Close()

	tempPath := archivePath + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tempPath, err)
	}
	defer out.Close()

	writer := zip.NewWriter(out)
	writer.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	for _, entry := range reader.File {
		if err := writer.Copy(entry); err != nil {
			return fmt.Errorf("failed to copy entry %s: %w", entry.Name, err)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	entry, err := writer.CreateHeader(&zip.FileHeader{
		Name:     manifest.EmbeddedName,
		Method:   zip.Deflate,
		Modified: archiveEpoch,
	})
	if err != nil {
		return fmt.Errorf("failed to create manifest entry: %w", err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("failed to write manifest entry: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tempPath, err)
	}
	if err := reader.Close(); err != nil {
		return fmt.Errorf("failed to close archive reader: %w", err)
	}

	return os.Rename(tempPath, archivePath)
}
