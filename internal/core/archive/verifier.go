package archive

import (
	"archive/zip"
	"fmt"

	"github.com/metabrainz/picard-plugin-tools/internal/core/manifest"
)

// Verify checks a finished archive against its embedded manifest. The
// archive's live entry list (minus the reserved manifest entry) must equal
// the recorded structural record element for element, in order. A
// reordered archive with identical content is invalid; that sequencing
// contract is deliberate. Mismatches return false with a nil error;
// a missing or malformed embedded manifest is an error.
func Verify(archivePath string) (bool, error) {
	live, err := liveRecord(archivePath)
	if err != nil {
		return false, err
	}

	doc, err := manifest.LoadEmbedded(archivePath)
	if err != nil {
		return false, err
	}

	if doc.Files == nil {
		return false, fmt.Errorf("embedded manifest has no files field: %w", manifest.ErrFilesShape)
	}
	if doc.Files.Records == nil {
		return false, fmt.Errorf("embedded manifest files field is a hash map, not an entry record: %w", manifest.ErrFilesShape)
	}

	recorded := doc.Files.Records
	if len(live) != len(recorded) {
		return false, nil
	}
	for i := range live {
		if live[i] != recorded[i] {
			return false, nil
		}
	}
	return true, nil
}

// liveRecord lists the archive's entries in their natural listing order,
// excluding the reserved manifest entry
func liveRecord(archivePath string) ([]manifest.FileRecord, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	defer reader.Close()

	record := make([]manifest.FileRecord, 0, len(reader.File))
	for _, entry := range reader.File {
		if entry.Name == manifest.EmbeddedName {
			continue
		}
		record = append(record, manifest.FileRecord{
			Filename: entry.Name,
			CRC:      entry.CRC32,
		})
	}
	return record, nil
}
