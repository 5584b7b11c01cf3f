// Package manifest models the per-plugin manifest document: the fixed
// metadata fields plus a "files" field that legitimately takes one of two
// shapes depending on which pipeline produced it. The catalog builder
// records a relative-path to content-hash map; the archive builder records
// the ordered list of archive entries with their container checksums. The
// two shapes are kept as an explicit union so consumers declare which one
// they need instead of duck-typing the JSON.
package manifest

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/metabrainz/picard-plugin-tools/internal/core/metadata"
)

const (
	// EmbeddedName is the reserved archive entry name the manifest is
	// stored under, regardless of the document's filename on disk.
	EmbeddedName = "MANIFEST.json"

	// filesKey is the document field holding either manifest files shape.
	filesKey = "files"
)

var (
	// ErrNoEmbeddedManifest is returned when an archive carries no
	// reserved manifest entry.
	ErrNoEmbeddedManifest = errors.New("archive has no embedded manifest")

	// ErrFilesShape is returned when a consumer requires one files shape
	// and the document carries the other.
	ErrFilesShape = errors.New("manifest files field has the wrong shape")

	// ErrMalformed marks a manifest document that is not valid JSON.
	ErrMalformed = errors.New("manifest document is not valid JSON")
)

// FileRecord is one archive entry as recorded at build time: the entry
// name and the checksum assigned by the container format itself.
type FileRecord struct {
	Filename string `json:"filename"`
	CRC      uint32 `json:"crc"`
}

// Files is the manifest "files" field. Exactly one of the two members is
// set: Hashes for the catalog (pre-archive) shape, Records for the
// archive-build shape.
type Files struct {
	Hashes  map[string]string
	Records []FileRecord
}

// HashFiles wraps a path-to-digest map in the catalog shape
func HashFiles(hashes map[string]string) *Files {
	return &Files{Hashes: hashes}
}

// RecordFiles wraps an ordered structural record in the archive shape
func RecordFiles(records []FileRecord) *Files {
	return &Files{Records: records}
}

// MarshalJSON writes whichever shape is populated
func (f *Files) MarshalJSON() ([]byte, error) {
	if f.Records != nil {
		return json.Marshal(f.Records)
	}
	return json.Marshal(f.Hashes)
}

// UnmarshalJSON detects the shape from the JSON structure
func (f *Files) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return fmt.Errorf("empty files field")
	}

	switch trimmed[0] {
	case '[':
		f.Hashes = nil
		return json.Unmarshal(data, &f.Records)
	case '{':
		f.Records = nil
		return json.Unmarshal(data, &f.Hashes)
	}
	return fmt.Errorf("files field is neither a list nor a mapping")
}

// Manifest is a plugin manifest document: free-form metadata fields plus
// the optional files field.
type Manifest struct {
	Fields map[string]interface{}
	Files  *Files
}

// New creates an empty manifest with no fields set
func New() *Manifest {
	return &Manifest{Fields: make(map[string]interface{})}
}

// MarshalJSON merges the metadata fields and the files field into a single
// object. Keys serialize in lexicographic order.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	merged := make(map[string]interface{}, len(m.Fields)+1)
	for key, value := range m.Fields {
		merged[key] = value
	}
	if m.Files != nil {
		merged[filesKey] = m.Files
	}
	return json.Marshal(merged)
}

// UnmarshalJSON splits the files field off from the metadata fields
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Fields = make(map[string]interface{}, len(raw))
	m.Files = nil
	for key, value := range raw {
		if key == filesKey {
			files := &Files{}
			if err := files.UnmarshalJSON(value); err != nil {
				return fmt.Errorf("failed to decode files field: %w", err)
			}
			m.Files = files
			continue
		}

		var decoded interface{}
		if err := json.Unmarshal(value, &decoded); err != nil {
			return fmt.Errorf("failed to decode field %s: %w", key, err)
		}
		m.Fields[key] = decoded
	}

	return nil
}

// MissingFields returns the known metadata keys the document does not set,
// in field declaration order
func (m *Manifest) MissingFields() []string {
	var missing []string
	for _, field := range metadata.KnownFields {
		if _, ok := m.Fields[field.Key]; !ok {
			missing = append(missing, field.Key)
		}
	}
	return missing
}

// Load reads and decodes a manifest document from disk
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	m := New()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, ErrMalformed)
	}
	return m, nil
}

// Save writes the document to disk with lexicographic keys and two-space
// indentation
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}

// LoadEmbedded opens a finished archive and decodes the manifest stored
// under the reserved entry name
func LoadEmbedded(archivePath string) (*Manifest, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		if entry.Name != EmbeddedName {
			continue
		}

		file, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded manifest: %w", err)
		}
		defer file.Close()

		m := New()
		if err := json.NewDecoder(file).Decode(m); err != nil {
			return nil, fmt.Errorf("failed to decode embedded manifest: %w", err)
		}
		return m, nil
	}

	return nil, ErrNoEmbeddedManifest
}
