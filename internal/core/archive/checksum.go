package archive

import (
	"fmt"
	"os"

	"github.com/metabrainz/picard-plugin-tools/internal/core/fingerprint"
)

// ChecksumSuffix is appended to an archive path to name its sidecar file
const ChecksumSuffix = ".md5"

// WriteChecksum digests the archive's raw bytes and writes the hex string
// to the sidecar file next to it, returning the digest. The sidecar is a
// coarse whole-file corruption check, independent of the structural
// verification above.
func WriteChecksum(archivePath string) (string, error) {
	digest, err := fingerprint.SumFile(archivePath)
	if err != nil {
		return "", err
	}

	sidecarPath := archivePath + ChecksumSuffix
	if err := os.WriteFile(sidecarPath, []byte(digest), 0644); err != nil {
		return "", fmt.Errorf("failed to write checksum sidecar %s: %w", sidecarPath, err)
	}
	return digest, nil
}

// VerifyChecksum recomputes the archive's digest and compares it to the
// sidecar's recorded value. A mismatch returns false with a nil error; a
// missing archive or sidecar is an error.
func VerifyChecksum(archivePath string) (bool, error) {
	recorded, err := os.ReadFile(archivePath + ChecksumSuffix)
	if err != nil {
		return false, fmt.Errorf("failed to read checksum sidecar: %w", err)
	}

	digest, err := fingerprint.SumFile(archivePath)
	if err != nil {
		return false, err
	}

	return string(recorded) == digest, nil
}
