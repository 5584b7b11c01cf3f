// Package fingerprint computes stable content digests used for integrity
// checking. Digests are MD5 rendered as lowercase hex and are compared by
// plain string equality everywhere else in the tool, so the textual form
// must never vary between invocations.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Sum returns the digest of an in-memory byte sequence
func Sum(data []byte) string {
	digest := md5.Sum(data)
	return hex.EncodeToString(digest[:])
}

// SumReader returns the digest of everything remaining in a reader
func SumReader(r io.Reader) (string, error) {
	hash := md5.New()
	if _, err := io.Copy(hash, r); err != nil {
		return "", fmt.Errorf("failed to hash stream: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// SumFile returns the digest of a file's contents. The file handle is
// closed before returning so batch callers can invoke this in a tight
// loop without leaking descriptors.
func SumFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	return SumReader(file)
}
