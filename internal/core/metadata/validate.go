package metadata

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation patterns for user-supplied manifest values. Both are anchored
// at the start only: trailing garbage after a valid prefix is tolerated.
var (
	urlRegex     = regexp.MustCompile(`^https?:\/\/(www\.)?[-a-zA-Z0-9@:%._\+~#=]{2,256}\.[a-z]{2,6}\b([-a-zA-Z0-9@:%_\+.~#?&//=]*)`)
	versionRegex = regexp.MustCompile(`^(\d+\.(\d+\.)*\d+)`)
)

// ValidateVersion checks that a value is a dotted-numeric version string
func ValidateVersion(value string) error {
	if !versionRegex.MatchString(value) {
		return fmt.Errorf("%s is not a valid version string", value)
	}
	return nil
}

// ValidateAPIVersions splits a comma-separated list of API versions and
// validates each element, returning the trimmed list
func ValidateAPIVersions(value string) ([]string, error) {
	parts := strings.Split(value, ",")
	versions := make([]string, 0, len(parts))
	for _, part := range parts {
		versions = append(versions, strings.TrimSpace(part))
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%s are not valid api versions", value)
	}
	for _, version := range versions {
		if !versionRegex.MatchString(version) {
			return nil, fmt.Errorf("%s is not a valid API version", version)
		}
	}
	return versions, nil
}

// ValidateURL checks that a value looks like an http or https URL
func ValidateURL(value string) error {
	if !urlRegex.MatchString(value) {
		return fmt.Errorf("%s is not a valid URL", value)
	}
	return nil
}
