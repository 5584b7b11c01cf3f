package metadata

import "strings"

// knownKeyPrefix is the prefix shared by every recognized marker constant.
const knownKeyPrefix = "PLUGIN_"

// FieldKind classifies how a manifest field's user input is validated
type FieldKind int

const (
	KindText FieldKind = iota
	KindVersion
	KindAPIVersions
	KindURL
)

// Field describes one of the fixed manifest metadata fields
type Field struct {
	Key    string    // manifest document key, e.g. "PLUGIN_NAME"
	Prompt string    // human-readable prompt label
	Kind   FieldKind // input validation rule
}

// KnownFields is the fixed metadata field set. Declaration order is the
// prompt order used by the manifest wizard.
var KnownFields = []Field{
	{Key: "PLUGIN_NAME", Prompt: "Plugin Name", Kind: KindText},
	{Key: "PLUGIN_AUTHOR", Prompt: "Plugin Author Name", Kind: KindText},
	{Key: "PLUGIN_VERSION", Prompt: "Plugin Version", Kind: KindVersion},
	{Key: "PLUGIN_API_VERSIONS", Prompt: "comma-separated Supported API Versions", Kind: KindAPIVersions},
	{Key: "PLUGIN_LICENSE", Prompt: "Plugin License", Kind: KindText},
	{Key: "PLUGIN_LICENSE_URL", Prompt: "License URL", Kind: KindURL},
	{Key: "PLUGIN_DESCRIPTION", Prompt: "Plugin Description", Kind: KindText},
}

// FieldByKey looks up a known field by its manifest document key
func FieldByKey(key string) (Field, bool) {
	for _, field := range KnownFields {
		if field.Key == key {
			return field, true
		}
	}
	return Field{}, false
}

// IsKnownKey reports whether a source-level constant name is one of the
// recognized metadata markers
func IsKnownKey(name string) bool {
	_, ok := FieldByKey(name)
	return ok
}

// CanonicalKey converts a marker constant name into the canonical metadata
// key: the fixed prefix stripped once, rest lowercased
func CanonicalKey(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, knownKeyPrefix))
}

// ValidateField validates raw user input for a field and returns the value
// to store in the manifest. API version input is split on commas into a
// list; all other kinds store the string unchanged.
func ValidateField(field Field, value string) (interface{}, error) {
	switch field.Kind {
	case KindVersion:
		if err := ValidateVersion(value); err != nil {
			return nil, err
		}
		return value, nil
	case KindAPIVersions:
		return ValidateAPIVersions(value)
	case KindURL:
		if err := ValidateURL(value); err != nil {
			return nil, err
		}
		return value, nil
	default:
		return value, nil
	}
}
