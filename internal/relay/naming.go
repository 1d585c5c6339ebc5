package relay

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const (
	maxFilenameLen = 255

	// "<uuid>_" prepended by GeneratedName
	generatedPrefixLen = 36 + 1
)

// SanitizeFilename returns the client filename unchanged, or
// ErrInvalidFilename when it is empty, a dot entry, too long, padded with
// whitespace, or carries path separators or control characters.
func SanitizeFilename(name string) (string, error) {
	switch {
	case name == "", name == ".", name == "..":
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	case strings.TrimSpace(name) != name:
		return "", fmt.Errorf("%w: %q has leading or trailing whitespace", ErrInvalidFilename, name)
	case len(name) > maxFilenameLen:
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidFilename, maxFilenameLen)
	case strings.ContainsAny(name, `/\`):
		return "", fmt.Errorf("%w: %q contains a path separator", ErrInvalidFilename, name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: %q contains control characters", ErrInvalidFilename, name)
		}
	}
	return name, nil
}

// SanitizeResizeFilename is SanitizeFilename with room left for the
// GeneratedName prefix.
func SanitizeResizeFilename(name string) (string, error) {
	name, err := SanitizeFilename(name)
	if err != nil {
		return "", err
	}
	if limit := maxFilenameLen - generatedPrefixLen; len(name) > limit {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidFilename, limit)
	}
	return name, nil
}

// GeneratedName prefixes the original filename with id so resize uploads
// never collide.
func GeneratedName(id uuid.UUID, original string) string {
	return id.String() + "_" + original
}

// SourceKey places name under the source folder prefix.
func SourceKey(folder, name string) string {
	return folder + name
}
