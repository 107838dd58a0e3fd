package errors

import (
	"strings"
	"unicode"
)

// maxTermIDLength bounds term identifiers; they end up in file names,
// cache keys and SVG element IDs.
const maxTermIDLength = 256

// ValidateTermID validates a glossary term identifier.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - No leading or trailing whitespace
//   - Maximum length of 256 characters
func ValidateTermID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidTerm, "term id cannot be empty")
	}

	if len(id) > maxTermIDLength {
		return New(ErrCodeInvalidTerm, "term id too long (max %d characters)", maxTermIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidTerm, "term id %q contains invalid control characters", id)
		}
	}

	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidTerm, "term id %q has surrounding whitespace", id)
	}

	return nil
}

// ValidateSectionName validates a glossary section name used in URLs and
// output file names. The empty name is valid and selects the whole glossary.
func ValidateSectionName(name string) error {
	if len(name) > maxTermIDLength {
		return New(ErrCodeInvalidInput, "section name too long (max %d characters)", maxTermIDLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "section name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "section name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidatePath validates a file path given on the command line or in config.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid control characters")
		}
	}

	return nil
}
