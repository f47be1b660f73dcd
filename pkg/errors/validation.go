package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxSourceBytes is the largest diagram source accepted anywhere in the
// application. Larger inputs are almost certainly not hand-written diagrams.
const MaxSourceBytes = 1 << 20

// ValidateSource validates raw diagram source before it enters the pipeline.
//
// The validation rules are intentionally conservative:
//   - No empty or whitespace-only input
//   - No null bytes
//   - Maximum size of MaxSourceBytes
//
// Grammar-level validation is done by the parser, which reports line numbers.
func ValidateSource(src string) error {
	if strings.TrimSpace(src) == "" {
		return New(ErrCodeInvalidInput, "diagram source cannot be empty")
	}

	if len(src) > MaxSourceBytes {
		return New(ErrCodeInvalidInput, "diagram source too large (max %d bytes)", MaxSourceBytes)
	}

	if strings.ContainsRune(src, '\x00') {
		return New(ErrCodeInvalidInput, "diagram source contains null bytes")
	}

	return nil
}

// hexColorRegex matches 3- and 6-digit hex colors with a leading #.
var hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateHexColor validates a CSS-style hex color string.
func ValidateHexColor(hex string) error {
	if hex == "" {
		return New(ErrCodeInvalidTheme, "color cannot be empty")
	}

	if !hexColorRegex.MatchString(hex) {
		return New(ErrCodeInvalidTheme, "invalid hex color: %q", hex)
	}

	return nil
}

// themeNameRegex matches theme names safe for file paths and cache keys.
var themeNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// ValidateThemeName validates a named theme identifier.
func ValidateThemeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidTheme, "theme name cannot be empty")
	}

	if len(name) > 64 {
		return New(ErrCodeInvalidTheme, "theme name too long (max 64 characters)")
	}

	if !themeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidTheme, "invalid theme name: %q", name)
	}

	return nil
}

// ValidatePath validates a file path for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}

// diagramIDRegex matches share-store diagram IDs (UUID form).
var diagramIDRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ValidateDiagramID validates a stored-diagram identifier.
func ValidateDiagramID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "diagram id cannot be empty")
	}

	if !diagramIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid diagram id: %q", id)
	}

	return nil
}
