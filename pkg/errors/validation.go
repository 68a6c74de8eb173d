package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateVariableName validates a dataset variable name.
// It rejects names that would break graph text formats or file exports.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No whitespace (variable names appear in space-delimited edge lists)
//   - No endpoint-mark characters (<, >, o, - are fine inside, but the
//     name cannot consist solely of mark characters)
//   - Maximum length of 256 characters
func ValidateVariableName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidVariable, "variable name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidVariable, "variable name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidVariable, "variable name contains invalid control characters")
		}
		if unicode.IsSpace(r) {
			return New(ErrCodeInvalidVariable, "variable name cannot contain whitespace: %q", name)
		}
	}

	if strings.Trim(name, "<>o-") == "" {
		return New(ErrCodeInvalidVariable, "variable name %q is indistinguishable from an edge mark", name)
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

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}

// runIDRegex matches canonical run identifiers (UUID format).
var runIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateRunID validates a stored-run identifier.
func ValidateRunID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "run id cannot be empty")
	}
	if !runIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid run id: %q", id)
	}
	return nil
}

// graphFormats are the supported graph output formats.
var graphFormats = map[string]bool{
	"json": true,
	"text": true,
	"dot":  true,
	"svg":  true,
	"png":  true,
}

// ValidateGraphFormat validates a graph export format name.
func ValidateGraphFormat(format string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "output format cannot be empty")
	}
	if !graphFormats[strings.ToLower(format)] {
		return New(ErrCodeInvalidFormat, "unsupported output format: %q", format)
	}
	return nil
}

// algorithms are the supported search algorithm names.
var algorithms = map[string]bool{
	"boss":  true,
	"grasp": true,
}

// ValidateAlgorithm validates a search algorithm name.
func ValidateAlgorithm(name string) error {
	if name == "" {
		return New(ErrCodeInvalidAlgorithm, "algorithm cannot be empty")
	}
	if !algorithms[strings.ToLower(name)] {
		return New(ErrCodeInvalidAlgorithm, "unsupported algorithm: %q", name)
	}
	return nil
}
