package errors

import (
	"strings"
	"unicode"
)

// Bounds for user-supplied values.
const (
	MinResponseCount = 1
	MaxResponseCount = 5
	maxNodeIDLength  = 256
)

// ValidatePromptText rejects blank prompts. Surrounding whitespace is allowed
// and preserved by callers; only the trimmed emptiness matters here.
func ValidatePromptText(text string) error {
	if strings.TrimSpace(text) == "" {
		return New(ErrCodeInvalidInput, "prompt text cannot be empty")
	}
	return nil
}

// ValidateResponseCount checks that a batch size is within
// [MinResponseCount, MaxResponseCount].
func ValidateResponseCount(n int) error {
	if n < MinResponseCount || n > MaxResponseCount {
		return New(ErrCodeInvalidInput, "response count must be between %d and %d, got %d",
			MinResponseCount, MaxResponseCount, n)
	}
	return nil
}

// ValidateNodeID validates an externally supplied node or edge identifier.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - Maximum length of 256 characters
//   - No control characters or null bytes
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "id cannot be empty")
	}

	if len(id) > maxNodeIDLength {
		return New(ErrCodeInvalidInput, "id too long (max %d characters)", maxNodeIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "id contains invalid control characters")
		}
	}

	return nil
}

// ValidateFilePath validates a working-file path given on the command line.
func ValidateFilePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "file path cannot be empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidInput, "file path contains invalid characters")
	}
	return nil
}
