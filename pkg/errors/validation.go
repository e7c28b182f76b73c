package errors

import (
	"strings"
	"unicode"
)

// ValidateEntityID validates a composite entity id for safety and shape.
// Ids come from untrusted recordings, so this is intentionally conservative:
//   - No empty ids
//   - No control characters or null bytes
//   - Maximum length of 256 characters
//
// Beyond the process/local separator, no lexical structure is assumed.
func ValidateEntityID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidEntityID, "entity id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidEntityID, "entity id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidEntityID, "entity id contains control characters")
		}
	}

	return nil
}

// ValidateFrameIndex checks that index addresses a frame within a recording
// of frameCount frames.
func ValidateFrameIndex(index, frameCount int) error {
	if index < 0 {
		return New(ErrCodeInvalidFrame, "frame index cannot be negative: %d", index)
	}
	if frameCount > 0 && index >= frameCount {
		return New(ErrCodeInvalidFrame, "frame index %d out of range (recording has %d frames)", index, frameCount)
	}
	return nil
}

// ValidateDownsampleInterval checks that k is a usable downsample interval.
func ValidateDownsampleInterval(k int) error {
	if k < 1 {
		return New(ErrCodeInvalidInterval, "downsample interval must be >= 1, got %d", k)
	}
	return nil
}

// ValidateRecordingName validates a recording name used to address stored
// recordings. It must be a simple name, never a path.
func ValidateRecordingName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "recording name cannot be empty")
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "recording name cannot contain path separators")
	}

	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidInput, "recording name cannot start with a dot")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "recording name contains control characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
