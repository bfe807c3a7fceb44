package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// sessionIDRegex matches the session identifiers written by Cuneiform
// (UUIDs) and by the converters (run directory names such as
// 20160831T122313+0000).
var sessionIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:+-]*$`)

// ValidateSessionID validates a session identifier received from the CLI or
// the HTTP API before it is used in a store query.
func ValidateSessionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidSessionID, "session id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidSessionID, "session id too long (max 128 characters)")
	}
	if !sessionIDRegex.MatchString(id) {
		return New(ErrCodeInvalidSessionID, "invalid session id: %q", id)
	}
	return nil
}

// ValidateTaskType validates a task type (Cuneiform lambda name or Pegasus
// transformation) for safety. Names end up in file names of rendered charts.
func ValidateTaskType(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "task type cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "task type too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "task type contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates a relative output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
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

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}
	return nil
}

// SafeFileName turns a task type or job name into a file name component.
func SafeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := strings.Trim(b.String(), ".")
	if s == "" {
		return "_"
	}
	return s
}
