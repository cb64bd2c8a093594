package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// SanitizeFilename reduces an uploaded file name to a safe base name:
// path components, control characters and leading dots are stripped.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	base = regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(base, "")
	base = strings.TrimLeft(base, ".")
	if base == "" || base == "/" || base == "\\" {
		return "file"
	}
	return base
}
