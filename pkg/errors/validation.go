package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// oidRegex matches full and abbreviated hexadecimal object ids (SHA-1 and
// SHA-256 lengths included).
var oidRegex = regexp.MustCompile(`^[0-9a-f]{4,64}$`)

// ValidateOID validates a commit object id. Abbreviated ids of at least four
// hex digits are accepted; lookup against the repository decides whether an
// abbreviation is unambiguous.
func ValidateOID(oid string) error {
	if oid == "" {
		return New(ErrCodeInvalidOID, "oid cannot be empty")
	}
	if !oidRegex.MatchString(oid) {
		return New(ErrCodeInvalidOID, "malformed oid: %q", oid)
	}
	return nil
}

// ValidateRepoPath validates a local repository path for safety.
// It rejects paths that could be used for traversal or injection.
//
// The validation rules are intentionally conservative:
//   - No empty paths
//   - No control characters or null bytes
//   - Maximum length of 4096 characters
func ValidateRepoPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "repository path cannot be empty")
	}

	if len(path) > 4096 {
		return New(ErrCodeInvalidInput, "repository path too long (max 4096 characters)")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "repository path contains invalid characters")
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

// hexColorRegex matches #RGB, #RRGGBB, and #RRGGBBAA colors.
var hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ValidateHexColor validates a CSS-style hex color used in theme overrides.
func ValidateHexColor(c string) error {
	if c == "" {
		return New(ErrCodeInvalidTheme, "color cannot be empty")
	}
	if !hexColorRegex.MatchString(c) {
		return New(ErrCodeInvalidTheme, "invalid hex color: %q", c)
	}
	return nil
}

// ValidateRefName validates a branch or tag name against the characters git
// itself forbids. It is not a full re-implementation of check-ref-format,
// only the subset that matters for display and filtering.
func ValidateRefName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "ref name cannot be empty")
	}
	if strings.HasPrefix(name, "-") || strings.HasSuffix(name, ".lock") ||
		strings.HasSuffix(name, "/") || strings.Contains(name, "..") {
		return New(ErrCodeInvalidInput, "invalid ref name: %q", name)
	}
	if strings.ContainsAny(name, " ~^:?*[\\\x7f") {
		return New(ErrCodeInvalidInput, "invalid ref name: %q", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "invalid ref name: %q", name)
		}
	}
	return nil
}
