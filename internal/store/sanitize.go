package store

import (
	"regexp"
	"strings"
)

// DefaultAnnotator is used when a username sanitizes down to nothing.
const DefaultAnnotator = "annotator"

// unsafeChars matches every character that may not appear in a path
// component derived from a username.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeUsername maps an arbitrary sign-in name to a string that is safe
// as a directory name: surrounding whitespace is trimmed, every character
// outside [A-Za-z0-9._-] becomes "_", and an empty result falls back to
// DefaultAnnotator. Idempotent.
func SanitizeUsername(raw string) string {
	safe := unsafeChars.ReplaceAllString(strings.TrimSpace(raw), "_")
	if safe == "" {
		return DefaultAnnotator
	}
	return safe
}
