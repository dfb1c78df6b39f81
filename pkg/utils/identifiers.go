package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewJobID returns a fresh job identifier.
func NewJobID() string {
	return uuid.NewString()
}

// Slugify turns an application name into an identifier safe for git
// repository names and filesystem paths: lowercase, with runs of
// non-alphanumeric characters collapsed to single dashes.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "app"
	}
	return slug
}
