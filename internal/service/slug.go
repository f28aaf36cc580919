package service

import (
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// reservedSlugs collide with static API routes under /api/.
var reservedSlugs = map[string]struct{}{
	"admin":     {},
	"photos":    {},
	"galleries": {},
	"shop":      {},
	"contact":   {},
	"health":    {},
}

// ValidSlug reports whether s is a non-empty string of ASCII letters, digits and hyphens.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// IsReservedSlug reports whether s names an API route and cannot be used for a delivery.
func IsReservedSlug(s string) bool {
	_, ok := reservedSlugs[strings.ToLower(s)]
	return ok
}

// validFilename accepts a single path element.
func validFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}
