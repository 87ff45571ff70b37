package domain

import (
	"regexp"
	"strings"
)

const (
	SlugMinLength = 3
	SlugMaxLength = 30
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]$`)

// reservedSlugs collide with platform routes and are never assignable.
var reservedSlugs = map[string]struct{}{
	"admin":       {},
	"api":         {},
	"www":         {},
	"app":         {},
	"dashboard":   {},
	"login":       {},
	"signup":      {},
	"super-admin": {},
}

// IsReservedSlug reports whether s is a platform route name.
func IsReservedSlug(s string) bool {
	_, ok := reservedSlugs[s]
	return ok
}

// ValidateSlug checks a candidate against the routing key rules.
// It does not check availability.
func ValidateSlug(candidate string) error {
	switch {
	case len(candidate) < SlugMinLength:
		return &ValidationError{Field: "slug", Reason: ReasonTooShort,
			Message: "slug must be at least 3 characters"}
	case len(candidate) > SlugMaxLength:
		return &ValidationError{Field: "slug", Reason: ReasonTooLong,
			Message: "slug must be at most 30 characters"}
	case !slugPattern.MatchString(candidate):
		return &ValidationError{Field: "slug", Reason: ReasonInvalidChars,
			Message: "slug may contain only lowercase letters, digits and inner hyphens"}
	case IsReservedSlug(candidate):
		return &ValidationError{Field: "slug", Reason: ReasonReserved,
			Message: "slug " + candidate + " is reserved"}
	}
	return nil
}

var (
	slugStrip      = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
)

// SuggestSlug derives a candidate slug from a business name. The result is
// advisory and may still fail ValidateSlug.
func SuggestSlug(businessName string) string {
	s := strings.ToLower(strings.TrimSpace(businessName))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugWhitespace.ReplaceAllString(s, "-")
	if len(s) > SlugMaxLength {
		s = s[:SlugMaxLength]
	}
	return strings.Trim(s, "-")
}
