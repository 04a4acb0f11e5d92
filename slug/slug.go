// Package slug turns hostnames and titles into safe lowercase-ASCII name
// stems for archive filenames.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric    = regexp.MustCompile("[^a-z0-9-]+")
	consecutiveHyphens = regexp.MustCompile("-+")
)

// Generate creates a filename-friendly slug from a string. Hostname dots
// become hyphens so "example.com" stays readable as "example-com".
func Generate(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToLower(s)
	s = transliterate(s)

	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, ".", "-")

	s = nonAlphanumeric.ReplaceAllString(s, "")
	s = consecutiveHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > 100 {
		s = strings.TrimRight(s[:100], "-")
	}

	return s
}

// GenerateWithFallback generates a slug, falling back when the input
// produces an empty one.
func GenerateWithFallback(s, fallback string) string {
	slug := Generate(s)
	if slug == "" {
		return Generate(fallback)
	}
	return slug
}

// transliterate converts unicode characters to ASCII equivalents by
// decomposing and dropping combining marks.
func transliterate(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// isMn checks if a rune is a nonspacing mark (accents, diacritics)
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
