package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ExcerptLength is the number of characters kept in a generated excerpt.
const ExcerptLength = 150

// fallbackSlug is used when a title has no ASCII letters or digits.
const fallbackSlug = "post"

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a title: lowercase, runs of anything
// other than a-z0-9 become a single "-", and edge dashes are trimmed.
func Slugify(title string) string {
	slug := nonSlugRun.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// Excerpt returns content unchanged when short, otherwise its first
// ExcerptLength characters, trimmed, followed by "...".
func Excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= ExcerptLength {
		return content
	}
	return strings.TrimSpace(string(runes[:ExcerptLength])) + "..."
}

// Username bounds. The base leaves room for a numeric collision suffix
// within the users.username column.
const (
	UsernameMaxLength     = 64
	UsernameBaseMaxLength = UsernameMaxLength - 8
)

const fallbackUsername = "user"

var nonUsernameChar = regexp.MustCompile(`[^a-z0-9_-]+`)

// reservedUsernames shadow static routes under /api/users.
var reservedUsernames = []string{"search"}

// DeriveUsername lowercases a display name and keeps only a-z, 0-9, "_" and
// "-", so every username is a single URL path segment. The result is capped
// at UsernameBaseMaxLength and falls back to "user" when nothing is left.
func DeriveUsername(name string) string {
	return UsernameBase(nonUsernameChar.ReplaceAllString(strings.ToLower(name), ""))
}

// UsernameBase caps base at UsernameBaseMaxLength, falling back to "user" when empty.
func UsernameBase(base string) string {
	if utf8.RuneCountInString(base) > UsernameBaseMaxLength {
		base = string([]rune(base)[:UsernameBaseMaxLength])
	}
	if base == "" {
		return fallbackUsername
	}
	return base
}

// ReservedUsernames lists names no account may take.
func ReservedUsernames() []string {
	return append([]string(nil), reservedUsernames...)
}
