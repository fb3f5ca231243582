// Package validation provides input validation utilities
package validation

import (
	"errors"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ErrInvalidEmail is returned for addresses that do not look like user@host.tld.
var ErrInvalidEmail = errors.New("Please enter a valid email address.")

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail reports whether the trimmed email has a plausible shape.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

// ValidateEmail returns ErrInvalidEmail for malformed addresses.
func ValidateEmail(email string) error {
	if !IsValidEmail(email) {
		return ErrInvalidEmail
	}
	return nil
}
