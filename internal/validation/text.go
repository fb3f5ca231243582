package validation

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Length bounds for user supplied text.
const (
	NameMinLength    = 2
	NameMaxLength    = 50
	TitleMinLength   = 5
	TitleMaxLength   = 100
	ContentMinLength = 50
	ContentMaxLength = 10000
	BioMaxLength     = 300

	wordsPerMinute = 200
)

func trimmedLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// ValidateName checks a display name against the length bounds.
func ValidateName(name string) error {
	n := trimmedLen(name)
	if n < NameMinLength {
		return fmt.Errorf("Name must be at least %d characters.", NameMinLength)
	}
	if n > NameMaxLength {
		return fmt.Errorf("Name must be less than %d characters.", NameMaxLength)
	}
	return nil
}

// ValidateNameMax checks only the upper bound of a display name.
func ValidateNameMax(name string) error {
	if trimmedLen(name) > NameMaxLength {
		return fmt.Errorf("Name must be less than %d characters.", NameMaxLength)
	}
	return nil
}

// ValidateTitle checks a post title against the length bounds.
func ValidateTitle(title string) error {
	n := trimmedLen(title)
	if n < TitleMinLength {
		return fmt.Errorf("Title must be at least %d characters.", TitleMinLength)
	}
	if n > TitleMaxLength {
		return fmt.Errorf("Title must be less than %d characters.", TitleMaxLength)
	}
	return nil
}

// ValidateContent checks post content against the length bounds.
func ValidateContent(content string) error {
	n := trimmedLen(content)
	if n < ContentMinLength {
		return fmt.Errorf("Content must be at least %d characters.", ContentMinLength)
	}
	if n > ContentMaxLength {
		return fmt.Errorf("Content must be less than %d characters.", ContentMaxLength)
	}
	return nil
}

// ValidateBio checks the profile bio length.
func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > BioMaxLength {
		return fmt.Errorf("Bio must be less than %d characters.", BioMaxLength)
	}
	return nil
}

// ReadingTime estimates minutes to read content at 200 words per minute, never less than 1.
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	return max(1, int(math.Ceil(float64(words)/wordsPerMinute)))
}

// FormatCharCount renders a "current/max" counter.
func FormatCharCount(current, maxLen int) string {
	return fmt.Sprintf("%d/%d", current, maxLen)
}
