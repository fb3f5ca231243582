package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

var (
	upperRegex   = regexp.MustCompile(`[A-Z]`)
	digitRegex   = regexp.MustCompile(`[0-9]`)
	specialRegex = regexp.MustCompile(`[^A-Za-z0-9]`)

	strengthLabels = [...]string{"Very weak", "Weak", "Fair", "Good", "Strong"}
	strengthColors = [...]string{"#ef4444", "#f97316", "#eab308", "#22c55e", "#10b981"}
)

// PasswordStrength is a 0-4 score with a display label, color and at most two hints.
type PasswordStrength struct {
	Score    int      `json:"score"`
	Label    string   `json:"label"`
	Color    string   `json:"color"`
	Feedback []string `json:"feedback"`
}

// ValidatePassword checks the minimum password length.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("Password must be at least %d characters.", MinPasswordLength)
	}
	return nil
}

// GetPasswordStrength scores a password for the strength meter.
func GetPasswordStrength(password string) PasswordStrength {
	feedback := make([]string, 0, 4)
	score := 0
	length := utf8.RuneCountInString(password)
	longEnough := length >= MinPasswordLength

	if longEnough {
		score++
	} else {
		feedback = append(feedback, "At least 6 characters")
	}

	if length >= 10 {
		score++
	}

	if upperRegex.MatchString(password) {
		score++
	} else if longEnough {
		feedback = append(feedback, "Add uppercase letters")
	}

	if digitRegex.MatchString(password) {
		score++
	} else if longEnough {
		feedback = append(feedback, "Add numbers")
	}

	if specialRegex.MatchString(password) {
		score++
	} else if longEnough {
		feedback = append(feedback, "Add special characters")
	}

	score = min(score, 4)
	if len(feedback) > 2 {
		feedback = feedback[:2]
	}

	return PasswordStrength{
		Score:    score,
		Label:    strengthLabels[score],
		Color:    strengthColors[score],
		Feedback: feedback,
	}
}
