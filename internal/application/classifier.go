package application

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMinLength is the minimum password length used when none is configured.
const DefaultMinLength = 8

// specialChars is the fixed punctuation set accepted by the complexity rule.
const specialChars = `!@#$%^&*(),.?":{}|<>`

const (
	suggestLowercase = "Add lowercase letters."
	suggestUppercase = "Add uppercase letters."
	suggestDigits    = "Add digits."
	suggestSpecial   = "Add special characters."
)

// charClasses records which character-class rules a password satisfies.
// Classes are ASCII-only: letters and digits outside ASCII never count.
type charClasses struct {
	lower, upper, digit, special bool
}

func detectClasses(password string) charClasses {
	var c charClasses
	for i := 0; i < len(password); i++ {
		b := password[i]
		switch {
		case b >= 'a' && b <= 'z':
			c.lower = true
		case b >= 'A' && b <= 'Z':
			c.upper = true
		case b >= '0' && b <= '9':
			c.digit = true
		case strings.IndexByte(specialChars, b) >= 0:
			c.special = true
		}
	}
	return c
}

func (c charClasses) all() bool {
	return c.lower && c.upper && c.digit && c.special
}

// passwordLength counts characters, not bytes. Each invalid UTF-8 byte counts
// as one character.
func passwordLength(password string) int {
	return utf8.RuneCountInString(password)
}

// Classification is the strength verdict for a single password.
type Classification struct {
	LengthOK     bool
	ComplexityOK bool
	// Suggestions holds one remediation per failed rule in the order
	// length, lowercase, uppercase, digit, special character.
	Suggestions []string
}

// IsStrong reports whether both the length and the complexity rules hold.
func (c Classification) IsStrong() bool {
	return c.LengthOK && c.ComplexityOK
}

// SuggestionText joins the suggestions with single spaces.
func (c Classification) SuggestionText() string {
	return strings.Join(c.Suggestions, " ")
}

// Classify evaluates the length and character-class rules for password.
// minLength is the inclusive minimum number of characters.
func Classify(password string, minLength int) Classification {
	classes := detectClasses(password)

	result := Classification{
		LengthOK:     passwordLength(password) >= minLength,
		ComplexityOK: classes.all(),
		Suggestions:  []string{},
	}

	if !result.LengthOK {
		result.Suggestions = append(result.Suggestions, lengthSuggestion(minLength))
	}
	if !classes.lower {
		result.Suggestions = append(result.Suggestions, suggestLowercase)
	}
	if !classes.upper {
		result.Suggestions = append(result.Suggestions, suggestUppercase)
	}
	if !classes.digit {
		result.Suggestions = append(result.Suggestions, suggestDigits)
	}
	if !classes.special {
		result.Suggestions = append(result.Suggestions, suggestSpecial)
	}

	return result
}

func lengthSuggestion(minLength int) string {
	return fmt.Sprintf("Increase the password length to at least %d characters.", minLength)
}
