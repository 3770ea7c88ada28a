// Package validation holds the syntactic checks shared by the user and
// admin forms. Every check is pure and reports a boolean; callers map a
// failure to a field message.
package validation

import (
	"regexp"
	"strings"
)

const (
	MsgInvalidEmailAddress = "Invalid email address"
	MsgInvalidEmailFormat  = "Invalid email format"
	MsgInvalidPassword     = "Invalid Password"
	MsgInvalidName         = "Invalid name format"
	MsgInvalidMobile       = "Invalid mobile number format"
	MsgPasswordMismatch    = "Passwords do not match"
	MsgPasswordPolicy      = "Password must be at least 8 characters long and include at least one lowercase letter, one uppercase letter, one digit, and can contain special character (@, -, _)."
)

var (
	emailPattern    = regexp.MustCompile(`^[\w-]+(\.[\w-]+)*@([\w-]+\.)+[a-zA-Z]{2,7}$`)
	passwordCharset = regexp.MustCompile(`^[\w@-]{8,}$`)
	namePattern     = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	mobilePattern   = regexp.MustCompile(`^[0-9]{10}$`)
)

// Email reports whether s is a syntactically valid address. Matching is
// case-insensitive.
func Email(s string) bool {
	return emailPattern.MatchString(strings.ToLower(s))
}

// Password reports whether s meets the interactive password policy: at
// least 8 characters from word characters, '@' and '-', with at least one
// digit, one lower-case and one upper-case letter.
func Password(s string) bool {
	if !passwordCharset.MatchString(s) {
		return false
	}
	var digit, lower, upper bool
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		}
	}
	return digit && lower && upper
}

// Name reports whether s is non-empty and made of ASCII letters and whitespace.
func Name(s string) bool {
	return namePattern.MatchString(s)
}

// Mobile reports whether s is exactly ten decimal digits.
func Mobile(s string) bool {
	return mobilePattern.MatchString(s)
}

// Errors maps a form field to the message shown next to it.
type Errors map[string]string

func (e Errors) Add(field, message string) {
	e[field] = message
}

func (e Errors) Empty() bool {
	return len(e) == 0
}
