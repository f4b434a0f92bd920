// Package security reports weak and reused passwords across a vault.
package security

import "unicode/utf8"

// PasswordStrength represents the strength level of a password.
type PasswordStrength int

const (
	// PasswordWeak is shorter than 8 characters.
	PasswordWeak PasswordStrength = iota
	// PasswordFair is 8 to 13 characters.
	PasswordFair
	// PasswordGood is 14 to 19 characters.
	PasswordGood
	// PasswordStrong is 20 characters or more.
	PasswordStrong
)

// String returns a human-readable representation of the password strength.
func (s PasswordStrength) String() string {
	switch s {
	case PasswordWeak:
		return "Weak"
	case PasswordFair:
		return "Fair"
	case PasswordGood:
		return "Good"
	case PasswordStrong:
		return "Strong"
	default:
		return "Unknown"
	}
}

// Strength rates a password by length alone, following NIST SP 800-63B:
// composition rules are not rewarded.
func Strength(password string) PasswordStrength {
	length := utf8.RuneCountInString(password)

	switch {
	case length >= 20:
		return PasswordStrong
	case length >= 14:
		return PasswordGood
	case length >= 8:
		return PasswordFair
	default:
		return PasswordWeak
	}
}
