// Package generator creates random passwords from a cryptographically
// secure source.
package generator

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Character set constants
const (
	CharsetLowercase = "abcdefghijklmnopqrstuvwxyz"
	CharsetUppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	CharsetDigits    = "0123456789"
	CharsetSymbols   = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

var (
	// ErrInvalidLength is returned for a negative length.
	ErrInvalidLength = errors.New("generator: length must not be negative")

	// ErrEmptyCharset is returned when no characters are available.
	ErrEmptyCharset = errors.New("generator: character set is empty")
)

// Charset builds the character pool: letters always, digits and symbols
// only when requested.
func Charset(useSymbols, useNumbers bool) string {
	var b strings.Builder
	b.WriteString(CharsetLowercase)
	b.WriteString(CharsetUppercase)
	if useNumbers {
		b.WriteString(CharsetDigits)
	}
	if useSymbols {
		b.WriteString(CharsetSymbols)
	}
	return b.String()
}

// Generate returns a password of length characters drawn uniformly from
// Charset(useSymbols, useNumbers). A zero length yields "".
func Generate(length int, useSymbols, useNumbers bool) (string, error) {
	return GenerateFromCharset(Charset(useSymbols, useNumbers), length)
}

// GenerateFromCharset returns length bytes of charset, each picked with
// crypto/rand without modulo bias. charset is treated as bytes and should be
// ASCII.
func GenerateFromCharset(charset string, length int) (string, error) {
	if length < 0 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidLength, length)
	}
	if length == 0 {
		return "", nil
	}
	if charset == "" {
		return "", ErrEmptyCharset
	}

	charsetLen := big.NewInt(int64(len(charset)))
	password := make([]byte, length)

	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("generator: failed to generate random number: %w", err)
		}
		password[i] = charset[idx.Int64()]
	}

	return string(password), nil
}

// RemoveChars returns s without any of the characters in chars.
func RemoveChars(s, chars string) string {
	if chars == "" {
		return s
	}
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(chars, r) {
			return -1
		}
		return r
	}, s)
}
