// Package crypto provides cryptographic primitives for securesafe.
//
// This package implements AES-256-GCM authenticated encryption and Argon2id
// key derivation following OWASP recommendations.
//
// # Security Features
//
//   - AES-256-GCM authenticated encryption
//   - Argon2id key derivation (64MB memory, 3 iterations, 4 threads by default)
//   - Cryptographically secure random nonce generation on every seal
//   - Secure memory wiping for sensitive data
//
// # Blob Format
//
// Seal produces a standard base64 string of
//
//	nonce (12 bytes) || tag (16 bytes) || ciphertext
//
// and Open splits it at those fixed offsets.
//
// # Example Usage
//
//	salt, _ := crypto.GenerateSalt()
//	key := crypto.DeriveKey(crypto.NormalizePassword("password"), salt, crypto.DefaultKDFParams())
//	defer key.Wipe()
//
//	blob, err := crypto.Seal(key, plaintext)
//	plaintext, err := crypto.Open(key, blob)
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/argon2"
	"golang.org/x/text/unicode/norm"
)

// Argon2id parameters following OWASP recommendations.
const (
	// Argon2Memory is the memory cost in KiB (64MB).
	Argon2Memory = 64 * 1024

	// Argon2Time is the number of iterations.
	Argon2Time = 3

	// Argon2Threads is the degree of parallelism.
	Argon2Threads = 4

	// KeyLength is the length of encryption keys in bytes (256 bits).
	KeyLength = 32

	// NonceLength is the length of GCM nonces in bytes (96 bits).
	NonceLength = 12

	// TagLength is the length of the GCM authentication tag in bytes.
	TagLength = 16

	// SaltLength is the length of a vault salt in bytes (128 bits).
	SaltLength = 16
)

// Upper bounds accepted from a persisted header.
const (
	maxArgon2Memory     = 4 * 1024 * 1024 // 4 GiB in KiB
	maxArgon2Iterations = 100
)

// Sentinel errors returned by crypto functions.
var (
	// ErrInvalidKeyLength indicates the key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("crypto: invalid key length, must be 32 bytes")

	// ErrInvalidNonceLength indicates the nonce is not 12 bytes.
	ErrInvalidNonceLength = errors.New("crypto: invalid nonce length, must be 12 bytes")

	// ErrAuthentication indicates a sealed value failed integrity verification.
	// A wrong key and corrupted data are deliberately indistinguishable.
	ErrAuthentication = errors.New("crypto: authentication failed: wrong key or corrupted data")

	// ErrCiphertextTooShort indicates the ciphertext is shorter than the GCM tag.
	ErrCiphertextTooShort = errors.New("crypto: ciphertext too short")

	// ErrInvalidKDFParams indicates KDF parameters outside the accepted range.
	ErrInvalidKDFParams = errors.New("crypto: invalid key derivation parameters")

	// ErrKeyNotSerializable is returned when something tries to marshal a MasterKey.
	ErrKeyNotSerializable = errors.New("crypto: master key cannot be serialized")
)

// KDFParams holds the Argon2id cost parameters persisted with a vault.
type KDFParams struct {
	Memory      uint32 `json:"memory" yaml:"memory"`           // Memory in KiB
	Iterations  uint32 `json:"iterations" yaml:"iterations"`   // Time cost
	Parallelism uint8  `json:"parallelism" yaml:"parallelism"` // Threads
}

// DefaultKDFParams returns the OWASP-recommended Argon2id parameters.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Memory:      Argon2Memory,
		Iterations:  Argon2Time,
		Parallelism: Argon2Threads,
	}
}

// Validate checks that the parameters are usable by Argon2id and within
// sane bounds. Values read from disk must pass this before derivation.
func (p KDFParams) Validate() error {
	if p.Parallelism < 1 {
		return fmt.Errorf("%w: parallelism must be at least 1", ErrInvalidKDFParams)
	}
	if p.Iterations < 1 || p.Iterations > maxArgon2Iterations {
		return fmt.Errorf("%w: iterations must be between 1 and %d", ErrInvalidKDFParams, maxArgon2Iterations)
	}
	if p.Memory < 8*uint32(p.Parallelism) || p.Memory > maxArgon2Memory {
		return fmt.Errorf("%w: memory must be between %d and %d KiB",
			ErrInvalidKDFParams, 8*uint32(p.Parallelism), maxArgon2Memory)
	}
	return nil
}

// MasterKey is a derived 256-bit vault key. It formats as a redacted
// placeholder and refuses JSON serialization.
type MasterKey []byte

// String implements fmt.Stringer without revealing key material.
func (k MasterKey) String() string { return "MasterKey(REDACTED)" }

// GoString implements fmt.GoStringer without revealing key material.
func (k MasterKey) GoString() string { return k.String() }

// MarshalJSON always fails.
func (k MasterKey) MarshalJSON() ([]byte, error) { return nil, ErrKeyNotSerializable }

// Wipe zeroes the key in place.
func (k MasterKey) Wipe() { SecureWipe(k) }

// NormalizePassword converts a master password to its NFC byte form so that
// visually identical passwords entered through different input methods
// derive the same key.
func NormalizePassword(password string) []byte {
	return []byte(norm.NFC.String(password))
}

// GenerateSalt returns SaltLength cryptographically secure random bytes.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("crypto: failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives a 256-bit encryption key from a password using Argon2id.
//
// The derivation is deterministic for a given password, salt and parameter
// set, which is what lets a vault be reopened across sessions. Any password
// is accepted, including the empty one. Callers are expected to have
// validated params (see KDFParams.Validate).
func DeriveKey(password, salt []byte, params KDFParams) MasterKey {
	return argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, KeyLength)
}

func newGCM(key []byte, nonceSize int) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Encrypt encrypts plaintext using AES-256-GCM authenticated encryption.
//
// The function generates a cryptographically secure random 12-byte nonce
// using crypto/rand. The authentication tag is appended to the ciphertext.
//
// Returns:
//   - ciphertext: encrypted data with authentication tag
//   - nonce: 12-byte nonce (must be stored with ciphertext for decryption)
//   - err: ErrInvalidKeyLength if key is not 32 bytes
func Encrypt(key, plaintext []byte) (ciphertext []byte, nonce []byte, err error) {
	if len(key) != KeyLength {
		return nil, nil, ErrInvalidKeyLength
	}

	gcm, err := newGCM(key, NonceLength)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, NonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("crypto: failed to generate nonce: %w", err)
	}

	ciphertext = gcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// Decrypt decrypts ciphertext using AES-256-GCM authenticated encryption.
//
// The function verifies the authentication tag before returning the plaintext.
// If the tag verification fails (indicating tampering, corruption or a wrong
// key), ErrAuthentication is returned and no plaintext is produced.
//
// Returns:
//   - plaintext: decrypted data
//   - err: ErrInvalidKeyLength, ErrInvalidNonceLength, ErrCiphertextTooShort,
//     or ErrAuthentication
func Decrypt(key, ciphertext, nonce []byte) (plaintext []byte, err error) {
	if len(nonce) != NonceLength {
		return nil, ErrInvalidNonceLength
	}
	return DecryptWithNonce(key, ciphertext, nonce)
}

// DecryptWithNonce is Decrypt for GCM instances using a non-standard nonce
// size. It exists to read records written by older tools that used 16-byte
// nonces; new data is always sealed with NonceLength.
func DecryptWithNonce(key, ciphertext, nonce []byte) ([]byte, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}
	if len(nonce) == 0 {
		return nil, ErrInvalidNonceLength
	}

	gcm, err := newGCM(key, len(nonce))
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.Overhead() {
		return nil, ErrCiphertextTooShort
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthentication
	}

	return plaintext, nil
}

// Seal encrypts plaintext under key with a fresh random nonce and returns
// the base64 blob nonce || tag || ciphertext.
func Seal(key MasterKey, plaintext []byte) (string, error) {
	sealed, nonce, err := Encrypt(key, plaintext)
	if err != nil {
		return "", err
	}

	// GCM appends the tag; move it in front of the ciphertext.
	body := sealed[:len(sealed)-TagLength]
	tag := sealed[len(sealed)-TagLength:]

	raw := make([]byte, 0, NonceLength+TagLength+len(body))
	raw = append(raw, nonce...)
	raw = append(raw, tag...)
	raw = append(raw, body...)

	return base64.StdEncoding.EncodeToString(raw), nil
}

// Open verifies and decrypts a blob produced by Seal. Every malformed or
// unauthentic input yields ErrAuthentication; plaintext is returned only
// after the tag has been verified.
func Open(key MasterKey, blob string) ([]byte, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, ErrAuthentication
	}
	if len(raw) < NonceLength+TagLength {
		return nil, ErrAuthentication
	}

	nonce := raw[:NonceLength]
	tag := raw[NonceLength : NonceLength+TagLength]
	body := raw[NonceLength+TagLength:]

	sealed := make([]byte, 0, len(body)+TagLength)
	sealed = append(sealed, body...)
	sealed = append(sealed, tag...)

	plaintext, err := Decrypt(key, sealed, nonce)
	if err != nil {
		if errors.Is(err, ErrInvalidKeyLength) {
			return nil, err
		}
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

// SecureWipe overwrites a byte slice with zeros in a way that prevents
// compiler optimization from removing the operation.
func SecureWipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	// runtime.KeepAlive ensures the write operations are not optimized away
	// by the compiler since b is still "in use" after the loop.
	runtime.KeepAlive(b)
}
