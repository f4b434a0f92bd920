package vault

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/forest6511/securesafe/pkg/crypto"
)

// On-disk schema versions.
const (
	// FileVersion is the current vault file layout.
	FileVersion = 1

	// RecordVersion is the current layout of a decrypted site record.
	RecordVersion = 1

	// KDFAlgorithm is the only key derivation function recorded in headers.
	KDFAlgorithm = "argon2id"
)

// kdfHeader is the plaintext key-derivation header. The salt is not secret
// but must stay stable for the lifetime of the vault.
type kdfHeader struct {
	Algorithm string `json:"algorithm"`
	Salt      []byte `json:"salt"`
	crypto.KDFParams
}

// vaultFile is the persisted JSON document: a header plus one sealed blob
// per site.
type vaultFile struct {
	Version   int               `json:"version"`
	KDF       kdfHeader         `json:"kdf"`
	CreatedAt time.Time         `json:"created_at"`
	Sites     map[string]string `json:"sites"`
}

// record is the plaintext sealed inside each site blob. Entries is always a
// list, even for a single credential.
type record struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

func decodeFile(data []byte) (*vaultFile, error) {
	var f vaultFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if f.Version < 1 {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidFormat)
	}
	if f.Version > FileVersion {
		return nil, fmt.Errorf("%w: file version %d, max supported %d",
			ErrUnsupportedVersion, f.Version, FileVersion)
	}
	if f.KDF.Algorithm != KDFAlgorithm {
		return nil, fmt.Errorf("%w: unsupported kdf %q", ErrInvalidFormat, f.KDF.Algorithm)
	}
	if len(f.KDF.Salt) != crypto.SaltLength {
		return nil, fmt.Errorf("%w: salt must be %d bytes", ErrInvalidFormat, crypto.SaltLength)
	}
	if err := f.KDF.KDFParams.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if f.Sites == nil {
		f.Sites = make(map[string]string)
	}

	return &f, nil
}

func encodeFile(f *vaultFile) ([]byte, error) {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("vault: failed to marshal vault file: %w", err)
	}
	return append(data, '\n'), nil
}

// sealRecord serializes entries and seals them under key with a fresh nonce.
func sealRecord(key crypto.MasterKey, entries []Entry) (string, error) {
	plaintext, err := json.Marshal(record{Version: RecordVersion, Entries: entries})
	if err != nil {
		return "", fmt.Errorf("vault: failed to marshal record: %w", err)
	}
	defer crypto.SecureWipe(plaintext)

	blob, err := crypto.Seal(key, plaintext)
	if err != nil {
		return "", fmt.Errorf("vault: failed to seal record: %w", err)
	}
	return blob, nil
}

// openRecord verifies and decodes one site blob.
func openRecord(key crypto.MasterKey, blob string) ([]Entry, error) {
	plaintext, err := crypto.Open(key, blob)
	if err != nil {
		return nil, err
	}
	defer crypto.SecureWipe(plaintext)

	var r record
	if err := json.Unmarshal(plaintext, &r); err != nil {
		return nil, fmt.Errorf("%w: record: %v", ErrInvalidFormat, err)
	}
	if r.Version < 1 {
		return nil, fmt.Errorf("%w: record missing version", ErrInvalidFormat)
	}
	if r.Version > RecordVersion {
		return nil, fmt.Errorf("%w: record version %d, max supported %d",
			ErrUnsupportedVersion, r.Version, RecordVersion)
	}
	if len(r.Entries) == 0 {
		return nil, fmt.Errorf("%w: record has no entries", ErrInvalidFormat)
	}

	return r.Entries, nil
}
