package vault

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/forest6511/securesafe/pkg/crypto"
)

// Legacy SecureSafe layout: passwords.json maps each account to either a
// single {"username", "password"} object or a list of them. Only the password
// is encrypted, as base64(nonce || tag || ciphertext) with a 16-byte nonce,
// under SHA-256 of the master password.
const (
	legacyNonceLength = 16
	legacyTagLength   = 16
)

// ErrLegacyFormat indicates the file is not a legacy passwords.json.
var ErrLegacyFormat = errors.New("vault: unrecognized legacy file format")

type legacyEntry struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ReadLegacy decrypts every credential in a legacy passwords.json. It fails
// on the first entry that does not authenticate, so a wrong password or a
// damaged file imports nothing. Records are sorted by site; entries of one
// site keep their file order.
func ReadLegacy(path, masterPassword string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to read legacy file: %w", err)
	}

	var accounts map[string]json.RawMessage
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLegacyFormat, err)
	}

	sum := sha256.Sum256([]byte(masterPassword))
	key := crypto.MasterKey(sum[:])
	defer key.Wipe()

	sites := make([]string, 0, len(accounts))
	for site := range accounts {
		sites = append(sites, site)
	}
	sort.Strings(sites)

	var out []Record
	for _, site := range sites {
		entries, err := decodeLegacyAccount(accounts[site])
		if err != nil {
			return nil, fmt.Errorf("%w: account %q: %v", ErrLegacyFormat, site, err)
		}

		for _, e := range entries {
			password, err := openLegacyPassword(key, e.Password)
			if err != nil {
				return nil, fmt.Errorf("vault: legacy account %q: %w", site, err)
			}
			out = append(out, Record{
				Site:  site,
				Entry: Entry{Username: e.Username, Password: password},
			})
		}
	}

	return out, nil
}

// decodeLegacyAccount accepts both historical shapes of an account value.
func decodeLegacyAccount(raw json.RawMessage) ([]legacyEntry, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty value")
	}

	if trimmed[0] == '[' {
		var list []legacyEntry
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var single legacyEntry
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []legacyEntry{single}, nil
}

func openLegacyPassword(key crypto.MasterKey, blob string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil || len(raw) < legacyNonceLength+legacyTagLength {
		return "", crypto.ErrAuthentication
	}

	nonce := raw[:legacyNonceLength]
	tag := raw[legacyNonceLength : legacyNonceLength+legacyTagLength]
	body := raw[legacyNonceLength+legacyTagLength:]

	sealed := make([]byte, 0, len(body)+len(tag))
	sealed = append(sealed, body...)
	sealed = append(sealed, tag...)

	plaintext, err := crypto.DecryptWithNonce(key, sealed, nonce)
	if err != nil {
		return "", crypto.ErrAuthentication
	}
	defer crypto.SecureWipe(plaintext)

	return string(plaintext), nil
}
