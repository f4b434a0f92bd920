package crypto

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKDFParams keeps Argon2id cheap so tests stay fast.
var testKDFParams = KDFParams{Memory: 64, Iterations: 1, Parallelism: 1}

func randomKey(t testing.TB) MasterKey {
	t.Helper()
	key := make([]byte, KeyLength)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

// TestDeriveKey tests the Argon2id key derivation function
func TestDeriveKey(t *testing.T) {
	password := []byte("test-password-123")
	salt, err := GenerateSalt()
	require.NoError(t, err)
	require.Len(t, salt, SaltLength)

	key := DeriveKey(password, salt, testKDFParams)
	assert.Len(t, key, KeyLength)

	// Same password + salt produces same key
	assert.Equal(t, key, DeriveKey(password, salt, testKDFParams))

	// Different password produces different key
	assert.NotEqual(t, key, DeriveKey([]byte("different-password"), salt, testKDFParams))

	// Different salt produces different key
	otherSalt, err := GenerateSalt()
	require.NoError(t, err)
	assert.NotEqual(t, key, DeriveKey(password, otherSalt, testKDFParams))

	// Different cost parameters produce a different key
	stronger := testKDFParams
	stronger.Iterations = 2
	assert.NotEqual(t, key, DeriveKey(password, salt, stronger))
}

func TestDeriveKeyEmptyPassword(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	key := DeriveKey(NormalizePassword(""), salt, testKDFParams)
	assert.Len(t, key, KeyLength)
	assert.Equal(t, key, DeriveKey(NormalizePassword(""), salt, testKDFParams))
}

// TestDeriveKeyParameters verifies Argon2id defaults match OWASP recommendations
func TestDeriveKeyParameters(t *testing.T) {
	p := DefaultKDFParams()
	assert.Equal(t, uint32(64*1024), p.Memory)
	assert.Equal(t, uint32(3), p.Iterations)
	assert.Equal(t, uint8(4), p.Parallelism)
	assert.NoError(t, p.Validate())
}

func TestKDFParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  KDFParams
		wantErr bool
	}{
		{"defaults", DefaultKDFParams(), false},
		{"minimal", KDFParams{Memory: 8, Iterations: 1, Parallelism: 1}, false},
		{"zero parallelism", KDFParams{Memory: 64, Iterations: 1, Parallelism: 0}, true},
		{"zero iterations", KDFParams{Memory: 64, Iterations: 0, Parallelism: 1}, true},
		{"too many iterations", KDFParams{Memory: 64, Iterations: 101, Parallelism: 1}, true},
		{"memory below lanes", KDFParams{Memory: 16, Iterations: 1, Parallelism: 4}, true},
		{"memory too large", KDFParams{Memory: 8 * 1024 * 1024, Iterations: 1, Parallelism: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKDFParams)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizePassword(t *testing.T) {
	// "é" precomposed vs. "e" + combining acute accent
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"
	assert.Equal(t, NormalizePassword(composed), NormalizePassword(decomposed))
	assert.Equal(t, []byte("plain"), NormalizePassword("plain"))
}

func TestMasterKeyRedaction(t *testing.T) {
	key := randomKey(t)

	keyHex := fmt.Sprintf("%x", []byte(key))
	for _, format := range []string{"%v", "%s", "%+v", "%#v"} {
		out := fmt.Sprintf(format, key)
		assert.NotContains(t, out, keyHex, "format %s leaked key", format)
		assert.Contains(t, out, "REDACTED")
	}

	// Hex verbs encode the redacted text, not the key bytes.
	for _, format := range []string{"%x", "%X"} {
		out := fmt.Sprintf(format, key)
		assert.NotContains(t, strings.ToLower(out), keyHex, "format %s leaked key", format)
		assert.Equal(t, fmt.Sprintf(format, key.String()), out)
	}

	_, err := json.Marshal(struct{ K MasterKey }{key})
	assert.ErrorIs(t, err, ErrKeyNotSerializable)
}

func TestMasterKeyWipe(t *testing.T) {
	key := randomKey(t)
	key.Wipe()
	assert.Equal(t, make([]byte, KeyLength), []byte(key))
}

// TestEncrypt tests the AES-256-GCM encryption function
func TestEncrypt(t *testing.T) {
	key := randomKey(t)
	plaintext := []byte("secret data to encrypt")

	ciphertext, nonce, err := Encrypt(key, plaintext)
	require.NoError(t, err)

	assert.Len(t, nonce, NonceLength)
	assert.NotEqual(t, plaintext, ciphertext)
	assert.Len(t, ciphertext, len(plaintext)+TagLength)
}

// TestEncryptInvalidKeyLength tests that Encrypt rejects invalid key lengths
func TestEncryptInvalidKeyLength(t *testing.T) {
	tests := []struct {
		name   string
		keyLen int
	}{
		{"too short (16 bytes)", 16},
		{"too short (24 bytes)", 24},
		{"too long (48 bytes)", 48},
		{"empty key", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Encrypt(make([]byte, tt.keyLen), []byte("test data"))
			assert.ErrorIs(t, err, ErrInvalidKeyLength)

			_, err = Seal(make([]byte, tt.keyLen), []byte("test data"))
			assert.ErrorIs(t, err, ErrInvalidKeyLength)
		})
	}
}

func TestDecryptInvalidNonceLength(t *testing.T) {
	key := randomKey(t)
	ciphertext, _, err := Encrypt(key, []byte("data"))
	require.NoError(t, err)

	_, err = Decrypt(key, ciphertext, make([]byte, 8))
	assert.ErrorIs(t, err, ErrInvalidNonceLength)
}

func TestDecryptCiphertextTooShort(t *testing.T) {
	key := randomKey(t)
	_, err := Decrypt(key, make([]byte, TagLength-1), make([]byte, NonceLength))
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestDecryptWithNonceLegacySize(t *testing.T) {
	key := randomKey(t)
	nonce := make([]byte, 16)
	_, err := rand.Read(nonce)
	require.NoError(t, err)

	gcm, err := newGCM(key, len(nonce))
	require.NoError(t, err)
	sealed := gcm.Seal(nil, nonce, []byte("legacy"), nil)

	plaintext, err := DecryptWithNonce(key, sealed, nonce)
	require.NoError(t, err)
	assert.Equal(t, []byte("legacy"), plaintext)

	sealed[0] ^= 0x01
	_, err = DecryptWithNonce(key, sealed, nonce)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestSealOpenRoundTrip(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	passwords := []string{"", "Correct", "pässwörd", "with spaces and $ymbols!"}
	plaintexts := []string{"", "x", "S3cret!", string(bytes.Repeat([]byte("long"), 4096)), "日本語"}

	for _, p := range passwords {
		key := DeriveKey(NormalizePassword(p), salt, testKDFParams)
		for _, s := range plaintexts {
			blob, err := Seal(key, []byte(s))
			require.NoError(t, err)

			got, err := Open(DeriveKey(NormalizePassword(p), salt, testKDFParams), blob)
			require.NoError(t, err)
			assert.Equal(t, s, string(got))
		}
	}
}

func TestSealLayout(t *testing.T) {
	key := randomKey(t)
	plaintext := []byte("layout")

	blob, err := Seal(key, plaintext)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)
	require.Len(t, raw, NonceLength+TagLength+len(plaintext))

	// Reassemble as GCM expects (ciphertext || tag) and decrypt directly.
	nonce := raw[:NonceLength]
	tag := raw[NonceLength : NonceLength+TagLength]
	body := raw[NonceLength+TagLength:]
	got, err := Decrypt(key, append(append([]byte{}, body...), tag...), nonce)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestOpenTamperDetection(t *testing.T) {
	key := randomKey(t)
	blob, err := Seal(key, []byte("do not touch me"))
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)

	// Flip every byte of nonce, tag and ciphertext in turn.
	for i := range raw {
		tampered := append([]byte{}, raw...)
		tampered[i] ^= 0xFF

		got, err := Open(key, base64.StdEncoding.EncodeToString(tampered))
		assert.ErrorIs(t, err, ErrAuthentication, "byte %d", i)
		assert.Nil(t, got, "byte %d", i)
	}
}

func TestOpenWrongKey(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	blob, err := Seal(DeriveKey([]byte("Correct"), salt, testKDFParams), []byte("S3cret!"))
	require.NoError(t, err)

	got, err := Open(DeriveKey([]byte("Wrong"), salt, testKDFParams), blob)
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Nil(t, got)
}

func TestOpenMalformed(t *testing.T) {
	key := randomKey(t)

	tests := map[string]string{
		"empty":         "",
		"not base64":    "!!!not-base64!!!",
		"too short":     base64.StdEncoding.EncodeToString(make([]byte, NonceLength+TagLength-1)),
		"only overhead": base64.StdEncoding.EncodeToString(make([]byte, NonceLength+TagLength)),
	}

	for name, blob := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Open(key, blob)
			assert.ErrorIs(t, err, ErrAuthentication)
		})
	}
}

func TestOpenErrorDoesNotLeak(t *testing.T) {
	key := randomKey(t)
	blob, err := Seal(key, []byte("secret"))
	require.NoError(t, err)

	_, err = Open(randomKey(t), blob)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), blob)
	assert.NotContains(t, err.Error(), fmt.Sprintf("%x", []byte(key)))
}

// TestSealProducesUniqueNonce checks nonce uniqueness across many seals
// under a single key.
func TestSealProducesUniqueNonce(t *testing.T) {
	const n = 10000
	key := randomKey(t)
	seen := make(map[string]struct{}, n)

	for i := 0; i < n; i++ {
		blob, err := Seal(key, []byte("same plaintext"))
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(blob)
		require.NoError(t, err)

		nonce := string(raw[:NonceLength])
		if _, dup := seen[nonce]; dup {
			t.Fatalf("nonce reused after %d seals", i)
		}
		seen[nonce] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestSecureWipe(t *testing.T) {
	data := []byte("sensitive data that must be wiped")
	SecureWipe(data)
	assert.Equal(t, make([]byte, len(data)), data)

	// Empty and nil slices must not panic
	SecureWipe([]byte{})
	SecureWipe(nil)
}

func BenchmarkDeriveKey(b *testing.B) {
	password := []byte("benchmark-password")
	salt := make([]byte, SaltLength)
	params := DefaultKDFParams()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DeriveKey(password, salt, params)
	}
}

func BenchmarkSeal(b *testing.B) {
	key := randomKey(b)
	plaintext := make([]byte, 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Seal(key, plaintext)
	}
}
