// Package vault provides the encrypted credential store behind securesafe.
//
// A vault is a single JSON file holding a plaintext key-derivation header and
// one AES-256-GCM blob per site. Each blob seals the ordered list of
// (username, password) entries stored for that site, so one damaged blob
// never blocks access to the others. The whole file is decrypted into memory
// at Open and rewritten atomically after every mutation.
//
// A Store is owned by a single session. Concurrent use by several processes
// is not supported and no file locking is attempted.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/forest6511/securesafe/internal/logger"
	"github.com/forest6511/securesafe/pkg/crypto"
)

// Constants
const (
	FileMode = 0600 // Owner read/write only
	DirMode  = 0700 // Owner read/write/execute only

	// DefaultFileName is the vault file name inside the default directory.
	DefaultFileName = "vault.json"
)

// Errors
var (
	ErrInvalidFormat      = errors.New("vault: invalid vault file format")
	ErrUnsupportedVersion = errors.New("vault: unsupported format version")
	ErrCorrupted          = errors.New("vault: one or more sites failed to decrypt")
	ErrSiteCorrupted      = errors.New("vault: site record failed to decrypt and cannot be modified")
	ErrInsufficientDisk   = errors.New("vault: insufficient disk space")
	ErrClosed             = errors.New("vault: store is closed")
	ErrKeyUnverified      = errors.New("vault: no site decrypted; master password is likely wrong")
)

// CorruptionError is returned by Open when some site blobs fail
// authentication. The Store returned alongside it is usable: every other site
// is loaded and the failed blobs are kept on disk untouched.
//
// A wrong master password surfaces the same way, since every blob fails.
// When no site decrypted at all, the Store refuses every write with
// ErrKeyUnverified so nothing is sealed under an unconfirmed key.
type CorruptionError struct {
	// Sites lists the affected site names, sorted.
	Sites []string
	errs  []error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("vault: %d site(s) failed to decrypt: %s",
		len(e.Sites), strings.Join(e.Sites, ", "))
}

// Is reports ErrCorrupted.
func (e *CorruptionError) Is(target error) bool { return target == ErrCorrupted }

// Unwrap exposes the per-site causes, typically crypto.ErrAuthentication.
func (e *CorruptionError) Unwrap() []error { return e.errs }

// Entry is one decrypted credential stored under a site.
type Entry struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Record pairs an entry with its site, as produced by importers.
type Record struct {
	Site  string
	Entry Entry
}

// Store is the in-memory, decrypted view of a vault file.
type Store struct {
	path string
	mu   sync.RWMutex

	key    crypto.MasterKey
	header vaultFile // Version, KDF and CreatedAt; Sites unused

	sites     map[string][]Entry  // decrypted, always non-empty slices
	blobs     map[string]string   // current sealed blob per site, as persisted
	corrupted map[string]struct{} // sites whose blob failed to open

	// unverified is set when the file held sites and none decrypted.
	unverified bool

	log *logger.Logger
}

type options struct {
	kdf crypto.KDFParams
	log *logger.Logger
}

// Option configures Open.
type Option func(*options)

// WithKDFParams sets the Argon2id parameters used when Open creates a new
// vault. Existing vaults always use the parameters recorded in their header.
func WithKDFParams(p crypto.KDFParams) Option {
	return func(o *options) { o.kdf = p }
}

// WithLogger sets the logger used by the store.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// DefaultPath returns ~/.securesafe/vault.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("vault: failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".securesafe", DefaultFileName), nil
}

// Open loads the vault at path, creating an empty one if the file does not
// exist. The master key is derived once here and held until Close.
//
// If some site blobs fail to decrypt, Open returns both a usable *Store and a
// *CorruptionError. Callers decide whether to continue with the remaining
// sites or Close and abort. Any other error returns a nil Store.
func Open(path, masterPassword string, opts ...Option) (*Store, error) {
	o := options{kdf: crypto.DefaultKDFParams(), log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{
		path:      path,
		sites:     make(map[string][]Entry),
		blobs:     make(map[string]string),
		corrupted: make(map[string]struct{}),
		log:       o.log.Component("vault"),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.create(masterPassword, o.kdf); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("vault: failed to read vault file: %w", err)
	}

	return s.load(data, masterPassword)
}

// create initializes a new vault file with a fresh salt.
func (s *Store) create(masterPassword string, params crypto.KDFParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), DirMode); err != nil {
		return fmt.Errorf("vault: failed to create vault directory: %w", err)
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}

	s.header = vaultFile{
		Version:   FileVersion,
		KDF:       kdfHeader{Algorithm: KDFAlgorithm, Salt: salt, KDFParams: params},
		CreatedAt: time.Now().UTC(),
	}
	s.key = crypto.DeriveKey(crypto.NormalizePassword(masterPassword), salt, params)

	if err := s.persist(); err != nil {
		s.key.Wipe()
		return err
	}

	s.log.Info().Str("path", s.path).Msg("created new vault")
	return nil
}

// load decodes an existing vault file and decrypts every site.
func (s *Store) load(data []byte, masterPassword string) (*Store, error) {
	f, err := decodeFile(data)
	if err != nil {
		return nil, err
	}

	s.header = vaultFile{Version: f.Version, KDF: f.KDF, CreatedAt: f.CreatedAt}
	s.key = crypto.DeriveKey(crypto.NormalizePassword(masterPassword), f.KDF.Salt, f.KDF.KDFParams)

	var cerr CorruptionError
	for site, blob := range f.Sites {
		s.blobs[site] = blob

		entries, err := openRecord(s.key, blob)
		if err != nil {
			s.corrupted[site] = struct{}{}
			cerr.Sites = append(cerr.Sites, site)
			cerr.errs = append(cerr.errs, fmt.Errorf("site %q: %w", site, err))
			continue
		}
		s.sites[site] = entries
	}
	s.unverified = len(f.Sites) > 0 && len(s.sites) == 0

	s.checkAndWarnPermissions()

	s.log.Debug().
		Int("sites", len(s.sites)).
		Int("corrupted", len(cerr.Sites)).
		Msg("vault loaded")

	if len(cerr.Sites) > 0 {
		sort.Strings(cerr.Sites)
		s.log.Warn().Strs("sites", cerr.Sites).Msg("sites failed to decrypt")
		return s, &cerr
	}
	return s, nil
}

// Path returns the vault file path.
func (s *Store) Path() string {
	return s.path
}

// Close wipes the master key and drops decrypted entries. The Store cannot
// be used afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		s.key.Wipe()
		s.key = nil
	}
	s.sites = nil
	s.blobs = nil
	s.corrupted = nil
}

// Store appends a credential to site, creating the site if needed, and
// persists the vault. Identical entries are not deduplicated.
func (s *Store) Store(site, username, password string) error {
	return s.Append(site, Entry{Username: username, Password: password})
}

// Append adds entries to site in order with a single write.
func (s *Store) Append(site string, entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(site); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	next := append(slices.Clone(s.sites[site]), entries...)
	if err := s.commit(site, next); err != nil {
		return err
	}

	s.log.Debug().Str("site", site).Int("entries", len(next)).Msg("stored credential")
	return nil
}

// Retrieve returns a copy of the entries for site in insertion order. An
// absent site yields an empty slice and no error. A site whose blob failed
// to decrypt yields crypto.ErrAuthentication rather than an empty result.
func (s *Store) Retrieve(site string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return nil, ErrClosed
	}
	if _, bad := s.corrupted[site]; bad {
		return nil, fmt.Errorf("vault: site %q: %w", site, crypto.ErrAuthentication)
	}

	entries := s.sites[site]
	if len(entries) == 0 {
		return []Entry{}, nil
	}
	return slices.Clone(entries), nil
}

// Delete removes every entry of site whose username and password both match.
// The site is removed once its last entry is gone. No match is a no-op and
// does not touch the file.
func (s *Store) Delete(site, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(site); err != nil {
		return err
	}

	current := s.sites[site]
	next := slices.DeleteFunc(slices.Clone(current), func(e Entry) bool {
		return e.Username == username && e.Password == password
	})
	if len(next) == len(current) {
		return nil
	}

	if err := s.commit(site, next); err != nil {
		return err
	}

	s.log.Debug().
		Str("site", site).
		Int("removed", len(current)-len(next)).
		Int("remaining", len(next)).
		Msg("deleted credential")
	return nil
}

// Sites returns the names of all decrypted sites, sorted.
func (s *Store) Sites() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.sites))
	for site := range s.sites {
		names = append(names, site)
	}
	sort.Strings(names)
	return names
}

// Corrupted returns the names of sites that failed to decrypt at Open, sorted.
func (s *Store) Corrupted() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.corrupted))
	for site := range s.corrupted {
		names = append(names, site)
	}
	sort.Strings(names)
	return names
}

func (s *Store) checkWritable(site string) error {
	if s.key == nil {
		return ErrClosed
	}
	if s.unverified {
		return ErrKeyUnverified
	}
	if _, bad := s.corrupted[site]; bad {
		return fmt.Errorf("%w: %q", ErrSiteCorrupted, site)
	}
	return nil
}

// commit seals next as the new record for site (or drops the site when next
// is empty) and rewrites the file. On failure the in-memory state is rolled
// back so it keeps matching what is on disk. Caller holds s.mu.
func (s *Store) commit(site string, next []Entry) error {
	prevEntries, hadEntries := s.sites[site]
	prevBlob, hadBlob := s.blobs[site]

	if len(next) == 0 {
		delete(s.sites, site)
		delete(s.blobs, site)
	} else {
		blob, err := sealRecord(s.key, next)
		if err != nil {
			return err
		}
		s.sites[site] = next
		s.blobs[site] = blob
	}

	if err := s.persist(); err != nil {
		if hadEntries {
			s.sites[site] = prevEntries
		} else {
			delete(s.sites, site)
		}
		if hadBlob {
			s.blobs[site] = prevBlob
		} else {
			delete(s.blobs, site)
		}
		return err
	}
	return nil
}

// persist writes the header and every blob, including blobs of corrupted
// sites, to disk atomically.
func (s *Store) persist() error {
	f := s.header
	f.Sites = make(map[string]string, len(s.blobs))
	for site, blob := range s.blobs {
		f.Sites[site] = blob
	}

	data, err := encodeFile(&f)
	if err != nil {
		return err
	}

	if err := s.checkDiskSpaceForWrite(len(data)); err != nil {
		return err
	}

	return writeFileAtomic(s.path, data, s.log)
}
