// Package safe is the single entry point front ends use to work with a
// vault: store, retrieve, delete and generate passwords.
//
// Safe validates input, normalizes site names and delegates to vault.Store
// and generator. It holds no state beyond the store it was given. Choosing
// between several matching entries is left to the caller (see
// FilterByUsername).
package safe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"github.com/forest6511/securesafe/internal/logger"
	"github.com/forest6511/securesafe/pkg/generator"
	"github.com/forest6511/securesafe/pkg/vault"
)

// Input limits.
const (
	MaxSiteLength      = 256
	MaxUsernameLength  = 256
	MaxPasswordLength  = 4096
	MaxGeneratedLength = 4096
)

// ErrInvalidInput is matched by every *InputError.
var ErrInvalidInput = errors.New("safe: invalid input")

// InputError describes a rejected argument.
type InputError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("safe: invalid input: %s %s", e.Field, e.Reason)
}

// Is reports ErrInvalidInput.
func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func (e *InputError) Unwrap() error { return e.Err }

type credentialInput struct {
	Site     string `validate:"required,max=256"`
	Username string `validate:"required,max=256"`
	Password string `validate:"required,max=4096"`
}

type deleteInput struct {
	Site     string `validate:"required,max=256"`
	Username string `validate:"required,max=256"`
	Password string `validate:"max=4096"`
}

type siteInput struct {
	Site string `validate:"required,max=256"`
}

type generateInput struct {
	Length int `validate:"min=0,max=4096"`
}

// Safe composes a vault.Store and the password generator.
type Safe struct {
	store    *vault.Store
	validate *validator.Validate
	log      *logger.Logger
}

// Option configures a Safe.
type Option func(*Safe)

// WithLogger sets the logger used by the Safe.
func WithLogger(l *logger.Logger) Option {
	return func(s *Safe) {
		if l != nil {
			s.log = l
		}
	}
}

// New wraps an open store. A nil store yields a Safe that only supports
// GeneratePassword; every other operation returns vault.ErrClosed.
func New(store *vault.Store, opts ...Option) *Safe {
	s := &Safe{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Component("safe")
	return s
}

// NormalizeSite trims surrounding space and applies Unicode NFC so the same
// site typed on different systems maps to one key.
func NormalizeSite(site string) string {
	return norm.NFC.String(strings.TrimSpace(site))
}

// StorePassword stores a credential under site. Site, username and password
// are all required.
func (s *Safe) StorePassword(site, username, password string) error {
	site = NormalizeSite(site)
	if err := s.check(credentialInput{Site: site, Username: username, Password: password}); err != nil {
		return err
	}

	if s.store == nil {
		return vault.ErrClosed
	}
	if err := s.store.Store(site, username, password); err != nil {
		s.log.Error().Err(err).Str("site", site).Msg("store failed")
		return err
	}
	s.log.Debug().Str("site", site).Msg("password stored")
	return nil
}

// RetrievePassword returns every entry stored for site in insertion order,
// or an empty slice when there are none. A site name that could never be
// stored (empty or too long) is simply absent.
func (s *Safe) RetrievePassword(site string) ([]vault.Entry, error) {
	site = NormalizeSite(site)
	if s.store == nil {
		return nil, vault.ErrClosed
	}
	if s.validate.Struct(siteInput{Site: site}) != nil {
		return []vault.Entry{}, nil
	}
	entries, err := s.store.Retrieve(site)
	if err != nil {
		s.log.Error().Err(err).Str("site", site).Msg("retrieve failed")
		return nil, err
	}
	s.log.Debug().Str("site", site).Int("entries", len(entries)).Msg("passwords retrieved")
	return entries, nil
}

// DeletePassword removes the entries of site matching username and
// password exactly. Nothing matching is not an error.
func (s *Safe) DeletePassword(site, username, password string) error {
	site = NormalizeSite(site)
	if err := s.check(deleteInput{Site: site, Username: username, Password: password}); err != nil {
		return err
	}

	if s.store == nil {
		return vault.ErrClosed
	}
	if err := s.store.Delete(site, username, password); err != nil {
		s.log.Error().Err(err).Str("site", site).Msg("delete failed")
		return err
	}
	s.log.Debug().Str("site", site).Msg("delete applied")
	return nil
}

// GeneratePassword returns a random password; see generator.Generate.
func (s *Safe) GeneratePassword(length int, useSymbols, useNumbers bool) (string, error) {
	if err := s.check(generateInput{Length: length}); err != nil {
		if length < 0 {
			var ie *InputError
			if errors.As(err, &ie) {
				ie.Err = generator.ErrInvalidLength
			}
		}
		return "", err
	}
	return generator.Generate(length, useSymbols, useNumbers)
}

// Sites lists stored site names.
func (s *Safe) Sites() []string {
	if s.store == nil {
		return nil
	}
	return s.store.Sites()
}

// Corrupted lists sites whose records could not be decrypted.
func (s *Safe) Corrupted() []string {
	if s.store == nil {
		return nil
	}
	return s.store.Corrupted()
}

// ImportLegacy copies every credential of a legacy passwords.json into the
// vault and returns how many were imported. Nothing is imported when any
// legacy entry fails to decrypt.
func (s *Safe) ImportLegacy(path, masterPassword string) (int, error) {
	if s.store == nil {
		return 0, vault.ErrClosed
	}
	records, err := vault.ReadLegacy(path, masterPassword)
	if err != nil {
		return 0, err
	}
	return s.Import(records)
}

// Import stores records, appending to existing sites. Every record is
// validated before anything is written. Each site is sealed and written
// once; if a write fails, sites already written stay imported and the count
// so far is returned with the error.
func (s *Safe) Import(records []vault.Record) (int, error) {
	if s.store == nil {
		return 0, vault.ErrClosed
	}

	var order []string
	grouped := make(map[string][]vault.Entry)
	for _, r := range records {
		site := NormalizeSite(r.Site)
		if err := s.check(credentialInput{Site: site, Username: r.Entry.Username, Password: r.Entry.Password}); err != nil {
			return 0, fmt.Errorf("record for %q: %w", r.Site, err)
		}
		if _, ok := grouped[site]; !ok {
			order = append(order, site)
		}
		grouped[site] = append(grouped[site], r.Entry)
	}

	imported := 0
	for _, site := range order {
		if err := s.store.Append(site, grouped[site]...); err != nil {
			return imported, fmt.Errorf("import %q: %w", site, err)
		}
		imported += len(grouped[site])
	}

	s.log.Info().Int("entries", imported).Int("sites", len(order)).Msg("import complete")
	return imported, nil
}

// Close closes the underlying store.
func (s *Safe) Close() {
	if s.store != nil {
		s.store.Close()
	}
}

// FilterByUsername returns the entries whose username equals username,
// keeping their order.
func FilterByUsername(entries []vault.Entry, username string) []vault.Entry {
	out := make([]vault.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Username == username {
			out = append(out, e)
		}
	}
	return out
}

// check runs struct validation and converts the first failure to an
// *InputError. Field values are never included in the message.
func (s *Safe) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &InputError{Field: strings.ToLower(fe.Field()), Reason: describe(fe)}
	}
	return &InputError{Field: "input", Reason: err.Error(), Err: err}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	default:
		return "is invalid"
	}
}
