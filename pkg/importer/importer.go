// Package importer reads login exports from other password managers:
// 1Password CSV, Bitwarden JSON and LastPass CSV.
//
// Only logins carry over. Each becomes a vault.Record keyed by the item
// name, or by the host of its URL when the name is empty. Items that are
// not logins, or that lack a username or password, are reported as
// skipped rather than failing the import.
package importer

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/forest6511/securesafe/pkg/vault"
)

// Source represents the source password manager format.
type Source string

const (
	Source1Password Source = "1password"
	SourceBitwarden Source = "bitwarden"
	SourceLastPass  Source = "lastpass"
)

// MaxFileSize bounds the export files accepted by the CLI.
const MaxFileSize = 10 * 1024 * 1024

// ErrUnsupportedSource is returned by GetParser for unknown formats.
var ErrUnsupportedSource = errors.New("importer: unsupported import source")

// Result contains the results of parsing one export.
type Result struct {
	// Records are the credentials ready to store, in file order.
	Records []vault.Record

	// Warnings are non-fatal issues such as malformed rows.
	Warnings []string

	// Skipped are items that were not imported, with reasons.
	Skipped []SkippedItem
}

// SkippedItem represents an item that was skipped during import.
type SkippedItem struct {
	Name   string
	Reason string
}

// Parser is the interface for export format parsers.
type Parser interface {
	// Parse parses the export and returns the login records found.
	Parse(data []byte) (*Result, error)

	// Source returns the source type for this parser.
	Source() Source
}

// GetParser returns a parser for the given source.
func GetParser(source Source) (Parser, error) {
	switch source {
	case Source1Password:
		return &OnePasswordParser{}, nil
	case SourceBitwarden:
		return &BitwardenParser{}, nil
	case SourceLastPass:
		return &LastPassParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	}
}

// ValidSources returns a list of valid source names.
func ValidSources() []string {
	return []string{
		string(Source1Password),
		string(SourceBitwarden),
		string(SourceLastPass),
	}
}

// SiteName picks the site for an item: its name, else the host of its URL,
// else imported_item_N where N comes from counter.
func SiteName(name, url string, counter *int) string {
	if site := strings.TrimSpace(norm.NFC.String(name)); site != "" {
		return site
	}
	if host := extractHostname(url); host != "" {
		return host
	}
	site := fmt.Sprintf("imported_item_%d", *counter)
	*counter++
	return site
}

// extractHostname extracts the hostname from a URL.
func extractHostname(urlStr string) string {
	urlStr = strings.TrimSpace(urlStr)

	// Remove protocol
	if idx := strings.Index(urlStr, "://"); idx != -1 {
		urlStr = urlStr[idx+3:]
	}

	// Remove path, query and port
	if idx := strings.IndexAny(urlStr, "/?#"); idx != -1 {
		urlStr = urlStr[:idx]
	}
	if idx := strings.LastIndex(urlStr, "@"); idx != -1 {
		urlStr = urlStr[idx+1:]
	}
	if idx := strings.Index(urlStr, ":"); idx != -1 {
		urlStr = urlStr[:idx]
	}

	return strings.TrimPrefix(strings.ToLower(urlStr), "www.")
}

// DecodeHTMLEntities decodes common HTML entities found in LastPass exports.
func DecodeHTMLEntities(s string) string {
	r := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&#39;", "'",
		"&apos;", "'",
	)
	return r.Replace(s)
}

// login turns one parsed item into a record or a skip reason.
func login(site, username, password string) (vault.Record, string) {
	switch {
	case password == "":
		return vault.Record{}, "no password"
	case strings.TrimSpace(username) == "":
		return vault.Record{}, "no username"
	}
	return vault.Record{Site: site, Entry: vault.Entry{Username: username, Password: password}}, ""
}

func newResult() *Result {
	return &Result{
		Records:  make([]vault.Record, 0),
		Warnings: make([]string, 0),
		Skipped:  make([]SkippedItem, 0),
	}
}
