package importer

import (
	"strings"
)

// LastPassParser parses LastPass CSV exports.
type LastPassParser struct{}

// LastPass CSV columns (lowercase).
const (
	lpColURL      = "url"
	lpColUsername = "username"
	lpColPassword = "password"
	lpColName     = "name"

	// lastPassNoteURL marks secure notes.
	lastPassNoteURL = "http://sn"
)

// Source returns the source type for this parser.
func (p *LastPassParser) Source() Source {
	return SourceLastPass
}

// Parse parses LastPass CSV data. Values may be HTML-encoded.
func (p *LastPassParser) Parse(data []byte) (*Result, error) {
	result := newResult()
	counter := 1

	err := csvRows(data, lpColName, strings.ToLower, result, func(_ int, get func(string) string) {
		value := func(col string) string {
			return DecodeHTMLEntities(strings.TrimSpace(get(col)))
		}

		name := value(lpColName)
		url := value(lpColURL)
		if url == lastPassNoteURL {
			result.Skipped = append(result.Skipped, SkippedItem{Name: name, Reason: "not a login (secure note)"})
			return
		}

		// Passwords keep their whitespace.
		password := DecodeHTMLEntities(get(lpColPassword))
		rec, reason := login(SiteName(name, url, &counter), value(lpColUsername), password)
		if reason != "" {
			result.Skipped = append(result.Skipped, SkippedItem{Name: name, Reason: reason})
			return
		}
		result.Records = append(result.Records, rec)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
