package importer

import (
	"encoding/json"
	"fmt"
)

// BitwardenParser parses Bitwarden unencrypted JSON exports.
type BitwardenParser struct{}

// Bitwarden item types.
const (
	bitwardenTypeLogin      = 1
	bitwardenTypeSecureNote = 2
	bitwardenTypeCard       = 3
	bitwardenTypeIdentity   = 4
)

type bitwardenExport struct {
	Encrypted bool            `json:"encrypted"`
	Items     []bitwardenItem `json:"items"`
}

type bitwardenItem struct {
	Type  int             `json:"type"`
	Name  string          `json:"name"`
	Login *bitwardenLogin `json:"login"`
}

type bitwardenLogin struct {
	URIs     []bitwardenURI `json:"uris"`
	Username string         `json:"username"`
	Password string         `json:"password"`
}

type bitwardenURI struct {
	URI string `json:"uri"`
}

// Source returns the source type for this parser.
func (p *BitwardenParser) Source() Source {
	return SourceBitwarden
}

// Parse parses Bitwarden JSON data.
func (p *BitwardenParser) Parse(data []byte) (*Result, error) {
	var export bitwardenExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse Bitwarden JSON: %w", err)
	}
	if export.Encrypted {
		return nil, fmt.Errorf("encrypted Bitwarden exports are not supported: export as unencrypted JSON")
	}

	result := newResult()
	counter := 1

	for i := range export.Items {
		item := &export.Items[i]

		if item.Type != bitwardenTypeLogin {
			result.Skipped = append(result.Skipped, SkippedItem{
				Name:   item.Name,
				Reason: "not a login (" + bitwardenTypeName(item.Type) + ")",
			})
			continue
		}
		if item.Login == nil {
			result.Skipped = append(result.Skipped, SkippedItem{Name: item.Name, Reason: "no login data"})
			continue
		}

		var url string
		if len(item.Login.URIs) > 0 {
			url = item.Login.URIs[0].URI
		}

		site := SiteName(item.Name, url, &counter)
		rec, reason := login(site, item.Login.Username, item.Login.Password)
		if reason != "" {
			result.Skipped = append(result.Skipped, SkippedItem{Name: item.Name, Reason: reason})
			continue
		}
		result.Records = append(result.Records, rec)
	}

	return result, nil
}

func bitwardenTypeName(t int) string {
	switch t {
	case bitwardenTypeSecureNote:
		return "secure note"
	case bitwardenTypeCard:
		return "card"
	case bitwardenTypeIdentity:
		return "identity"
	default:
		return fmt.Sprintf("type %d", t)
	}
}
