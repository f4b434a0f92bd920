// Package cli provides shared utilities for CLI commands.
package cli

import (
	"fmt"
	"path"
	"strings"
)

// MatchSites filters sites by glob patterns (path.Match syntax, compared
// case-insensitively). No patterns returns sites unchanged. The result keeps
// the order of sites and holds each site once.
func MatchSites(patterns []string, sites []string) ([]string, error) {
	if len(patterns) == 0 {
		return sites, nil
	}

	folded := make([]string, len(patterns))
	for i, p := range patterns {
		folded[i] = strings.ToLower(p)
		// Validate pattern syntax
		if _, err := path.Match(folded[i], ""); err != nil {
			return nil, fmt.Errorf("invalid pattern '%s': %w", p, err)
		}
	}

	var result []string
	for _, site := range sites {
		name := strings.ToLower(site)
		for _, p := range folded {
			if ok, _ := path.Match(p, name); ok {
				result = append(result, site)
				break
			}
		}
	}
	return result, nil
}
