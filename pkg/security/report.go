package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Credential is one stored password to analyze.
type Credential struct {
	Site     string
	Username string
	Password string
}

// Ref names a credential without its password.
type Ref struct {
	Site     string `json:"site"`
	Username string `json:"username"`
}

// DuplicateGroup is a set of credentials sharing one password.
type DuplicateGroup struct {
	Refs  []Ref `json:"refs"`
	Count int   `json:"count"`
}

// Report summarizes a vault. It never contains password material.
type Report struct {
	Total      int              `json:"total"`
	Weak       []Ref            `json:"weak,omitempty"`
	Duplicates []DuplicateGroup `json:"duplicates,omitempty"`
	// Score is the percentage of credentials that are neither weak nor
	// reused. An empty vault scores 100.
	Score int `json:"score"`
}

// Analyzer compares passwords through HMAC-SHA256 under a key that lives
// only as long as the Analyzer.
type Analyzer struct {
	hmacKey []byte
}

// NewAnalyzer creates an Analyzer with a fresh random key.
func NewAnalyzer() (*Analyzer, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("security: failed to generate hmac key: %w", err)
	}
	return &Analyzer{hmacKey: key}, nil
}

// Analyze finds weak passwords and passwords reused across credentials.
// Empty passwords are ignored.
func (a *Analyzer) Analyze(creds []Credential) Report {
	var report Report
	flagged := make(map[int]struct{})
	groups := make(map[string][]int)

	for i, c := range creds {
		value := normalizeValue(c.Password)
		if value == "" {
			continue
		}
		report.Total++

		if Strength(c.Password) == PasswordWeak {
			report.Weak = append(report.Weak, Ref{Site: c.Site, Username: c.Username})
			flagged[i] = struct{}{}
		}

		h := a.hash(value)
		groups[h] = append(groups[h], i)
	}

	for _, idx := range groups {
		if len(idx) <= 1 {
			continue
		}
		group := DuplicateGroup{Count: len(idx)}
		for _, i := range idx {
			group.Refs = append(group.Refs, Ref{Site: creds[i].Site, Username: creds[i].Username})
			flagged[i] = struct{}{}
		}
		sortRefs(group.Refs)
		report.Duplicates = append(report.Duplicates, group)
	}

	// Most duplicated first, then by first site for stable output.
	sort.Slice(report.Duplicates, func(i, j int) bool {
		di, dj := report.Duplicates[i], report.Duplicates[j]
		if di.Count != dj.Count {
			return di.Count > dj.Count
		}
		return lessRef(di.Refs[0], dj.Refs[0])
	})
	sortRefs(report.Weak)

	report.Score = 100
	if report.Total > 0 {
		report.Score = (report.Total - len(flagged)) * 100 / report.Total
	}
	return report
}

func (a *Analyzer) hash(value string) string {
	h := hmac.New(sha256.New, a.hmacKey)
	h.Write([]byte(value))
	return string(h.Sum(nil))
}

// normalizeValue trims whitespace and applies Unicode NFC so visually equal
// passwords compare equal.
func normalizeValue(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

func sortRefs(refs []Ref) {
	sort.Slice(refs, func(i, j int) bool { return lessRef(refs[i], refs[j]) })
}

func lessRef(a, b Ref) bool {
	if a.Site != b.Site {
		return a.Site < b.Site
	}
	return a.Username < b.Username
}
