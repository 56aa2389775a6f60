package reference

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// Fingerprint derives a deterministic identity for a reference from its
// strongest available keys: the DOI when present, otherwise normalized
// title + year + first author family name. Two references with the same
// fingerprint are treated as the same work.
func (f *ExtractedFields) Fingerprint() string {
	var key string
	if doi := NormalizeDOI(f.DOI); doi != "" {
		key = "doi::" + doi
	} else {
		first := ""
		if len(f.FamilyNames) > 0 {
			first = normalizeToken(f.FamilyNames[0])
		}
		key = fmt.Sprintf("work::%s::%d::%s", normalizeTitle(f.Title), f.Year, first)
	}

	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// NormalizeDOI lowercases a DOI and strips resolver URL prefixes and
// trailing punctuation. Returns "" for values that do not look like a DOI.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(strings.ToLower(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	doi = strings.TrimRight(doi, ".,;:)")

	if !strings.HasPrefix(doi, "10.") || !strings.Contains(doi, "/") {
		return ""
	}
	return doi
}

// normalizeTitle lowercases, strips punctuation, and collapses
// whitespace so that formatting differences between sources do not
// change the fingerprint.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func normalizeToken(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
