package reference

import "testing"

func TestFingerprintPrefersDOI(t *testing.T) {
	withDOI := ExtractedFields{
		DOI:         "10.1000/xyz",
		Title:       "A study of things",
		Year:        2020,
		FamilyNames: []string{"Smith"},
	}
	sameDOIOtherTitle := ExtractedFields{
		DOI:   "10.1000/xyz",
		Title: "Completely different title",
	}

	if withDOI.Fingerprint() != sameDOIOtherTitle.Fingerprint() {
		t.Error("references with the same DOI should share a fingerprint")
	}
}

func TestFingerprintTitleFallback(t *testing.T) {
	a := ExtractedFields{Title: "A Study of Things", Year: 2020, FamilyNames: []string{"Smith"}}
	b := ExtractedFields{Title: "a study  of things!", Year: 2020, FamilyNames: []string{"SMITH"}}
	c := ExtractedFields{Title: "A Study of Things", Year: 2021, FamilyNames: []string{"Smith"}}

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("normalization should make formatting variants share a fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different years should produce different fingerprints")
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	f := ExtractedFields{Title: "A study", Year: 2020, FamilyNames: []string{"Smith"}}
	if f.Fingerprint() != f.Fingerprint() {
		t.Error("fingerprint must be deterministic")
	}
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.1000/XYZ", "10.1000/xyz"},
		{"https://doi.org/10.1000/xyz", "10.1000/xyz"},
		{"doi:10.1000/xyz.", "10.1000/xyz"},
		{"  10.1000/xyz;  ", "10.1000/xyz"},
		{"not-a-doi", ""},
		{"10.1000", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeDOI(tt.in); got != tt.want {
			t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
