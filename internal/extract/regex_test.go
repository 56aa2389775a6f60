package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matsen/refinery/internal/reference"
)

const sampleSection = `Some introductory text that is not part of the list.

References

1. Doe, J., and Smith, A. B. (2020) Adaptive dynamics of repertoires. Journal of Theoretical Biology 123: 45-67. doi:10.1234/jtb.2020.001
2. Brown C (2018) Short note on nothing much at all. Ecol Lett 21: 5-9.
3. xx
`

func TestSplitEntries(t *testing.T) {
	entries := SplitEntries(sampleSection)
	if len(entries) != 2 {
		t.Fatalf("SplitEntries() = %d entries, want 2 (short entry dropped)", len(entries))
	}
	if entries[0] != "Doe, J., and Smith, A. B. (2020) Adaptive dynamics of repertoires. Journal of Theoretical Biology 123: 45-67. doi:10.1234/jtb.2020.001" {
		t.Errorf("entries[0] = %q", entries[0])
	}
}

func TestSplitEntriesBlankLineSeparated(t *testing.T) {
	text := `Doe, J. (2020) First work in the list. J One 1: 1-2.

Smith, A. (2019) Second work in the list. J Two 2: 3-4.`

	entries := SplitEntries(text)
	if len(entries) != 2 {
		t.Fatalf("SplitEntries() = %d entries, want 2", len(entries))
	}
}

func TestSplitEntriesWrappedLines(t *testing.T) {
	text := `References
1. Doe, J. (2020) A title that wraps
   across two physical lines. J Things 3: 10-20.
2. Smith, A. (2019) Another entry entirely. J Stuff 4: 30-40.`

	entries := SplitEntries(text)
	if len(entries) != 2 {
		t.Fatalf("SplitEntries() = %d entries, want 2", len(entries))
	}
	want := "Doe, J. (2020) A title that wraps across two physical lines. J Things 3: 10-20."
	if entries[0] != want {
		t.Errorf("entries[0] = %q, want %q", entries[0], want)
	}
}

func TestExtractFields(t *testing.T) {
	f, err := extractFields("Doe, J., and Smith, A. B. (2020) Adaptive dynamics of repertoires. Journal of Theoretical Biology 123: 45-67. doi:10.1234/jtb.2020.001")
	if err != nil {
		t.Fatalf("extractFields() error = %v", err)
	}

	if !reflect.DeepEqual(f.FamilyNames, []string{"Doe", "Smith"}) {
		t.Errorf("FamilyNames = %v, want [Doe Smith]", f.FamilyNames)
	}
	if !reflect.DeepEqual(f.GivenNames, []string{"J.", "A. B."}) {
		t.Errorf("GivenNames = %v, want [J. A. B.]", f.GivenNames)
	}
	if f.Year != 2020 {
		t.Errorf("Year = %d, want 2020", f.Year)
	}
	if f.Title != "Adaptive dynamics of repertoires" {
		t.Errorf("Title = %q", f.Title)
	}
	if f.Journal != "Journal of Theoretical Biology" {
		t.Errorf("Journal = %q", f.Journal)
	}
	if f.Pages != "45-67" {
		t.Errorf("Pages = %q, want 45-67", f.Pages)
	}
	if f.DOI != "10.1234/jtb.2020.001" {
		t.Errorf("DOI = %q", f.DOI)
	}
}

func TestExtractFieldsBareYearStyle(t *testing.T) {
	f, err := extractFields("Doe J, Roe AB. 2019. Clonal family inference at scale. Genome Biol 20: 100-110.")
	if err != nil {
		t.Fatalf("extractFields() error = %v", err)
	}
	if !reflect.DeepEqual(f.FamilyNames, []string{"Doe", "Roe"}) {
		t.Errorf("FamilyNames = %v, want [Doe Roe]", f.FamilyNames)
	}
	if f.Year != 2019 {
		t.Errorf("Year = %d, want 2019", f.Year)
	}
	if f.Title != "Clonal family inference at scale" {
		t.Errorf("Title = %q", f.Title)
	}
	if f.Journal != "Genome Biol" {
		t.Errorf("Journal = %q", f.Journal)
	}
	if f.Pages != "100-110" {
		t.Errorf("Pages = %q, want 100-110", f.Pages)
	}
	if f.DOI != "" {
		t.Errorf("DOI = %q, want empty", f.DOI)
	}
}

func TestExtractFieldsURL(t *testing.T) {
	f, err := extractFields("Doe, J. (2021) Preprint about something new. https://example.org/preprints/42.")
	if err != nil {
		t.Fatalf("extractFields() error = %v", err)
	}
	if f.URL != "https://example.org/preprints/42" {
		t.Errorf("URL = %q, want trailing period trimmed", f.URL)
	}
}

func TestParseDocument(t *testing.T) {
	e := NewRegexExtractor()
	refs, err := e.Parse(context.Background(), Document{Name: "sample.txt", Text: sampleSection})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("Parse() = %d references, want 2", len(refs))
	}

	first := refs[0]
	if first.Index != 0 || first.ParserUsed != "regex" {
		t.Errorf("reference = %+v", first)
	}
	if first.Error != "" {
		t.Fatalf("Error = %q, want clean parse", first.Error)
	}
	if first.Fields.DOI != "10.1234/jtb.2020.001" {
		t.Errorf("DOI = %q", first.Fields.DOI)
	}
	if len(first.MissingFields) != 0 {
		t.Errorf("MissingFields = %v, want none", first.MissingFields)
	}
	if first.Quality.InitialQualityScore <= 0 {
		t.Error("InitialQualityScore not set")
	}
	if first.TaggedOutput == "" {
		t.Error("TaggedOutput empty")
	}

	second := refs[1]
	if second.Fields.DOI != "" {
		t.Errorf("second DOI = %q, want empty", second.Fields.DOI)
	}
	found := false
	for _, f := range second.MissingFields {
		if f == reference.FieldDOI {
			found = true
		}
	}
	if !found {
		t.Errorf("second MissingFields = %v, want doi listed", second.MissingFields)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	e := NewRegexExtractor()
	_, err := e.Parse(context.Background(), Document{Name: "empty.txt", Text: "   \n \n"})
	if !errors.Is(err, ErrNoReferences) {
		t.Errorf("Parse(empty) error = %v, want ErrNoReferences", err)
	}
}

func TestReadDocumentPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.txt")
	if err := os.WriteFile(path, []byte(sampleSection), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := ReadDocument(path)
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	if doc.Name != "refs.txt" {
		t.Errorf("Name = %q, want refs.txt", doc.Name)
	}
	if doc.Text != sampleSection {
		t.Error("Text does not round-trip")
	}
}

func TestReadDocumentMissingFile(t *testing.T) {
	_, err := ReadDocument(filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Fatal("ReadDocument(absent) error = nil, want error")
	}
}
