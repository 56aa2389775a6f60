package reference

import "testing"

func TestDiffFields(t *testing.T) {
	before := ExtractedFields{
		Title: "A study",
		Year:  2020,
	}
	after := ExtractedFields{
		Title:   "A study",
		Year:    2020,
		DOI:     "10.1000/xyz",
		Journal: "Journal of Things",
	}

	changes := DiffFields(&before, &after)

	byField := make(map[string]ValidationChange)
	for _, c := range changes {
		byField[c.Field] = c
	}

	if c := byField[FieldDOI]; c.Type != ChangeAdded || c.After != "10.1000/xyz" {
		t.Errorf("doi change = %+v, want added", c)
	}
	if c := byField[FieldJournal]; c.Type != ChangeAdded {
		t.Errorf("journal change = %+v, want added", c)
	}
	if c := byField[FieldTitle]; c.Type != ChangeUnchanged {
		t.Errorf("title change = %+v, want unchanged", c)
	}
	if _, ok := byField[FieldAbstract]; ok {
		t.Error("abstract empty on both sides should produce no entry")
	}
}

func TestDiffFieldsUpdated(t *testing.T) {
	before := ExtractedFields{DOI: "10.1/old"}
	after := ExtractedFields{DOI: "10.1/new"}

	changes := DiffFields(&before, &after)
	if len(changes) != 1 || changes[0].Type != ChangeUpdated {
		t.Fatalf("changes = %+v, want single updated entry", changes)
	}
	if changes[0].Before != "10.1/old" || changes[0].After != "10.1/new" {
		t.Errorf("before/after = %q/%q", changes[0].Before, changes[0].After)
	}
}

func TestFilterChanged(t *testing.T) {
	changes := []ValidationChange{
		{Field: "doi", Type: ChangeAdded},
		{Field: "title", Type: ChangeUnchanged},
		{Field: "year", Type: ChangeUpdated},
	}

	filtered := FilterChanged(changes)
	if len(filtered) != 2 {
		t.Fatalf("filtered = %+v, want 2 entries", filtered)
	}
	for _, c := range filtered {
		if c.Type == ChangeUnchanged {
			t.Error("unchanged entry survived filtering")
		}
	}
}
