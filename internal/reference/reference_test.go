package reference

import (
	"reflect"
	"testing"
)

func TestMissing(t *testing.T) {
	tests := []struct {
		name   string
		fields ExtractedFields
		want   []string
	}{
		{
			name:   "all empty",
			fields: ExtractedFields{},
			want:   []string{"authors", "year", "title", "journal", "doi", "pages"},
		},
		{
			name: "complete",
			fields: ExtractedFields{
				FamilyNames: []string{"Smith"},
				Year:        2020,
				Title:       "A study of things",
				Journal:     "Journal of Things",
				DOI:         "10.1000/xyz",
				Pages:       "1-10",
			},
			want: []string{},
		},
		{
			name: "missing doi and pages",
			fields: ExtractedFields{
				FamilyNames: []string{"Smith"},
				Year:        2020,
				Title:       "A study of things",
				Journal:     "Journal of Things",
			},
			want: []string{"doi", "pages"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fields.Missing()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Missing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecomputeDerivesMissingFields(t *testing.T) {
	ref := ParsedReference{
		Fields: ExtractedFields{
			FamilyNames: []string{"Smith"},
			Year:        2020,
			Title:       "A study",
		},
		// Stale hand-set value that must be discarded.
		MissingFields: []string{"bogus"},
	}
	ref.Recompute()

	want := []string{"journal", "doi", "pages"}
	if !reflect.DeepEqual(ref.MissingFields, want) {
		t.Errorf("MissingFields = %v, want %v", ref.MissingFields, want)
	}
}

func TestQualityScoreImprovesWithCompleteness(t *testing.T) {
	sparse := ExtractedFields{Title: "A study"}
	full := ExtractedFields{
		FamilyNames: []string{"Smith"},
		Year:        2020,
		Title:       "A study",
		Journal:     "Journal",
		DOI:         "10.1000/xyz",
		Pages:       "1-10",
		Abstract:    "An abstract.",
	}

	if s := sparse.QualityScore(); s <= 0 || s >= 1 {
		t.Errorf("sparse score = %v, want in (0,1)", s)
	}
	if full.QualityScore() <= sparse.QualityScore() {
		t.Errorf("full score %v not greater than sparse score %v",
			full.QualityScore(), sparse.QualityScore())
	}
}

func TestRecomputeQualityImprovement(t *testing.T) {
	ref := ParsedReference{
		Fields:  ExtractedFields{Title: "A study"},
		Quality: QualityMetrics{InitialQualityScore: 0.2},
	}
	ref.Fields.DOI = "10.1000/xyz"
	ref.Recompute()

	if ref.Quality.QualityImprovement != ref.Quality.FinalQualityScore-0.2 {
		t.Errorf("QualityImprovement = %v, want final-initial", ref.Quality.QualityImprovement)
	}
}

func TestFullNamesFromParts(t *testing.T) {
	f := ExtractedFields{
		FamilyNames: []string{"Smith", "Jones", "Lee"},
		GivenNames:  []string{"A.", "B."},
	}
	got := f.FullNamesFromParts()
	want := []string{"A. Smith", "B. Jones", "Lee"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FullNamesFromParts() = %v, want %v", got, want)
	}
}

func TestValueSetValueRoundTrip(t *testing.T) {
	var f ExtractedFields
	for _, field := range MergeFields {
		if field == FieldYear {
			f.SetValue(field, "2021")
			if f.Value(field) != "2021" {
				t.Errorf("year round trip failed: %q", f.Value(field))
			}
			continue
		}
		f.SetValue(field, "value-"+field)
		if f.Value(field) != "value-"+field {
			t.Errorf("%s round trip failed: %q", field, f.Value(field))
		}
	}
}
