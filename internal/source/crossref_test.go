package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const crossRefWorkJSON = `{
	"message": {
		"DOI": "10.1234/test.2020",
		"title": ["Adaptive immune receptor repertoires"],
		"container-title": ["Journal of Immunology"],
		"page": "100-115",
		"publisher": "Example Press",
		"URL": "https://doi.org/10.1234/test.2020",
		"abstract": "<jats:p>Sequencing of immune repertoires.</jats:p>",
		"author": [
			{"given": "Jane", "family": "Doe"},
			{"given": "John", "family": "Smith"}
		],
		"published-print": {"date-parts": [[2020, 3]]}
	}
}`

func TestCrossRefLookupByDOI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/works/10.1234%2Ftest.2020" && r.URL.Path != "/works/10.1234/test.2020" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(crossRefWorkJSON))
	}))
	defer server.Close()

	c := NewCrossRef(WithBaseURL(server.URL))
	got, err := c.Lookup(context.Background(), Query{DOI: "10.1234/test.2020"})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got == nil {
		t.Fatal("Lookup() = nil, want candidate")
	}
	if got.Source != NameCrossRef {
		t.Errorf("Source = %q, want %q", got.Source, NameCrossRef)
	}
	if got.Fields.DOI != "10.1234/test.2020" {
		t.Errorf("DOI = %q, want %q", got.Fields.DOI, "10.1234/test.2020")
	}
	if got.Fields.Title != "Adaptive immune receptor repertoires" {
		t.Errorf("Title = %q", got.Fields.Title)
	}
	if got.Fields.Journal != "Journal of Immunology" {
		t.Errorf("Journal = %q", got.Fields.Journal)
	}
	if got.Fields.Year != 2020 {
		t.Errorf("Year = %d, want 2020", got.Fields.Year)
	}
	if got.Fields.Abstract != "Sequencing of immune repertoires." {
		t.Errorf("Abstract = %q, want JATS markup stripped", got.Fields.Abstract)
	}
	if len(got.Fields.FamilyNames) != 2 || got.Fields.FamilyNames[0] != "Doe" {
		t.Errorf("FamilyNames = %v", got.Fields.FamilyNames)
	}
	if len(got.Fields.FullNames) != 2 || got.Fields.FullNames[0] != "Jane Doe" {
		t.Errorf("FullNames = %v", got.Fields.FullNames)
	}
}

func TestCrossRefLookupSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/works" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if q := r.URL.Query().Get("query.bibliographic"); q == "" {
			t.Error("missing query.bibliographic parameter")
		}
		if rows := r.URL.Query().Get("rows"); rows != "1" {
			t.Errorf("rows = %q, want 1", rows)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message": {"items": [{"DOI": "10.5555/found", "title": ["Found"], "published-print": {"date-parts": [[2019]]}}]}}`))
	}))
	defer server.Close()

	c := NewCrossRef(WithBaseURL(server.URL))
	got, err := c.Lookup(context.Background(), Query{Title: "Found", Year: 2019, FirstAuthor: "Doe"})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got == nil || got.Fields.DOI != "10.5555/found" {
		t.Fatalf("Lookup() = %+v, want DOI 10.5555/found", got)
	}
}

func TestCrossRefLookupNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := NewCrossRef(WithBaseURL(server.URL))
	got, err := c.Lookup(context.Background(), Query{DOI: "10.9999/missing"})
	if err != nil {
		t.Fatalf("Lookup() error = %v, want nil for 404", err)
	}
	if got != nil {
		t.Errorf("Lookup() = %+v, want nil for 404", got)
	}
}

func TestCrossRefLookupServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewCrossRef(WithBaseURL(server.URL))
	_, err := c.Lookup(context.Background(), Query{DOI: "10.1234/test"})
	if err == nil {
		t.Fatal("Lookup() error = nil, want APIError for 500")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Lookup() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
	}
}

func TestCrossRefLookupEmptyQuery(t *testing.T) {
	c := NewCrossRef()
	got, err := c.Lookup(context.Background(), Query{})
	if err != nil || got != nil {
		t.Errorf("Lookup(empty) = %v, %v, want nil, nil", got, err)
	}
}

func TestStripJATS(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "No markup here.", "No markup here."},
		{"jats paragraph", "<jats:p>Wrapped text.</jats:p>", "Wrapped text."},
		{"nested tags", "<jats:sec><jats:title>Aims</jats:title><jats:p>Body.</jats:p></jats:sec>", "Aims Body."},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripJATS(tt.input); got != tt.want {
				t.Errorf("stripJATS() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBibliographicQuery(t *testing.T) {
	got := bibliographicQuery(Query{Title: "Some Title", FirstAuthor: "Doe", Year: 2020})
	want := "Some Title Doe 2020"
	if got != want {
		t.Errorf("bibliographicQuery() = %q, want %q", got, want)
	}
}
