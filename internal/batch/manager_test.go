package batch

import (
	"errors"
	"testing"
	"time"

	"github.com/matsen/refinery/internal/reference"
)

func testRefs() []reference.ParsedReference {
	refs := []reference.ParsedReference{
		{
			Index:        0,
			OriginalText: "Doe J (2020) Complete work. J Things 1:1-10.",
			Fields: reference.ExtractedFields{
				FamilyNames: []string{"Doe"},
				GivenNames:  []string{"J"},
				Year:        2020,
				Title:       "Complete work",
				Journal:     "J Things",
				DOI:         "10.1/complete",
				Pages:       "1-10",
			},
		},
		{
			Index:        1,
			OriginalText: "Smith A (2019) Partial work.",
			Fields: reference.ExtractedFields{
				FamilyNames: []string{"Smith"},
				Year:        2019,
				Title:       "Partial work",
			},
		},
	}
	for i := range refs {
		refs[i].Recompute()
	}
	return refs
}

func newTestManager() *Manager {
	return NewManager(NewMemoryStore())
}

func TestCreateBatch(t *testing.T) {
	m := newTestManager()

	b, err := m.CreateBatch(FileInfo{Filename: "refs.pdf"}, testRefs())
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}
	if b.ID == "" {
		t.Error("ID empty, want generated")
	}
	if b.Status != StatusUnvalidated {
		t.Errorf("Status = %q, want %q", b.Status, StatusUnvalidated)
	}
	if len(b.References) != 2 {
		t.Errorf("References = %d, want 2", len(b.References))
	}

	got, err := m.GetBatch(b.ID)
	if err != nil {
		t.Fatalf("GetBatch() error = %v", err)
	}
	if got.ID != b.ID {
		t.Errorf("GetBatch() ID = %q, want %q", got.ID, b.ID)
	}
}

func TestCreateBatchEmpty(t *testing.T) {
	m := newTestManager()

	_, err := m.CreateBatch(FileInfo{Filename: "empty.pdf"}, nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("CreateBatch(empty) error = %v, want ErrInvalidInput", err)
	}
}

func TestGetBatchNotFound(t *testing.T) {
	m := newTestManager()

	_, err := m.GetBatch("no-such-batch")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBatch() error = %v, want ErrNotFound", err)
	}
}

func TestBeginValidationConflict(t *testing.T) {
	m := newTestManager()
	b, _ := m.CreateBatch(FileInfo{Filename: "refs.pdf"}, testRefs())

	token, err := m.BeginValidation(b.ID)
	if err != nil {
		t.Fatalf("BeginValidation() error = %v", err)
	}
	if token == "" {
		t.Fatal("BeginValidation() token empty")
	}

	got, _ := m.GetBatch(b.ID)
	if got.Status != StatusValidating {
		t.Errorf("Status = %q, want %q", got.Status, StatusValidating)
	}

	if _, err := m.BeginValidation(b.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("second BeginValidation() error = %v, want ErrConflict", err)
	}
}

func TestCompleteValidation(t *testing.T) {
	m := newTestManager()
	b, _ := m.CreateBatch(FileInfo{Filename: "refs.pdf"}, testRefs())
	token, _ := m.BeginValidation(b.ID)

	refs := testRefs()
	refs[1].Fields.DOI = "10.1/enriched"
	refs[1].Recompute()

	result := &ValidationResult{
		Mode:        "standard",
		References:  refs,
		Enriched:    1,
		CompletedAt: time.Now().UTC(),
	}
	if err := m.CompleteValidation(b.ID, token, result); err != nil {
		t.Fatalf("CompleteValidation() error = %v", err)
	}

	got, _ := m.GetBatch(b.ID)
	if got.Status != StatusValidated {
		t.Errorf("Status = %q, want %q", got.Status, StatusValidated)
	}
	if got.ValidationResult == nil || got.ValidationResult.Enriched != 1 {
		t.Errorf("ValidationResult = %+v", got.ValidationResult)
	}
	if got.References[1].Fields.DOI != "10.1/enriched" {
		t.Error("batch references not updated from result")
	}

	// The token is consumed; a new run can begin.
	if _, err := m.BeginValidation(b.ID); err != nil {
		t.Errorf("BeginValidation() after complete error = %v", err)
	}
}

func TestCompleteValidationStaleToken(t *testing.T) {
	m := newTestManager()
	b, _ := m.CreateBatch(FileInfo{Filename: "refs.pdf"}, testRefs())
	m.BeginValidation(b.ID)

	err := m.CompleteValidation(b.ID, "wrong-token", &ValidationResult{})
	if !errors.Is(err, ErrStaleToken) {
		t.Errorf("CompleteValidation(wrong token) error = %v, want ErrStaleToken", err)
	}

	// The failed completion must not have mutated the batch.
	got, _ := m.GetBatch(b.ID)
	if got.ValidationResult != nil {
		t.Error("ValidationResult set by stale completion")
	}
	if got.Status != StatusValidating {
		t.Errorf("Status = %q, want unchanged %q", got.Status, StatusValidating)
	}
}

func TestCompleteValidationNoTokenIssued(t *testing.T) {
	m := newTestManager()
	b, _ := m.CreateBatch(FileInfo{Filename: "refs.pdf"}, testRefs())

	err := m.CompleteValidation(b.ID, "never-issued", &ValidationResult{})
	if !errors.Is(err, ErrStaleToken) {
		t.Errorf("CompleteValidation() error = %v, want ErrStaleToken", err)
	}
}

func TestAbortValidation(t *testing.T) {
	m := newTestManager()
	b, _ := m.CreateBatch(FileInfo{Filename: "refs.pdf"}, testRefs())
	token, _ := m.BeginValidation(b.ID)

	if err := m.AbortValidation(b.ID, token); err != nil {
		t.Fatalf("AbortValidation() error = %v", err)
	}

	got, _ := m.GetBatch(b.ID)
	if got.Status != StatusUnvalidated {
		t.Errorf("Status = %q, want reverted to %q", got.Status, StatusUnvalidated)
	}

	// Retry after abort.
	if _, err := m.BeginValidation(b.ID); err != nil {
		t.Errorf("BeginValidation() after abort error = %v", err)
	}
}

func TestRevalidationKeepsValidatedStatus(t *testing.T) {
	m := newTestManager()
	b, _ := m.CreateBatch(FileInfo{Filename: "refs.pdf"}, testRefs())

	token, _ := m.BeginValidation(b.ID)
	m.CompleteValidation(b.ID, token, &ValidationResult{Mode: "standard", References: testRefs()})

	// A second run on a validated batch never drops the status.
	token2, err := m.BeginValidation(b.ID)
	if err != nil {
		t.Fatalf("BeginValidation() on validated batch error = %v", err)
	}
	got, _ := m.GetBatch(b.ID)
	if got.Status != StatusValidated {
		t.Errorf("Status during re-validation = %q, want %q", got.Status, StatusValidated)
	}

	// Aborting the re-validation restores validated, not unvalidated.
	if err := m.AbortValidation(b.ID, token2); err != nil {
		t.Fatalf("AbortValidation() error = %v", err)
	}
	got, _ = m.GetBatch(b.ID)
	if got.Status != StatusValidated {
		t.Errorf("Status after aborted re-validation = %q, want %q", got.Status, StatusValidated)
	}
}

func TestDeleteBatch(t *testing.T) {
	m := newTestManager()
	b, _ := m.CreateBatch(FileInfo{Filename: "refs.pdf"}, testRefs())

	token, _ := m.BeginValidation(b.ID)
	if err := m.DeleteBatch(b.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("DeleteBatch() during validation error = %v, want ErrConflict", err)
	}
	m.AbortValidation(b.ID, token)

	if err := m.DeleteBatch(b.ID); err != nil {
		t.Fatalf("DeleteBatch() error = %v", err)
	}
	if _, err := m.GetBatch(b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBatch() after delete error = %v, want ErrNotFound", err)
	}
}

func TestListBatches(t *testing.T) {
	m := newTestManager()
	first, _ := m.CreateBatch(FileInfo{Filename: "a.pdf"}, testRefs())
	second, _ := m.CreateBatch(FileInfo{Filename: "b.pdf"}, testRefs())

	got, err := m.ListBatches()
	if err != nil {
		t.Fatalf("ListBatches() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListBatches() = %d batches, want 2", len(got))
	}
	ids := map[string]bool{got[0].ID: true, got[1].ID: true}
	if !ids[first.ID] || !ids[second.ID] {
		t.Errorf("ListBatches() IDs = %v", ids)
	}
}

func TestSummarize(t *testing.T) {
	refs := testRefs()
	refs = append(refs, reference.ParsedReference{
		Index: 2,
		Error: "unreadable reference",
	})

	s := Summarize(refs)
	if s.TotalReferences != 3 {
		t.Errorf("TotalReferences = %d, want 3", s.TotalReferences)
	}
	if s.SuccessfullyParsed != 2 {
		t.Errorf("SuccessfullyParsed = %d, want 2", s.SuccessfullyParsed)
	}
	if s.NeedsValidation != 1 {
		t.Errorf("NeedsValidation = %d, want 1", s.NeedsValidation)
	}
	// The partial reference is missing journal, doi and pages.
	if s.TotalMissingFields != 3 {
		t.Errorf("TotalMissingFields = %d, want 3", s.TotalMissingFields)
	}
}

func TestStoredBatchIsolatedFromCaller(t *testing.T) {
	m := newTestManager()
	refs := testRefs()
	b, _ := m.CreateBatch(FileInfo{Filename: "refs.pdf"}, refs)

	refs[0].Fields.Title = "mutated by caller"
	b.References[0].Fields.Title = "mutated via returned batch"

	got, _ := m.GetBatch(b.ID)
	if got.References[0].Fields.Title != "Complete work" {
		t.Errorf("Title = %q, caller mutation leaked into store", got.References[0].Fields.Title)
	}
}
