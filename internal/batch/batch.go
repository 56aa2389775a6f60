// Package batch owns the lifecycle of parsed reference batches:
// creation, lookup, and the validation token protocol that admits at
// most one validation run per batch.
package batch

import (
	"time"

	"github.com/matsen/refinery/internal/reference"
)

// Status is a batch's validation state.
type Status string

const (
	StatusUnvalidated Status = "unvalidated"
	StatusValidating  Status = "validating"
	StatusValidated   Status = "validated"
)

// FileInfo describes the document a batch was parsed from.
type FileInfo struct {
	Filename    string    `json:"filename"`
	Size        int64     `json:"size,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at,omitempty"`
}

// Summary holds the parse-time counts reported with a new batch.
type Summary struct {
	TotalReferences    int `json:"total_references"`
	SuccessfullyParsed int `json:"successfully_parsed"`
	NeedsValidation    int `json:"needs_validation"`
	TotalMissingFields int `json:"total_missing_fields"`
}

// ValidationResult is the outcome of one completed validation run.
type ValidationResult struct {
	Mode         string                      `json:"mode"`
	References   []reference.ParsedReference `json:"references"`
	Enriched     int                         `json:"enriched"`
	FromCache    int                         `json:"from_cache"`
	CacheHitRate float64                     `json:"cache_hit_rate"`
	CompletedAt  time.Time                   `json:"completed_at"`
}

// Batch is a parsed document's references plus validation state. It is
// mutated only through Manager operations.
type Batch struct {
	ID               string                      `json:"batch_id"`
	FileInfo         FileInfo                    `json:"file_info"`
	References       []reference.ParsedReference `json:"references"`
	Status           Status                      `json:"validation_status"`
	ValidationResult *ValidationResult           `json:"validation_result,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

// Summarize computes the parse-time counts for a reference list.
func Summarize(refs []reference.ParsedReference) Summary {
	s := Summary{TotalReferences: len(refs)}
	for i := range refs {
		r := &refs[i]
		if r.Error != "" {
			continue
		}
		s.SuccessfullyParsed++
		if len(r.MissingFields) > 0 {
			s.NeedsValidation++
			s.TotalMissingFields += len(r.MissingFields)
		}
	}
	return s
}

// Clone deep-copies a batch so callers cannot mutate stored state.
func (b *Batch) Clone() *Batch {
	if b == nil {
		return nil
	}
	c := *b
	c.References = cloneReferences(b.References)
	if b.ValidationResult != nil {
		vr := *b.ValidationResult
		vr.References = cloneReferences(b.ValidationResult.References)
		c.ValidationResult = &vr
	}
	return &c
}

func cloneReferences(refs []reference.ParsedReference) []reference.ParsedReference {
	if refs == nil {
		return nil
	}
	out := make([]reference.ParsedReference, len(refs))
	for i := range refs {
		out[i] = refs[i].Clone()
	}
	return out
}
