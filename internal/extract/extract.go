// Package extract turns document text into parsed references. The
// regex extractor is deliberately heuristic: whatever it cannot fill
// is left for enrichment to recover.
package extract

import (
	"context"
	"errors"

	"github.com/matsen/refinery/internal/reference"
)

// ErrNoReferences indicates no reference entries could be located in
// the document.
var ErrNoReferences = errors.New("no references found in document")

// Document is raw text submitted for extraction, usually the
// references section of a paper.
type Document struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Extractor is the parsing contract. Per-reference extraction failures
// are recorded on the affected reference's Error field; the returned
// error is reserved for document-level failures.
type Extractor interface {
	Name() string
	Parse(ctx context.Context, doc Document) ([]reference.ParsedReference, error)
}
