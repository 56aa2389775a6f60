// Package source defines the enrichment source contract and the
// concrete adapters for the academic APIs queried during validation.
package source

import (
	"context"

	"github.com/matsen/refinery/internal/reference"
)

// Query carries the identity keys used to look a reference up in an
// external source. DOI is preferred when present; otherwise adapters
// fall back to a bibliographic search over title, year and first author.
type Query struct {
	DOI         string
	Title       string
	Year        int
	FirstAuthor string
}

// Candidate is one source's answer for a reference: zero or more field
// values tagged with the source that produced them.
type Candidate struct {
	Source string                    `json:"source"`
	Fields reference.ExtractedFields `json:"fields"`
}

// Source is the lookup contract every enrichment adapter implements.
// Lookup must respect the context deadline and must return (nil, nil)
// for "not found" rather than an error.
type Source interface {
	Name() string
	Lookup(ctx context.Context, q Query) (*Candidate, error)
}

// Canonical source names.
const (
	NameCrossRef        = "crossref"
	NameOpenAlex        = "openalex"
	NameSemanticScholar = "semanticscholar"
	NameDOAJ            = "doaj"
	NamePubMed          = "pubmed"
	NameArXiv           = "arxiv"
)

// DefaultPriority is the merge priority order: when two sources answer
// the same field, the earlier source wins.
var DefaultPriority = []string{
	NameCrossRef,
	NameOpenAlex,
	NameSemanticScholar,
	NameDOAJ,
	NamePubMed,
	NameArXiv,
}

// doiCapable marks sources that can resolve a work directly by DOI.
var doiCapable = map[string]bool{
	NameCrossRef:        true,
	NameOpenAlex:        true,
	NameSemanticScholar: true,
	NameDOAJ:            false,
	NamePubMed:          false,
	NameArXiv:           false,
}

// DOICapable reports whether a source can resolve references by DOI.
func DOICapable(name string) bool {
	return doiCapable[name]
}

// Registry holds the available sources by name.
type Registry struct {
	sources  map[string]Source
	order    []string
	priority []string
}

// NewRegistry builds a registry from the given sources, preserving
// registration order for Names.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: make(map[string]Source, len(sources))}
	for _, s := range sources {
		if _, ok := r.sources[s.Name()]; ok {
			continue
		}
		r.sources[s.Name()] = s
		r.order = append(r.order, s.Name())
	}
	return r
}

// DefaultRegistry builds a registry with all six production adapters.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewCrossRef(),
		NewOpenAlex(),
		NewSemanticScholar(),
		NewDOAJ(),
		NewPubMed(),
		NewArXiv(),
	)
}

// SetPriority overrides the merge priority order. Names not in the
// override keep their default rank after the listed ones.
func (r *Registry) SetPriority(names []string) {
	r.priority = append([]string(nil), names...)
}

// Get returns the named source.
func (r *Registry) Get(name string) (Source, bool) {
	s, ok := r.sources[name]
	return s, ok
}

// Names returns the registered source names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// QueryFor builds a lookup query from a reference's extracted fields.
func QueryFor(f *reference.ExtractedFields) Query {
	q := Query{
		DOI:   reference.NormalizeDOI(f.DOI),
		Title: f.Title,
		Year:  f.Year,
	}
	if len(f.FamilyNames) > 0 {
		q.FirstAuthor = f.FamilyNames[0]
	}
	return q
}
