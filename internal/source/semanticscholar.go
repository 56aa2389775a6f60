package source

import (
	"context"
	"net/url"
	"os"

	"github.com/matsen/refinery/internal/reference"
)

// SemanticScholarBaseURL is the Semantic Scholar Academic Graph API base URL.
const SemanticScholarBaseURL = "https://api.semanticscholar.org/graph/v1"

// Unauthenticated S2 access is throttled hard; keep our own limiter low.
const semanticScholarRateLimit = 1.0

// s2Fields is the field list requested on every paper lookup.
const s2Fields = "title,abstract,authors,year,venue,externalIds,openAccessPdf,journal"

// SemanticScholar looks works up in the Semantic Scholar Academic Graph.
type SemanticScholar struct {
	*client
	baseURL string
}

// NewSemanticScholar creates a Semantic Scholar adapter. An
// S2_API_KEY in the environment is sent as the x-api-key header.
func NewSemanticScholar(opts ...Option) *SemanticScholar {
	o := applyOptions(SemanticScholarBaseURL, opts)

	c := &SemanticScholar{client: newClient(semanticScholarRateLimit), baseURL: o.baseURL}
	if o.httpClient != nil {
		c.httpClient = o.httpClient
	}

	key := o.apiKey
	if key == "" {
		key = os.Getenv("S2_API_KEY")
	}
	if key != "" {
		c.headers["x-api-key"] = key
	}
	return c
}

func (s *SemanticScholar) Name() string { return NameSemanticScholar }

// s2Paper is the subset of an S2 paper we consume.
type s2Paper struct {
	PaperID     string `json:"paperId"`
	Title       string `json:"title"`
	Abstract    string `json:"abstract"`
	Year        int    `json:"year"`
	Venue       string `json:"venue"`
	ExternalIDs struct {
		DOI string `json:"DOI"`
	} `json:"externalIds"`
	Journal struct {
		Name  string `json:"name"`
		Pages string `json:"pages"`
	} `json:"journal"`
	OpenAccessPDF struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

// Lookup resolves by DOI when present, otherwise falls back to paper
// search over the bibliographic query.
func (s *SemanticScholar) Lookup(ctx context.Context, q Query) (*Candidate, error) {
	if q.DOI != "" {
		var paper s2Paper
		params := url.Values{"fields": {s2Fields}}
		err := s.getJSON(ctx, NameSemanticScholar, s.baseURL+"/paper/DOI:"+url.PathEscape(q.DOI), params, &paper)
		if err != nil {
			return notFoundToNil(nil, err)
		}
		if paper.PaperID == "" {
			return nil, nil
		}
		return s.toCandidate(paper), nil
	}
	if q.Title == "" {
		return nil, nil
	}

	params := url.Values{
		"query":  {bibliographicQuery(q)},
		"fields": {s2Fields},
		"limit":  {"1"},
	}
	var resp struct {
		Data []s2Paper `json:"data"`
	}
	if err := s.getJSON(ctx, NameSemanticScholar, s.baseURL+"/paper/search", params, &resp); err != nil {
		return notFoundToNil(nil, err)
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return s.toCandidate(resp.Data[0]), nil
}

func (s *SemanticScholar) toCandidate(p s2Paper) *Candidate {
	journal := p.Journal.Name
	if journal == "" {
		journal = p.Venue
	}

	fields := reference.ExtractedFields{
		DOI:      reference.NormalizeDOI(p.ExternalIDs.DOI),
		Title:    p.Title,
		Abstract: p.Abstract,
		Year:     p.Year,
		Journal:  journal,
		Pages:    p.Journal.Pages,
		URL:      p.OpenAccessPDF.URL,
	}
	for _, a := range p.Authors {
		given, family := splitDisplayName(a.Name)
		fields.FamilyNames = append(fields.FamilyNames, family)
		fields.GivenNames = append(fields.GivenNames, given)
	}
	fields.FullNames = fields.FullNamesFromParts()

	return &Candidate{Source: NameSemanticScholar, Fields: fields}
}
