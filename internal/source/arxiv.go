package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/matsen/refinery/internal/reference"
)

// ArXivBaseURL is the arXiv export API base URL.
const ArXivBaseURL = "http://export.arxiv.org/api"

// arXiv asks for no more than one request every three seconds.
const arXivRateLimit = 1.0 / 3.0

// ArXiv looks preprints up in the arXiv export API. arXiv speaks Atom,
// not JSON, and has no DOI lookup, so everything goes through query.
type ArXiv struct {
	*client
	baseURL string
}

// NewArXiv creates an arXiv adapter.
func NewArXiv(opts ...Option) *ArXiv {
	o := applyOptions(ArXivBaseURL, opts)

	c := &ArXiv{client: newClient(arXivRateLimit), baseURL: o.baseURL}
	if o.httpClient != nil {
		c.httpClient = o.httpClient
	}
	return c
}

func (a *ArXiv) Name() string { return NameArXiv }

// arXivFeed is the subset of the Atom response we consume.
type arXivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []arXivEntry `xml:"entry"`
}

type arXivEntry struct {
	ID         string `xml:"id"`
	Title      string `xml:"title"`
	Summary    string `xml:"summary"`
	Published  string `xml:"published"`
	DOI        string `xml:"doi"`
	JournalRef string `xml:"journal_ref"`
	Authors    []struct {
		Name string `xml:"name"`
	} `xml:"author"`
}

// Lookup searches arXiv for the work and takes the top hit.
func (a *ArXiv) Lookup(ctx context.Context, q Query) (*Candidate, error) {
	query := searchQueryFor(q)
	if query == "" {
		return nil, nil
	}

	params := url.Values{
		"search_query": {query},
		"max_results":  {"1"},
	}

	body, err := a.get(ctx, NameArXiv, a.baseURL+"/query", params)
	if err != nil {
		return notFoundToNil(nil, err)
	}

	var feed arXivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("arxiv: decoding feed: %w", ErrInvalidResponse)
	}
	if len(feed.Entries) == 0 {
		return nil, nil
	}
	return a.toCandidate(feed.Entries[0]), nil
}

// searchQueryFor builds an arXiv fielded query. A DOI queries the doi
// field; otherwise the title is quoted into a ti: clause.
func searchQueryFor(q Query) string {
	if q.DOI != "" {
		return "doi:" + strconv.Quote(q.DOI)
	}
	if q.Title == "" {
		return ""
	}
	return "ti:" + strconv.Quote(q.Title)
}

func (a *ArXiv) toCandidate(e arXivEntry) *Candidate {
	fields := reference.ExtractedFields{
		DOI:      reference.NormalizeDOI(e.DOI),
		Title:    collapseWhitespace(e.Title),
		Abstract: collapseWhitespace(e.Summary),
		URL:      e.ID,
		Journal:  e.JournalRef,
	}
	// published is RFC 3339; the year is the leading four digits.
	if len(e.Published) >= 4 {
		fields.SetValue(reference.FieldYear, e.Published[:4])
	}
	for _, author := range e.Authors {
		given, family := splitDisplayName(author.Name)
		fields.FamilyNames = append(fields.FamilyNames, family)
		fields.GivenNames = append(fields.GivenNames, given)
	}
	fields.FullNames = fields.FullNamesFromParts()

	return &Candidate{Source: NameArXiv, Fields: fields}
}

// collapseWhitespace flattens the newline-wrapped text arXiv returns
// inside Atom elements.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
