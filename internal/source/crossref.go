package source

import (
	"context"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/matsen/refinery/internal/reference"
)

// CrossRefBaseURL is the CrossRef REST API base URL.
const CrossRefBaseURL = "https://api.crossref.org"

// crossRefRateLimit respects the polite pool guidance of 50 req/s;
// we stay well under it.
const crossRefRateLimit = 10.0

// CrossRef looks works up in the CrossRef REST API, by DOI when
// available and by bibliographic search otherwise.
type CrossRef struct {
	*client
	baseURL string
}

// NewCrossRef creates a CrossRef adapter. A CROSSREF_API_TOKEN in the
// environment is sent as a bearer token for the polite pool.
func NewCrossRef(opts ...Option) *CrossRef {
	o := applyOptions(CrossRefBaseURL, opts)

	c := &CrossRef{client: newClient(crossRefRateLimit), baseURL: o.baseURL}
	if o.httpClient != nil {
		c.httpClient = o.httpClient
	}

	key := o.apiKey
	if key == "" {
		key = os.Getenv("CROSSREF_API_TOKEN")
	}
	if key != "" {
		c.headers["Authorization"] = "Bearer " + key
	}
	return c
}

func (c *CrossRef) Name() string { return NameCrossRef }

// crossRefWork is the subset of the CrossRef work message we consume.
type crossRefWork struct {
	DOI            string     `json:"DOI"`
	Title          []string   `json:"title"`
	ContainerTitle []string   `json:"container-title"`
	Page           string     `json:"page"`
	Publisher      string     `json:"publisher"`
	URL            string     `json:"URL"`
	Abstract       string     `json:"abstract"`
	Author         []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"author"`
	PublishedPrint  crossRefDate `json:"published-print"`
	PublishedOnline crossRefDate `json:"published-online"`
}

type crossRefDate struct {
	DateParts [][]int `json:"date-parts"`
}

func (d crossRefDate) year() int {
	if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 {
		return d.DateParts[0][0]
	}
	return 0
}

// Lookup resolves by DOI when present, otherwise searches by
// bibliographic query and takes the top-relevance hit.
func (c *CrossRef) Lookup(ctx context.Context, q Query) (*Candidate, error) {
	if q.DOI != "" {
		return notFoundToNil(c.byDOI(ctx, q.DOI))
	}
	if q.Title == "" {
		return nil, nil
	}
	return notFoundToNil(c.search(ctx, q))
}

func (c *CrossRef) byDOI(ctx context.Context, doi string) (*Candidate, error) {
	var resp struct {
		Message crossRefWork `json:"message"`
	}
	if err := c.getJSON(ctx, NameCrossRef, c.baseURL+"/works/"+url.PathEscape(doi), nil, &resp); err != nil {
		return nil, err
	}
	return c.toCandidate(resp.Message), nil
}

func (c *CrossRef) search(ctx context.Context, q Query) (*Candidate, error) {
	params := url.Values{}
	params.Set("query.bibliographic", bibliographicQuery(q))
	params.Set("rows", "1")
	params.Set("sort", "relevance")

	var resp struct {
		Message struct {
			Items []crossRefWork `json:"items"`
		} `json:"message"`
	}
	if err := c.getJSON(ctx, NameCrossRef, c.baseURL+"/works", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Message.Items) == 0 {
		return nil, nil
	}
	return c.toCandidate(resp.Message.Items[0]), nil
}

func (c *CrossRef) toCandidate(w crossRefWork) *Candidate {
	fields := reference.ExtractedFields{
		DOI:       reference.NormalizeDOI(w.DOI),
		Pages:     w.Page,
		Publisher: w.Publisher,
		URL:       w.URL,
		Abstract:  stripJATS(w.Abstract),
	}
	if len(w.Title) > 0 {
		fields.Title = w.Title[0]
	}
	if len(w.ContainerTitle) > 0 {
		fields.Journal = w.ContainerTitle[0]
	}
	if y := w.PublishedPrint.year(); y != 0 {
		fields.Year = y
	} else {
		fields.Year = w.PublishedOnline.year()
	}
	for _, a := range w.Author {
		fields.FamilyNames = append(fields.FamilyNames, a.Family)
		fields.GivenNames = append(fields.GivenNames, a.Given)
	}
	fields.FullNames = fields.FullNamesFromParts()

	return &Candidate{Source: NameCrossRef, Fields: fields}
}

// bibliographicQuery assembles a free-text query from the strongest
// available keys: title, first author, year.
func bibliographicQuery(q Query) string {
	parts := []string{q.Title}
	if q.FirstAuthor != "" {
		parts = append(parts, q.FirstAuthor)
	}
	if q.Year != 0 {
		parts = append(parts, strconv.Itoa(q.Year))
	}
	return strings.Join(parts, " ")
}

// stripJATS removes the JATS markup CrossRef embeds in abstracts.
func stripJATS(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(strings.Join(strings.Fields(b.String()), " "))
}
