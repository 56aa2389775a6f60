package source

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/matsen/refinery/internal/reference"
)

// PubMedBaseURL is the NCBI E-utilities base URL.
const PubMedBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// NCBI allows 3 req/s without an API key; a lookup issues two requests.
const pubMedRateLimit = 3.0

// PubMed looks articles up via the NCBI E-utilities: an esearch for
// the PMID followed by an esummary for the record.
type PubMed struct {
	*client
	baseURL string
	apiKey  string
}

// NewPubMed creates a PubMed adapter. An NCBI_API_KEY in the
// environment raises the NCBI rate allowance.
func NewPubMed(opts ...Option) *PubMed {
	o := applyOptions(PubMedBaseURL, opts)

	c := &PubMed{client: newClient(pubMedRateLimit), baseURL: o.baseURL, apiKey: o.apiKey}
	if o.httpClient != nil {
		c.httpClient = o.httpClient
	}
	if c.apiKey == "" {
		c.apiKey = os.Getenv("NCBI_API_KEY")
	}
	return c
}

func (p *PubMed) Name() string { return NamePubMed }

// pubMedSummary is the subset of an esummary record we consume.
type pubMedSummary struct {
	Title           string `json:"title"`
	PubDate         string `json:"pubdate"`
	FullJournalName string `json:"fulljournalname"`
	Pages           string `json:"pages"`
	Authors         []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ArticleIDs []struct {
		IDType string `json:"idtype"`
		Value  string `json:"value"`
	} `json:"articleids"`
}

// Lookup searches PubMed for the work and fetches its summary.
func (p *PubMed) Lookup(ctx context.Context, q Query) (*Candidate, error) {
	term := q.DOI
	if term == "" {
		term = bibliographicQuery(q)
	}
	if term == "" {
		return nil, nil
	}

	pmid, err := p.search(ctx, term)
	if err != nil {
		return notFoundToNil(nil, err)
	}
	if pmid == "" {
		return nil, nil
	}

	summary, err := p.summary(ctx, pmid)
	if err != nil {
		return notFoundToNil(nil, err)
	}
	return p.toCandidate(summary), nil
}

func (p *PubMed) search(ctx context.Context, term string) (string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {term},
		"retmax":  {"1"},
		"retmode": {"json"},
	}
	if p.apiKey != "" {
		params.Set("api_key", p.apiKey)
	}

	var resp struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := p.getJSON(ctx, NamePubMed, p.baseURL+"/esearch.fcgi", params, &resp); err != nil {
		return "", err
	}
	if len(resp.ESearchResult.IDList) == 0 {
		return "", nil
	}
	return resp.ESearchResult.IDList[0], nil
}

func (p *PubMed) summary(ctx context.Context, pmid string) (pubMedSummary, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {pmid},
		"retmode": {"json"},
	}
	if p.apiKey != "" {
		params.Set("api_key", p.apiKey)
	}

	// esummary keys each record by its PMID, so decode in two steps.
	var resp struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := p.getJSON(ctx, NamePubMed, p.baseURL+"/esummary.fcgi", params, &resp); err != nil {
		return pubMedSummary{}, err
	}

	raw, ok := resp.Result[pmid]
	if !ok {
		return pubMedSummary{}, ErrNotFound
	}
	var summary pubMedSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return pubMedSummary{}, ErrInvalidResponse
	}
	return summary, nil
}

func (p *PubMed) toCandidate(s pubMedSummary) *Candidate {
	fields := reference.ExtractedFields{
		Title:   strings.TrimRight(s.Title, "."),
		Journal: s.FullJournalName,
		Pages:   s.Pages,
	}
	// pubdate looks like "2020 Mar 15" or "2020".
	if parts := strings.Fields(s.PubDate); len(parts) > 0 {
		if y, err := strconv.Atoi(parts[0]); err == nil {
			fields.Year = y
		}
	}
	for _, id := range s.ArticleIDs {
		if id.IDType == "doi" {
			fields.DOI = reference.NormalizeDOI(id.Value)
			break
		}
	}
	for _, a := range s.Authors {
		// PubMed names come as "Family Initials" ("Smith AB").
		parts := strings.Fields(a.Name)
		if len(parts) == 0 {
			continue
		}
		family := parts[0]
		given := strings.Join(parts[1:], " ")
		fields.FamilyNames = append(fields.FamilyNames, family)
		fields.GivenNames = append(fields.GivenNames, given)
	}
	fields.FullNames = fields.FullNamesFromParts()

	return &Candidate{Source: NamePubMed, Fields: fields}
}
