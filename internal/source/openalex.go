package source

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/matsen/refinery/internal/reference"
)

// OpenAlexBaseURL is the OpenAlex API base URL.
const OpenAlexBaseURL = "https://api.openalex.org"

const openAlexRateLimit = 10.0

// OpenAlex looks works up in the OpenAlex API.
type OpenAlex struct {
	*client
	baseURL string
}

// NewOpenAlex creates an OpenAlex adapter. An OPENALEX_MAILTO in the
// environment joins the polite pool via the mailto parameter.
func NewOpenAlex(opts ...Option) *OpenAlex {
	o := applyOptions(OpenAlexBaseURL, opts)

	c := &OpenAlex{client: newClient(openAlexRateLimit), baseURL: o.baseURL}
	if o.httpClient != nil {
		c.httpClient = o.httpClient
	}
	return c
}

func (o *OpenAlex) Name() string { return NameOpenAlex }

// openAlexWork is the subset of an OpenAlex work we consume.
type openAlexWork struct {
	DOI             string `json:"doi"`
	Title           string `json:"title"`
	PublicationYear int    `json:"publication_year"`
	Authorships     []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	} `json:"authorships"`
	PrimaryLocation struct {
		Source struct {
			DisplayName string `json:"display_name"`
		} `json:"source"`
		LandingPageURL string `json:"landing_page_url"`
	} `json:"primary_location"`
	Biblio struct {
		FirstPage string `json:"first_page"`
		LastPage  string `json:"last_page"`
	} `json:"biblio"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}

// Lookup resolves by DOI when present (the doi: ID form), otherwise
// searches and takes the top hit.
func (o *OpenAlex) Lookup(ctx context.Context, q Query) (*Candidate, error) {
	if q.DOI != "" {
		var work openAlexWork
		err := o.getJSON(ctx, NameOpenAlex, o.baseURL+"/works/doi:"+url.PathEscape(q.DOI), nil, &work)
		if err != nil {
			return notFoundToNil(nil, err)
		}
		return o.toCandidate(work), nil
	}
	if q.Title == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("search", bibliographicQuery(q))
	params.Set("per_page", "1")

	var resp struct {
		Results []openAlexWork `json:"results"`
	}
	if err := o.getJSON(ctx, NameOpenAlex, o.baseURL+"/works", params, &resp); err != nil {
		return notFoundToNil(nil, err)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return o.toCandidate(resp.Results[0]), nil
}

func (o *OpenAlex) toCandidate(w openAlexWork) *Candidate {
	fields := reference.ExtractedFields{
		DOI:      reference.NormalizeDOI(w.DOI),
		Title:    w.Title,
		Year:     w.PublicationYear,
		Journal:  w.PrimaryLocation.Source.DisplayName,
		URL:      w.PrimaryLocation.LandingPageURL,
		Abstract: invertedIndexToText(w.AbstractInvertedIndex),
	}
	if w.Biblio.FirstPage != "" && w.Biblio.LastPage != "" {
		fields.Pages = w.Biblio.FirstPage + "-" + w.Biblio.LastPage
	} else {
		fields.Pages = w.Biblio.FirstPage
	}
	for _, a := range w.Authorships {
		given, family := splitDisplayName(a.Author.DisplayName)
		fields.FamilyNames = append(fields.FamilyNames, family)
		fields.GivenNames = append(fields.GivenNames, given)
	}
	fields.FullNames = fields.FullNamesFromParts()

	return &Candidate{Source: NameOpenAlex, Fields: fields}
}

// invertedIndexToText reassembles an OpenAlex abstract_inverted_index
// into plain text by sorting words back into position order.
func invertedIndexToText(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var words []posWord
	for word, positions := range index {
		for _, pos := range positions {
			words = append(words, posWord{pos, word})
		}
	}
	sort.Slice(words, func(i, j int) bool { return words[i].pos < words[j].pos })

	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.word
	}
	return strings.Join(parts, " ")
}

// splitDisplayName splits "Given M. Family" into given and family
// parts. Single-token names are treated as a family name.
func splitDisplayName(name string) (given, family string) {
	parts := strings.Fields(strings.TrimSpace(name))
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}
