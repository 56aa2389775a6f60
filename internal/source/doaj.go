package source

import (
	"context"
	"net/url"

	"github.com/matsen/refinery/internal/reference"
)

// DOAJBaseURL is the Directory of Open Access Journals API base URL.
const DOAJBaseURL = "https://doaj.org/api"

const doajRateLimit = 2.0

// DOAJ looks articles up in the Directory of Open Access Journals.
// DOAJ has no DOI resolution endpoint; everything goes through article
// search.
type DOAJ struct {
	*client
	baseURL string
}

// NewDOAJ creates a DOAJ adapter.
func NewDOAJ(opts ...Option) *DOAJ {
	o := applyOptions(DOAJBaseURL, opts)

	c := &DOAJ{client: newClient(doajRateLimit), baseURL: o.baseURL}
	if o.httpClient != nil {
		c.httpClient = o.httpClient
	}
	return c
}

func (d *DOAJ) Name() string { return NameDOAJ }

// doajArticle is the bibjson payload of a DOAJ search hit.
type doajArticle struct {
	BibJSON struct {
		Title    string `json:"title"`
		Year     string `json:"year"`
		Abstract string `json:"abstract"`
		Journal  struct {
			Title     string `json:"title"`
			Publisher string `json:"publisher"`
		} `json:"journal"`
		StartPage  string `json:"start_page"`
		EndPage    string `json:"end_page"`
		Author     []struct {
			Name string `json:"name"`
		} `json:"author"`
		Identifier []struct {
			Type string `json:"type"`
			ID   string `json:"id"`
		} `json:"identifier"`
		Link []struct {
			URL string `json:"url"`
		} `json:"link"`
	} `json:"bibjson"`
}

// Lookup searches DOAJ articles. A DOI query is searched verbatim
// (DOAJ indexes DOIs as identifiers); otherwise the bibliographic
// query is used.
func (d *DOAJ) Lookup(ctx context.Context, q Query) (*Candidate, error) {
	term := q.DOI
	if term == "" {
		term = bibliographicQuery(q)
	}
	if term == "" {
		return nil, nil
	}

	params := url.Values{"pageSize": {"1"}}
	endpoint := d.baseURL + "/search/articles/" + url.PathEscape(term)

	var resp struct {
		Results []doajArticle `json:"results"`
	}
	if err := d.getJSON(ctx, NameDOAJ, endpoint, params, &resp); err != nil {
		return notFoundToNil(nil, err)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return d.toCandidate(resp.Results[0]), nil
}

func (d *DOAJ) toCandidate(a doajArticle) *Candidate {
	bib := a.BibJSON

	fields := reference.ExtractedFields{
		Title:     bib.Title,
		Journal:   bib.Journal.Title,
		Publisher: bib.Journal.Publisher,
		Abstract:  bib.Abstract,
	}
	fields.SetValue(reference.FieldYear, bib.Year)

	if bib.StartPage != "" && bib.EndPage != "" {
		fields.Pages = bib.StartPage + "-" + bib.EndPage
	} else {
		fields.Pages = bib.StartPage
	}
	for _, id := range bib.Identifier {
		if id.Type == "doi" {
			fields.DOI = reference.NormalizeDOI(id.ID)
			break
		}
	}
	if len(bib.Link) > 0 {
		fields.URL = bib.Link[0].URL
	}
	for _, author := range bib.Author {
		given, family := splitDisplayName(author.Name)
		fields.FamilyNames = append(fields.FamilyNames, family)
		fields.GivenNames = append(fields.GivenNames, given)
	}
	fields.FullNames = fields.FullNamesFromParts()

	return &Candidate{Source: NameDOAJ, Fields: fields}
}
