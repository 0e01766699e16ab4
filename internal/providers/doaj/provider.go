// Package doaj adapts the Directory of Open Access Journals REST API to
// the uniform Provider interface, per spec.md §4.5's "varies" bucket:
// search and DOI lookup. DOAJ requires no API key.
package doaj

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
	"research-master/internal/providers"
	"research-master/internal/providers/restutil"
)

const (
	defaultBaseURL = "https://doaj.org/api/v2/search/articles"
	providerID     = "doaj"
	maxResults     = 100
)

type response struct {
	TotalResults int       `json:"total_results"`
	Results      []article `json:"results"`
}

type article struct {
	ID              string   `json:"id"`
	DOI             string   `json:"doi"`
	Title           string   `json:"title"`
	Abstract        string   `json:"abstract"`
	PublicationYear string   `json:"publication_year"`
	Authors         []author `json:"authors"`
}

type author struct {
	Name string `json:"name"`
}

// Provider implements search and DOI lookup against DOAJ.
type Provider struct {
	providers.Base
	rt      *providers.Runtime
	baseURL string
}

func New(rt *providers.Runtime, baseURL string) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{
		Base:    providers.NewBase(providerID, "DOAJ", providers.CapSearch|providers.CapDOILookup),
		rt:      rt,
		baseURL: baseURL,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty id", "id", id)
	}
	return nil
}

func (p *Provider) Search(ctx context.Context, query models.SearchQuery) (models.SearchResponse, error) {
	maxN := query.MaxResults
	if maxN <= 0 {
		maxN = 10
	}
	if maxN > maxResults {
		maxN = maxResults
	}

	params := url.Values{}
	params.Set("query", query.Query)
	params.Set("pageSize", strconv.Itoa(maxN))

	var resp response
	if err := restutil.GetJSON(ctx, p.rt, providerID, "search", p.baseURL+"?"+params.Encode(), jsonAccept(), &resp); err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.Results))
	for _, a := range resp.Results {
		papers = append(papers, convert(a))
	}

	return models.SearchResponse{
		Papers:       papers,
		TotalResults: resp.TotalResults,
		Source:       providerID,
		Query:        query.Query,
		HasMore:      len(papers) < resp.TotalResults,
	}, nil
}

func (p *Provider) GetByDOI(ctx context.Context, doi string) (models.Paper, error) {
	clean := models.CanonicalDOI(doi)

	var a article
	if err := restutil.GetJSON(ctx, p.rt, providerID, "get_by_doi", p.baseURL+"/doi/"+url.PathEscape(clean), jsonAccept(), &a); err != nil {
		return models.Paper{}, err
	}
	if a.ID == "" {
		return models.Paper{}, fedErrors.NewNotFoundError("paper", doi)
	}
	return convert(a), nil
}

func jsonAccept() map[string]string {
	return map[string]string{"Accept": "application/json"}
}

func convert(a article) models.Paper {
	link := "https://doaj.org/article/" + a.ID
	if a.DOI != "" {
		link = "https://doi.org/" + a.DOI
	}

	authors := make([]string, 0, len(a.Authors))
	for _, au := range a.Authors {
		if au.Name != "" {
			authors = append(authors, au.Name)
		}
	}

	b := models.NewBuilder(a.ID, a.Title, link, models.SourceDOAJ).
		WithAuthors(authors...).
		WithAbstract(a.Abstract).
		WithDOI(a.DOI)
	if a.PublicationYear != "" {
		b = b.WithPublishedDate(a.PublicationYear)
	}
	return b.Build()
}
