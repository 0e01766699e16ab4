// Package mdpi adapts the MDPI REST API to the uniform Provider interface,
// per spec.md §4.5's "varies" bucket: search and DOI lookup. MDPI requires
// no API key for basic search.
package mdpi

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
	defaultBaseURL = "https://api.mdpi.com/v1"
	providerID     = "mdpi"
	maxResults     = 100
)

type response struct {
	TotalResults int    `json:"total_results"`
	Items        []item `json:"items"`
}

type item struct {
	ID              string   `json:"id"`
	DOI             string   `json:"doi"`
	Title           string   `json:"title"`
	Abstract        string   `json:"abstract"`
	PublicationDate string   `json:"publication_date"`
	Authors         []author `json:"authors"`
}

type author struct {
	Name string `json:"name"`
}

// Provider implements search and DOI lookup against MDPI.
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
		Base:    providers.NewBase(providerID, "MDPI", providers.CapSearch|providers.CapDOILookup),
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
	params.Set("page_size", strconv.Itoa(maxN))

	var resp response
	if err := restutil.GetJSON(ctx, p.rt, providerID, "search", p.baseURL+"?"+params.Encode(), jsonAccept(), &resp); err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.Items))
	for _, it := range resp.Items {
		papers = append(papers, convert(it))
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

	var it item
	if err := restutil.GetJSON(ctx, p.rt, providerID, "get_by_doi", p.baseURL+"/doi/"+url.PathEscape(clean), jsonAccept(), &it); err != nil {
		return models.Paper{}, err
	}
	if it.Title == "" && it.DOI == "" {
		return models.Paper{}, fedErrors.NewNotFoundError("paper", doi)
	}
	return convert(it), nil
}

func jsonAccept() map[string]string {
	return map[string]string{"Accept": "application/json"}
}

func convert(it item) models.Paper {
	id := it.DOI
	if id == "" {
		id = it.ID
	}

	authors := make([]string, 0, len(it.Authors))
	for _, a := range it.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	link := "https://www.mdpi.com/" + it.ID
	if it.DOI != "" {
		link = "https://doi.org/" + it.DOI
	}

	b := models.NewBuilder(id, it.Title, link, models.SourceMDPI).
		WithAuthors(authors...).
		WithAbstract(it.Abstract).
		WithDOI(it.DOI)
	if it.PublicationDate != "" {
		b = b.WithPublishedDate(it.PublicationDate)
	}
	return b.Build()
}
