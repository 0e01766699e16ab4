// Package zenodo adapts the Zenodo REST API to the uniform Provider
// interface, per spec.md §4.5's "varies" bucket: search and DOI lookup.
// Zenodo requires no API key.
package zenodo

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
	defaultBaseURL = "https://zenodo.org/api"
	providerID     = "zenodo"
	maxResults     = 1000
)

type response struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []hit `json:"hits"`
	} `json:"hits"`
}

type hit struct {
	ID       int      `json:"id"`
	Metadata metadata `json:"metadata"`
	Links    struct {
		HTML string `json:"html"`
	} `json:"links"`
}

type metadata struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DOI             string    `json:"doi"`
	PublicationDate string    `json:"publication_date"`
	Creators        []creator `json:"creators"`
}

type creator struct {
	Name string `json:"name"`
}

// Provider implements search and DOI lookup against Zenodo.
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
		Base:    providers.NewBase(providerID, "Zenodo", providers.CapSearch|providers.CapDOILookup),
		rt:      rt,
		baseURL: baseURL,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty record id", "id", id)
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
	params.Set("q", query.Query)
	params.Set("size", strconv.Itoa(maxN))
	params.Set("type", "publication")

	var resp response
	if err := restutil.GetJSON(ctx, p.rt, providerID, "search", p.baseURL+"?"+params.Encode(), jsonAccept(), &resp); err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		papers = append(papers, convert(h))
	}

	return models.SearchResponse{
		Papers:       papers,
		TotalResults: resp.Hits.Total.Value,
		Source:       providerID,
		Query:        query.Query,
		HasMore:      len(papers) < resp.Hits.Total.Value,
	}, nil
}

func (p *Provider) GetByDOI(ctx context.Context, doi string) (models.Paper, error) {
	clean := models.CanonicalDOI(doi)

	params := url.Values{}
	params.Set("q", `doi:"`+clean+`"`)

	var resp response
	if err := restutil.GetJSON(ctx, p.rt, providerID, "get_by_doi", p.baseURL+"?"+params.Encode(), jsonAccept(), &resp); err != nil {
		return models.Paper{}, err
	}
	if len(resp.Hits.Hits) == 0 {
		return models.Paper{}, fedErrors.NewNotFoundError("paper", doi)
	}
	return convert(resp.Hits.Hits[0]), nil
}

func jsonAccept() map[string]string {
	return map[string]string{"Accept": "application/json"}
}

func convert(h hit) models.Paper {
	id := strconv.Itoa(h.ID)

	authors := make([]string, 0, len(h.Metadata.Creators))
	for _, c := range h.Metadata.Creators {
		if c.Name != "" {
			authors = append(authors, c.Name)
		}
	}

	link := h.Links.HTML
	if link == "" {
		if h.Metadata.DOI != "" {
			link = "https://doi.org/" + h.Metadata.DOI
		} else {
			link = "https://zenodo.org/record/" + id
		}
	}

	b := models.NewBuilder(id, h.Metadata.Title, link, models.SourceZenodo).
		WithAuthors(authors...).
		WithAbstract(h.Metadata.Description).
		WithDOI(h.Metadata.DOI)
	if h.Metadata.PublicationDate != "" {
		b = b.WithPublishedDate(h.Metadata.PublicationDate)
	}
	return b.Build()
}
