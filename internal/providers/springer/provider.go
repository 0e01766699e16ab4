// Package springer adapts the Springer Nature Metadata/Open Access API to
// the uniform Provider interface, per spec.md §4.5's "varies" bucket:
// search and DOI lookup. Requires an API key (api_keys.springer).
package springer

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
	defaultBaseURL = "https://api.springernature.com/metadata/json"
	providerID     = "springer"
)

type searchResponse struct {
	Result []struct {
		Total string `json:"total"`
	} `json:"result"`
	Records []record `json:"records"`
}

type record struct {
	DOI             string `json:"doi"`
	Title           string `json:"title"`
	Abstract        string `json:"abstract"`
	PublicationDate string `json:"publicationDate"`
	Creators        []struct {
		Creator string `json:"creator"`
	} `json:"creators"`
	URL []struct {
		Value string `json:"value"`
	} `json:"url"`
}

// Provider implements search and DOI lookup against Springer Nature.
type Provider struct {
	providers.Base
	rt      *providers.Runtime
	baseURL string
	apiKey  string
}

func New(rt *providers.Runtime, baseURL, apiKey string) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{
		Base:    providers.NewBase(providerID, "Springer Nature", providers.CapSearch|providers.CapDOILookup),
		rt:      rt,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty DOI", "id", id)
	}
	return nil
}

func (p *Provider) Search(ctx context.Context, query models.SearchQuery) (models.SearchResponse, error) {
	maxN := query.MaxResults
	if maxN <= 0 {
		maxN = 10
	}
	params := url.Values{}
	params.Set("q", query.Query)
	params.Set("p", strconv.Itoa(maxN))
	params.Set("api_key", p.apiKey)

	var resp searchResponse
	reqURL := p.baseURL + "?" + params.Encode()
	if err := restutil.GetJSON(ctx, p.rt, providerID, "search", reqURL, map[string]string{"Accept": "application/json"}, &resp); err != nil {
		return models.SearchResponse{}, err
	}

	total := 0
	if len(resp.Result) > 0 {
		total, _ = strconv.Atoi(resp.Result[0].Total)
	}
	papers := make([]models.Paper, 0, len(resp.Records))
	for _, r := range resp.Records {
		papers = append(papers, convert(r))
	}
	return models.SearchResponse{
		Papers: papers, TotalResults: total, Source: providerID, Query: query.Query,
		HasMore: len(papers) < total,
	}, nil
}

func (p *Provider) GetByDOI(ctx context.Context, doi string) (models.Paper, error) {
	clean := models.CanonicalDOI(doi)
	params := url.Values{}
	params.Set("q", "doi:"+clean)
	params.Set("api_key", p.apiKey)

	var resp searchResponse
	reqURL := p.baseURL + "?" + params.Encode()
	if err := restutil.GetJSON(ctx, p.rt, providerID, "get_by_doi", reqURL, map[string]string{"Accept": "application/json"}, &resp); err != nil {
		return models.Paper{}, err
	}
	if len(resp.Records) == 0 {
		return models.Paper{}, fedErrors.NewNotFoundError("paper", doi)
	}
	return convert(resp.Records[0]), nil
}

func convert(r record) models.Paper {
	authors := make([]string, 0, len(r.Creators))
	for _, c := range r.Creators {
		if c.Creator != "" {
			authors = append(authors, c.Creator)
		}
	}
	link := "https://doi.org/" + r.DOI
	if len(r.URL) > 0 && r.URL[0].Value != "" {
		link = r.URL[0].Value
	}
	b := models.NewBuilder(r.DOI, r.Title, link, models.SourceSpringer).
		WithAuthors(authors...).
		WithAbstract(r.Abstract).
		WithDOI(r.DOI)
	if r.PublicationDate != "" {
		b = b.WithPublishedDate(r.PublicationDate)
	}
	return b.Build()
}
