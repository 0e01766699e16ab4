// Package acm adapts the ACM Digital Library's public search API to the
// uniform Provider interface, per spec.md §4.5's "varies" bucket: search
// and DOI lookup.
package acm

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
	defaultBaseURL = "https://dl.acm.org/action/doSearch"
	providerID     = "acm"
)

type searchResponse struct {
	TotalResults int        `json:"totalResults"`
	Items        []document `json:"items"`
}

type document struct {
	DOI      string   `json:"doi"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract"`
	Authors  []string `json:"authors"`
	Year     string   `json:"year"`
}

// Provider implements search and DOI lookup against ACM.
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
		Base:    providers.NewBase(providerID, "ACM Digital Library", providers.CapSearch|providers.CapDOILookup),
		rt:      rt,
		baseURL: baseURL,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty ACM DOI", "id", id)
	}
	return nil
}

func (p *Provider) Search(ctx context.Context, query models.SearchQuery) (models.SearchResponse, error) {
	maxN := query.MaxResults
	if maxN <= 0 {
		maxN = 10
	}

	params := url.Values{}
	params.Set("AllField", query.Query)
	params.Set("pageSize", strconv.Itoa(maxN))

	var resp searchResponse
	reqURL := p.baseURL + "?" + params.Encode()
	if err := restutil.GetJSON(ctx, p.rt, providerID, "search", reqURL, map[string]string{"Accept": "application/json"}, &resp); err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.Items))
	for _, d := range resp.Items {
		papers = append(papers, convert(d))
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
	var d document
	reqURL := p.baseURL + "?AllField=doi%3A" + url.QueryEscape(clean)
	var resp searchResponse
	if err := restutil.GetJSON(ctx, p.rt, providerID, "get_by_doi", reqURL, map[string]string{"Accept": "application/json"}, &resp); err != nil {
		return models.Paper{}, err
	}
	if len(resp.Items) == 0 {
		return models.Paper{}, fedErrors.NewNotFoundError("paper", doi)
	}
	d = resp.Items[0]
	return convert(d), nil
}

func convert(d document) models.Paper {
	link := "https://dl.acm.org/doi/" + d.DOI
	b := models.NewBuilder(d.DOI, d.Title, link, models.SourceACM).
		WithAuthors(d.Authors...).
		WithAbstract(d.Abstract).
		WithDOI(d.DOI)
	if d.Year != "" {
		b = b.WithPublishedDate(d.Year)
	}
	return b.Build()
}
