// Package base adapts the Bielefeld Academic Search Engine (BASE)'s JSON
// search API to the uniform Provider interface, per spec.md §4.5's
// "varies" bucket: search only, over its harvested-repository index.
package base

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
	defaultBaseURL = "https://api.base-search.net/cgi-bin/BaseHttpSearchInterface.fcgi"
	providerID     = "base"
)

type searchResponse struct {
	TotalResults int        `json:"total_results"`
	Documents    []document `json:"documents"`
}

type document struct {
	DocID    string   `json:"docid"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract"`
	Authors  []string `json:"authors"`
	Year     string   `json:"year"`
	DOI      string   `json:"doi"`
	Link     string   `json:"link"`
}

// Provider implements search against BASE.
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
		Base:    providers.NewBase(providerID, "BASE (Bielefeld Academic Search Engine)", providers.CapSearch),
		rt:      rt,
		baseURL: baseURL,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty BASE document id", "id", id)
	}
	return nil
}

func (p *Provider) Search(ctx context.Context, query models.SearchQuery) (models.SearchResponse, error) {
	maxN := query.MaxResults
	if maxN <= 0 {
		maxN = 10
	}
	params := url.Values{}
	params.Set("func", "PerformSearch")
	params.Set("query", query.Query)
	params.Set("hits", strconv.Itoa(maxN))
	params.Set("format", "json")

	var resp searchResponse
	reqURL := p.baseURL + "?" + params.Encode()
	if err := restutil.GetJSON(ctx, p.rt, providerID, "search", reqURL, map[string]string{"Accept": "application/json"}, &resp); err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		link := d.Link
		if link == "" && d.DOI != "" {
			link = "https://doi.org/" + d.DOI
		}
		b := models.NewBuilder(d.DocID, d.Title, link, models.SourceBASE).
			WithAuthors(d.Authors...).
			WithAbstract(d.Abstract).
			WithDOI(d.DOI)
		if d.Year != "" {
			b = b.WithPublishedDate(d.Year)
		}
		papers = append(papers, b.Build())
	}
	return models.SearchResponse{
		Papers: papers, TotalResults: resp.TotalResults, Source: providerID, Query: query.Query,
		HasMore: len(papers) < resp.TotalResults,
	}, nil
}
