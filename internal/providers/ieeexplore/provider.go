// Package ieeexplore adapts the IEEE Xplore Metadata API to the uniform
// Provider interface, per spec.md §4.5's "varies" bucket: search and DOI
// lookup. Requires an API key (api_keys.ieee_xplore).
package ieeexplore

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
	defaultBaseURL = "https://ieeexploreapi.ieee.org/api/v1/search/articles"
	providerID     = "ieee_xplore"
)

type searchResponse struct {
	TotalRecords int       `json:"total_records"`
	Articles     []article `json:"articles"`
}

type article struct {
	ArticleNumber   string `json:"article_number"`
	DOI             string `json:"doi"`
	Title           string `json:"title"`
	Abstract        string `json:"abstract"`
	PublicationDate string `json:"publication_date"`
	Authors         struct {
		Authors []struct {
			FullName string `json:"full_name"`
		} `json:"authors"`
	} `json:"authors"`
	PDFURL      string `json:"pdf_url"`
	HTMLURL     string `json:"html_url"`
	CitingCount int    `json:"citing_paper_count"`
}

// Provider implements search and DOI lookup against IEEE Xplore.
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
		Base:    providers.NewBase(providerID, "IEEE Xplore", providers.CapSearch|providers.CapDOILookup),
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
	params.Set("querytext", query.Query)
	params.Set("max_records", strconv.Itoa(maxN))
	params.Set("apikey", p.apiKey)

	var resp searchResponse
	reqURL := p.baseURL + "?" + params.Encode()
	if err := restutil.GetJSON(ctx, p.rt, providerID, "search", reqURL, map[string]string{"Accept": "application/json"}, &resp); err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		papers = append(papers, convert(a))
	}
	return models.SearchResponse{
		Papers: papers, TotalResults: resp.TotalRecords, Source: providerID, Query: query.Query,
		HasMore: len(papers) < resp.TotalRecords,
	}, nil
}

func (p *Provider) GetByDOI(ctx context.Context, doi string) (models.Paper, error) {
	clean := models.CanonicalDOI(doi)
	params := url.Values{}
	params.Set("doi", clean)
	params.Set("apikey", p.apiKey)

	var resp searchResponse
	reqURL := p.baseURL + "?" + params.Encode()
	if err := restutil.GetJSON(ctx, p.rt, providerID, "get_by_doi", reqURL, map[string]string{"Accept": "application/json"}, &resp); err != nil {
		return models.Paper{}, err
	}
	if len(resp.Articles) == 0 {
		return models.Paper{}, fedErrors.NewNotFoundError("paper", doi)
	}
	return convert(resp.Articles[0]), nil
}

func convert(a article) models.Paper {
	authors := make([]string, 0, len(a.Authors.Authors))
	for _, au := range a.Authors.Authors {
		if au.FullName != "" {
			authors = append(authors, au.FullName)
		}
	}
	id := a.ArticleNumber
	link := a.HTMLURL
	if link == "" {
		link = "https://ieeexplore.ieee.org/document/" + id
	}
	b := models.NewBuilder(id, a.Title, link, models.SourceIEEEXplore).
		WithAuthors(authors...).
		WithAbstract(a.Abstract).
		WithDOI(a.DOI).
		WithCitations(uint64(a.CitingCount))
	if a.PublicationDate != "" {
		b = b.WithPublishedDate(a.PublicationDate)
	}
	if a.PDFURL != "" {
		b = b.WithPDFURL(a.PDFURL)
	}
	return b.Build()
}
