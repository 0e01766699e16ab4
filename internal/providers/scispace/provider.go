// Package scispace adapts the SciSpace (typeset.io) public search API to
// the uniform Provider interface, per spec.md §4.5's "varies" bucket:
// search only.
package scispace

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
	defaultBaseURL = "https://typeset.io/api/search"
	providerID     = "scispace"
)

type searchResponse struct {
	TotalCount int     `json:"total_count"`
	Papers     []paper `json:"papers"`
}

type paper struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Abstract      string   `json:"abstract"`
	Authors       []string `json:"authors"`
	PublishYear   string   `json:"publish_year"`
	DOI           string   `json:"doi"`
	PDFURL        string   `json:"pdf_url"`
	CitationCount int      `json:"citation_count"`
}

// Provider implements search against SciSpace.
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
		Base:    providers.NewBase(providerID, "SciSpace", providers.CapSearch),
		rt:      rt,
		baseURL: baseURL,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty SciSpace id", "id", id)
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
	params.Set("limit", strconv.Itoa(maxN))

	var resp searchResponse
	reqURL := p.baseURL + "?" + params.Encode()
	if err := restutil.GetJSON(ctx, p.rt, providerID, "search", reqURL, map[string]string{"Accept": "application/json"}, &resp); err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.Papers))
	for _, pp := range resp.Papers {
		link := "https://typeset.io/papers/" + pp.ID
		b := models.NewBuilder(pp.ID, pp.Title, link, models.SourceSciSpace).
			WithAuthors(pp.Authors...).
			WithAbstract(pp.Abstract).
			WithDOI(pp.DOI).
			WithCitations(uint64(pp.CitationCount))
		if pp.PublishYear != "" {
			b = b.WithPublishedDate(pp.PublishYear)
		}
		if pp.PDFURL != "" {
			b = b.WithPDFURL(pp.PDFURL)
		}
		papers = append(papers, b.Build())
	}
	return models.SearchResponse{
		Papers:       papers,
		TotalResults: resp.TotalCount,
		Source:       providerID,
		Query:        query.Query,
		HasMore:      len(papers) < resp.TotalCount,
	}, nil
}
