// Package jstor adapts JSTOR's public search JSON endpoint to the uniform
// Provider interface, per spec.md §4.5's "varies" bucket: search only.
// Per spec.md §9 Open Question 2, a malformed response is surfaced as a
// Parse error (permanent) rather than silently returning empty results.
package jstor

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
	defaultBaseURL = "https://www.jstor.org/api/search"
	providerID     = "jstor"
)

type searchResponse struct {
	Total int    `json:"total"`
	Items []item `json:"items"`
}

type item struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Authors []string `json:"authors"`
	Year    string   `json:"year"`
	DOI     string   `json:"doi"`
}

// Provider implements search against JSTOR's public search JSON endpoint.
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
		Base:    providers.NewBase(providerID, "JSTOR", providers.CapSearch),
		rt:      rt,
		baseURL: baseURL,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty JSTOR id", "id", id)
	}
	return nil
}

func (p *Provider) Search(ctx context.Context, query models.SearchQuery) (models.SearchResponse, error) {
	maxN := query.MaxResults
	if maxN <= 0 {
		maxN = 10
	}

	params := url.Values{}
	params.Set("Query", query.Query)
	params.Set("pagesize", strconv.Itoa(maxN))

	var resp searchResponse
	reqURL := p.baseURL + "?" + params.Encode()
	if err := restutil.GetJSON(ctx, p.rt, providerID, "search", reqURL, map[string]string{"Accept": "application/json"}, &resp); err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.Items))
	for _, it := range resp.Items {
		link := "https://www.jstor.org/stable/" + it.ID
		b := models.NewBuilder(it.ID, it.Title, link, models.SourceJSTOR).
			WithAuthors(it.Authors...).
			WithAbstract(it.Summary).
			WithDOI(it.DOI)
		if it.Year != "" {
			b = b.WithPublishedDate(it.Year)
		}
		papers = append(papers, b.Build())
	}
	return models.SearchResponse{
		Papers:       papers,
		TotalResults: resp.Total,
		Source:       providerID,
		Query:        query.Query,
		HasMore:      len(papers) < resp.Total,
	}, nil
}
