// Package worldwidescience adapts WorldWideScience.org's federated
// metasearch JSON endpoint to the uniform Provider interface, per
// spec.md §4.5's "varies" bucket: search only.
package worldwidescience

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
	defaultBaseURL = "https://worldwidescience.org/wws/api/search"
	providerID     = "worldwidescience"
)

type searchResponse struct {
	NumFound int   `json:"numFound"`
	Docs     []doc `json:"docs"`
}

type doc struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Snippet  string   `json:"snippet"`
	Authors  []string `json:"authors"`
	Date     string   `json:"date"`
	SourceDB string   `json:"source_db"`
	URL      string   `json:"url"`
}

// Provider implements search against WorldWideScience's federated index.
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
		Base:    providers.NewBase(providerID, "WorldWideScience", providers.CapSearch),
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
	params := url.Values{}
	params.Set("q", query.Query)
	params.Set("rows", strconv.Itoa(maxN))

	var resp searchResponse
	reqURL := p.baseURL + "?" + params.Encode()
	if err := restutil.GetJSON(ctx, p.rt, providerID, "search", reqURL, map[string]string{"Accept": "application/json"}, &resp); err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.Docs))
	for _, d := range resp.Docs {
		link := d.URL
		if link == "" {
			link = "https://worldwidescience.org/wws/public/doc/" + d.ID
		}
		b := models.NewBuilder(d.ID, d.Title, link, models.SourceWorldWideScience).
			WithAuthors(d.Authors...).
			WithAbstract(d.Snippet).
			WithExtra("source_db", d.SourceDB)
		if d.Date != "" {
			b = b.WithPublishedDate(d.Date)
		}
		papers = append(papers, b.Build())
	}
	return models.SearchResponse{
		Papers: papers, TotalResults: resp.NumFound, Source: providerID, Query: query.Query,
		HasMore: len(papers) < resp.NumFound,
	}, nil
}
