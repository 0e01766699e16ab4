// Package connectedpapers adapts the Connected Papers graph API to the
// uniform Provider interface, per spec.md §4.5's "varies" bucket: search
// and related-works lookup (its core feature is the citation-graph
// neighborhood around a paper).
//
// Per spec.md §9 Open Question 1, Connected Papers is one of the two named
// adapters that are known to swallow 403/429 as an empty successful
// response upstream; this adapter deliberately does NOT trust a 2xx/empty
// body and instead treats HTTP 403 the same as 429 — a transient error the
// retry executor and circuit breaker should see, not a quiet empty result.
package connectedpapers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
	"research-master/internal/providers"
)

const (
	defaultBaseURL = "https://www.connectedpapers.com/api"
	providerID     = "connected_papers"
)

type searchResponse struct {
	Total   int      `json:"total"`
	Results []result `json:"results"`
}

type result struct {
	PaperID string   `json:"paper_id"`
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Year    string   `json:"year"`
	DOI     string   `json:"doi"`
}

type graphResponse struct {
	Nodes []result `json:"nodes"`
}

// Provider implements search and related-works lookup against Connected Papers.
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
		Base:    providers.NewBase(providerID, "Connected Papers", providers.CapSearch|providers.CapCitations),
		rt:      rt,
		baseURL: baseURL,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty paper id", "id", id)
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
	if err := p.getJSON(ctx, "search", p.baseURL+"/search?"+params.Encode(), &resp); err != nil {
		return models.SearchResponse{}, err
	}
	papers := make([]models.Paper, 0, len(resp.Results))
	for _, r := range resp.Results {
		papers = append(papers, convert(r))
	}
	return models.SearchResponse{
		Papers: papers, TotalResults: resp.Total, Source: providerID, Query: query.Query,
		HasMore: len(papers) < resp.Total,
	}, nil
}

func (p *Provider) GetRelated(ctx context.Context, req models.CitationRequest) (models.SearchResponse, error) {
	maxN := req.MaxResults
	if maxN <= 0 {
		maxN = 20
	}
	var resp graphResponse
	reqURL := p.baseURL + "/graph/" + url.PathEscape(req.PaperID)
	if err := p.getJSON(ctx, "get_related", reqURL, &resp); err != nil {
		return models.SearchResponse{}, err
	}
	papers := make([]models.Paper, 0, len(resp.Nodes))
	for i, n := range resp.Nodes {
		if i >= maxN {
			break
		}
		papers = append(papers, convert(n))
	}
	return models.SearchResponse{Papers: papers, TotalResults: len(papers), Source: providerID, Query: req.PaperID}, nil
}

// getJSON mirrors restutil.GetJSON but reclassifies a 403 response as the
// same transient RateLimit error a 429 would produce, per the Open
// Question 1 decision documented above.
func (p *Provider) getJSON(ctx context.Context, operation, reqURL string, out interface{}) error {
	var body []byte
	err := p.rt.Call(ctx, operation, func() error {
		resp, callErr := p.rt.HTTP.Get(ctx, reqURL, map[string]string{"Accept": "application/json"})
		if callErr != nil {
			return callErr
		}
		if resp.StatusCode == http.StatusForbidden {
			resp.Body.Close()
			return fedErrors.NewError(fedErrors.KindRateLimit, "RATE_LIMIT", "upstream returned 403, treated as rate limited").
				WithComponent(providerID).
				Retryable(true).
				Build()
		}
		b, readErr := providers.ReadClassified(providerID, resp)
		if readErr != nil {
			return readErr
		}
		body = b
		return nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fedErrors.NewParseError(providerID, "malformed response", err)
	}
	return nil
}

func convert(r result) models.Paper {
	link := "https://www.connectedpapers.com/main/" + r.PaperID
	b := models.NewBuilder(r.PaperID, r.Title, link, models.SourceConnectedPapers).
		WithAuthors(r.Authors...).
		WithDOI(r.DOI)
	if r.Year != "" {
		b = b.WithPublishedDate(r.Year)
	}
	return b.Build()
}
