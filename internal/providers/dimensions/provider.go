// Package dimensions adapts the Dimensions GraphQL API (app.dimensions.ai)
// to the uniform Provider interface, per spec.md §4.5's "varies" bucket:
// search and citations, the one named adapter in the table that speaks
// GraphQL rather than plain REST/JSON.
//
// Per spec.md §9 Open Question 1, Dimensions is the second named adapter
// known to swallow 403/429 as an empty successful response upstream; like
// connectedpapers, this adapter reclassifies a 403 as the same transient
// RateLimit error a 429 would produce rather than trusting an empty body.
package dimensions

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
	"research-master/internal/providers"
)

const (
	defaultBaseURL = "https://app.dimensions.ai/api/dsl/v2"
	providerID     = "dimensions"
)

type graphQLRequest struct {
	Query string `json:"query"`
}

type searchResult struct {
	Data struct {
		Publications []publication `json:"publications"`
		Stats        struct {
			TotalCount int `json:"total_count"`
		} `json:"_stats"`
	} `json:"data"`
}

type publication struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Abstract  string   `json:"abstract"`
	Authors   []author `json:"authors"`
	Year      int      `json:"year"`
	DOI       string   `json:"doi"`
	Citations int      `json:"times_cited"`
}

type author struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Provider implements search and citations against Dimensions via GraphQL.
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
		Base:    providers.NewBase(providerID, "Dimensions", providers.CapSearch|providers.CapCitations),
		rt:      rt,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty publication id", "id", id)
	}
	return nil
}

func (p *Provider) Search(ctx context.Context, query models.SearchQuery) (models.SearchResponse, error) {
	maxN := query.MaxResults
	if maxN <= 0 {
		maxN = 10
	}
	gql := `search publications in title_abstract_only for "` + escapeGQL(query.Query) + `" return publications[id+title+abstract+authors+year+doi+times_cited] limit ` + strconv.Itoa(maxN)

	var resp searchResult
	if err := p.post(ctx, "search", gql, &resp); err != nil {
		return models.SearchResponse{}, err
	}
	papers := make([]models.Paper, 0, len(resp.Data.Publications))
	for _, pub := range resp.Data.Publications {
		papers = append(papers, convert(pub))
	}
	return models.SearchResponse{
		Papers: papers, TotalResults: resp.Data.Stats.TotalCount, Source: providerID, Query: query.Query,
		HasMore: len(papers) < resp.Data.Stats.TotalCount,
	}, nil
}

func (p *Provider) GetCitations(ctx context.Context, req models.CitationRequest) (models.SearchResponse, error) {
	maxN := req.MaxResults
	if maxN <= 0 {
		maxN = 20
	}
	gql := `search publications where id = "` + escapeGQL(req.PaperID) + `" return citing_publications[id+title+abstract+authors+year+doi+times_cited] limit ` + strconv.Itoa(maxN)

	var resp struct {
		Data struct {
			CitingPublications []publication `json:"citing_publications"`
		} `json:"data"`
	}
	if err := p.post(ctx, "get_citations", gql, &resp); err != nil {
		return models.SearchResponse{}, err
	}
	papers := make([]models.Paper, 0, len(resp.Data.CitingPublications))
	for _, pub := range resp.Data.CitingPublications {
		papers = append(papers, convert(pub))
	}
	return models.SearchResponse{Papers: papers, TotalResults: len(papers), Source: providerID, Query: req.PaperID}, nil
}

func (p *Provider) post(ctx context.Context, operation, gqlQuery string, out interface{}) error {
	body, err := json.Marshal(graphQLRequest{Query: gqlQuery})
	if err != nil {
		return fedErrors.NewInvalidRequestError("failed to encode GraphQL query", "query", gqlQuery)
	}

	headers := map[string]string{"Accept": "application/json"}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}

	var respBody []byte
	callErr := p.rt.Call(ctx, operation, func() error {
		resp, httpErr := p.rt.HTTP.Post(ctx, p.baseURL, headers, body)
		if httpErr != nil {
			return httpErr
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
		respBody = b
		return nil
	})
	if callErr != nil {
		return callErr
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fedErrors.NewParseError(providerID, "malformed GraphQL response", err)
	}
	return nil
}

func escapeGQL(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func convert(pub publication) models.Paper {
	authors := make([]string, 0, len(pub.Authors))
	for _, a := range pub.Authors {
		name := strings.TrimSpace(a.FirstName + " " + a.LastName)
		if name != "" {
			authors = append(authors, name)
		}
	}
	link := "https://app.dimensions.ai/details/publication/" + pub.ID
	b := models.NewBuilder(pub.ID, pub.Title, link, models.SourceDimensions).
		WithAuthors(authors...).
		WithAbstract(pub.Abstract).
		WithDOI(pub.DOI).
		WithCitations(uint64(pub.Citations))
	if pub.Year != 0 {
		b = b.WithPublishedDate(strconv.Itoa(pub.Year))
	}
	return b.Build()
}
