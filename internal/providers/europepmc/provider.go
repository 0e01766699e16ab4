// Package europepmc adapts the Europe PMC REST API to the uniform Provider
// interface, per spec.md §4.5's "varies" bucket: search, citations, and
// references. Europe PMC requires no API key.
package europepmc

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
	defaultBaseURL = "https://www.ebi.ac.uk/europepmc/webservices/rest"
	providerID     = "europepmc"
	maxResults     = 1000
)

type searchResponse struct {
	HitCount int `json:"hitCount"`
	Result   struct {
		Result []hit `json:"result"`
	} `json:"resultList"`
}

type hit struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	PMID         string `json:"pmid"`
	DOI          string `json:"doi"`
	Title        string `json:"title"`
	AbstractText string `json:"abstractText"`
	AuthorString string `json:"authorString"`
	PubYear      string `json:"pubYear"`
	CitedByCount int    `json:"citedByCount"`
}

type citationsResponse struct {
	CitationList struct {
		Citation []citation `json:"citation"`
	} `json:"citationList"`
}

type citation struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	AuthorString string `json:"authorString"`
	Source       string `json:"source"`
	PubYear      string `json:"pubYear"`
}

// Provider implements search, citations, and references against Europe PMC.
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
		Base:    providers.NewBase(providerID, "Europe PMC", providers.CapSearch|providers.CapCitations),
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
	if maxN > maxResults {
		maxN = maxResults
	}

	params := url.Values{}
	q := query.Query
	if query.Year != "" {
		q += " AND PUB_YEAR:" + query.Year
	}
	params.Set("query", q)
	params.Set("format", "json")
	params.Set("pageSize", strconv.Itoa(maxN))

	var resp searchResponse
	reqURL := p.baseURL + "/search?" + params.Encode()
	if err := restutil.GetJSON(ctx, p.rt, providerID, "search", reqURL, jsonAccept(), &resp); err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.Result.Result))
	for _, h := range resp.Result.Result {
		papers = append(papers, convertHit(h))
	}
	return models.SearchResponse{
		Papers:       papers,
		TotalResults: resp.HitCount,
		Source:       providerID,
		Query:        query.Query,
		HasMore:      len(papers) < resp.HitCount,
	}, nil
}

func (p *Provider) GetCitations(ctx context.Context, req models.CitationRequest) (models.SearchResponse, error) {
	return p.fetchCitationList(ctx, req, "citations")
}

func (p *Provider) GetReferences(ctx context.Context, req models.CitationRequest) (models.SearchResponse, error) {
	return p.fetchCitationList(ctx, req, "references")
}

func (p *Provider) fetchCitationList(ctx context.Context, req models.CitationRequest, kind string) (models.SearchResponse, error) {
	maxN := req.MaxResults
	if maxN <= 0 {
		maxN = 20
	}
	reqURL := p.baseURL + "/MED/" + url.PathEscape(req.PaperID) + "/" + kind + "?format=json&pageSize=" + strconv.Itoa(maxN)

	var resp citationsResponse
	if err := restutil.GetJSON(ctx, p.rt, providerID, "get_"+kind, reqURL, jsonAccept(), &resp); err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.CitationList.Citation))
	for _, c := range resp.CitationList.Citation {
		b := models.NewBuilder(c.ID, c.Title, "https://europepmc.org/article/"+strings.ToUpper(c.Source)+"/"+c.ID, models.SourceEuropePMC).
			WithAuthorsJoined(c.AuthorString)
		if c.PubYear != "" {
			b = b.WithPublishedDate(c.PubYear)
		}
		papers = append(papers, b.Build())
	}
	return models.SearchResponse{Papers: papers, TotalResults: len(papers), Source: providerID, Query: req.PaperID}, nil
}

func jsonAccept() map[string]string {
	return map[string]string{"Accept": "application/json"}
}

func convertHit(h hit) models.Paper {
	id := h.ID
	if id == "" {
		id = h.PMID
	}
	link := "https://europepmc.org/article/" + strings.ToUpper(h.Source) + "/" + id
	b := models.NewBuilder(id, h.Title, link, models.SourceEuropePMC).
		WithAuthorsJoined(h.AuthorString).
		WithAbstract(h.AbstractText).
		WithDOI(h.DOI).
		WithCitations(uint64(h.CitedByCount))
	if h.PubYear != "" {
		b = b.WithPublishedDate(h.PubYear)
	}
	return b.Build()
}
