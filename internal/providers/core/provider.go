// Package core adapts the CORE REST API (api.core.ac.uk) to the uniform
// Provider interface, per spec.md §4.5's "varies" bucket: search and
// download of open-access full text aggregated from repositories worldwide.
// Requires an API key via CORE_API_KEY (spec.md §6).
package core

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
	defaultBaseURL = "https://api.core.ac.uk/v3"
	providerID     = "core"
	maxResults     = 1000
)

type searchResponse struct {
	TotalHits int      `json:"totalHits"`
	Results   []result `json:"results"`
}

type result struct {
	ID            int      `json:"id"`
	DOI           string   `json:"doi"`
	Title         string   `json:"title"`
	Abstract      string   `json:"abstract"`
	PublishedDate string   `json:"publishedDate"`
	Authors       []author `json:"authors"`
	DownloadURL   string   `json:"downloadUrl"`
}

type author struct {
	Name string `json:"name"`
}

// Provider implements search and download against CORE.
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
		Base:    providers.NewBase(providerID, "CORE", providers.CapSearch|providers.CapDownload),
		rt:      rt,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty CORE id", "id", id)
	}
	return nil
}

func (p *Provider) headers() map[string]string {
	h := map[string]string{"Accept": "application/json"}
	if p.apiKey != "" {
		h["Authorization"] = "Bearer " + p.apiKey
	}
	return h
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
	params.Set("q", query.Query)
	params.Set("limit", strconv.Itoa(maxN))

	var resp searchResponse
	reqURL := p.baseURL + "/search/works?" + params.Encode()
	if err := restutil.GetJSON(ctx, p.rt, providerID, "search", reqURL, p.headers(), &resp); err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.Results))
	for _, r := range resp.Results {
		papers = append(papers, convert(r))
	}
	return models.SearchResponse{
		Papers:       papers,
		TotalResults: resp.TotalHits,
		Source:       providerID,
		Query:        query.Query,
		HasMore:      len(papers) < resp.TotalHits,
	}, nil
}

func (p *Provider) GetByID(ctx context.Context, id string) (models.Paper, error) {
	var r result
	reqURL := p.baseURL + "/works/" + url.PathEscape(id)
	if err := restutil.GetJSON(ctx, p.rt, providerID, "get_by_id", reqURL, p.headers(), &r); err != nil {
		return models.Paper{}, err
	}
	return convert(r), nil
}

func (p *Provider) Download(ctx context.Context, req models.DownloadRequest) (models.DownloadResult, error) {
	paper, err := p.GetByID(ctx, req.PaperID)
	if err != nil {
		return models.DownloadResult{}, err
	}
	if paper.PDFURL == nil || *paper.PDFURL == "" {
		return models.DownloadResult{}, fedErrors.NewNotFoundError("paper", "No PDF available")
	}

	var n int64
	callErr := p.rt.Call(ctx, "download", func() error {
		written, err := providers.DownloadTo(ctx, p.rt.HTTP, *paper.PDFURL, req.SavePath, providers.MaxDownloadBytes)
		if err != nil {
			return err
		}
		n = written
		return nil
	})
	if callErr != nil {
		return models.DownloadResult{}, callErr
	}
	return models.DownloadResult{PaperID: req.PaperID, SavePath: req.SavePath, Bytes: n}, nil
}

func convert(r result) models.Paper {
	id := strconv.Itoa(r.ID)
	authors := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}
	link := "https://core.ac.uk/works/" + id
	b := models.NewBuilder(id, r.Title, link, models.SourceCORE).
		WithAuthors(authors...).
		WithAbstract(r.Abstract).
		WithDOI(r.DOI)
	if r.PublishedDate != "" {
		b = b.WithPublishedDate(r.PublishedDate)
	}
	if r.DownloadURL != "" {
		b = b.WithPDFURL(r.DownloadURL)
	}
	return b.Build()
}
