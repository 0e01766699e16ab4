// Package crossref adapts the CrossRef REST API to the uniform Provider
// interface, per spec.md §4.5's "CrossRef" row: search and DOI lookup, with
// a descriptive mailto user agent for CrossRef's polite pool.
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
	"research-master/internal/providers"
)

const (
	defaultBaseURL = "https://api.crossref.org"
	providerID     = "crossref"
	maxResults     = 1000
)

// Provider implements search and DOI lookup against CrossRef.
type Provider struct {
	providers.Base
	rt        *providers.Runtime
	baseURL   string
	userAgent string
}

// New builds a CrossRef adapter. mailto, when non-empty, is folded into the
// User-Agent header per CrossRef's polite-pool convention.
func New(rt *providers.Runtime, baseURL, mailto string) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	ua := "research-master/1.0"
	if mailto != "" {
		ua = fmt.Sprintf("research-master/1.0 (mailto:%s)", mailto)
	}
	return &Provider{
		Base:      providers.NewBase(providerID, "CrossRef", providers.CapSearch|providers.CapDOILookup),
		rt:        rt,
		baseURL:   baseURL,
		userAgent: ua,
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
	if maxN > maxResults {
		maxN = maxResults
	}

	params := url.Values{}
	params.Set("query", query.Query)
	params.Set("rows", strconv.Itoa(maxN))
	if query.Author != "" {
		params.Set("query.author", query.Author)
	}

	var body []byte
	err := p.rt.Call(ctx, "search", func() error {
		b, callErr := p.get(ctx, "/works?"+params.Encode())
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return models.SearchResponse{}, err
	}

	var resp worksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.SearchResponse{}, fedErrors.NewParseError(providerID, "malformed works response", err)
	}

	papers := make([]models.Paper, 0, len(resp.Message.Items))
	for _, it := range resp.Message.Items {
		papers = append(papers, convert(it))
	}

	return models.SearchResponse{
		Papers:       papers,
		TotalResults: resp.Message.TotalResults,
		Source:       providerID,
		Query:        query.Query,
		HasMore:      len(papers) < resp.Message.TotalResults,
	}, nil
}

func (p *Provider) GetByDOI(ctx context.Context, doi string) (models.Paper, error) {
	var body []byte
	err := p.rt.Call(ctx, "get_by_doi", func() error {
		b, callErr := p.get(ctx, "/works/"+url.PathEscape(doi))
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return models.Paper{}, err
	}

	var resp workResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.Paper{}, fedErrors.NewParseError(providerID, "malformed work response", err)
	}
	if resp.Message.DOI == "" {
		return models.Paper{}, fedErrors.NewNotFoundError("paper", doi)
	}
	return convert(resp.Message), nil
}

func (p *Provider) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := p.rt.HTTP.Get(ctx, p.baseURL+path, map[string]string{
		"Accept":     "application/json",
		"User-Agent": p.userAgent,
	})
	if err != nil {
		return nil, err
	}
	return providers.ReadClassified(providerID, resp)
}

func convert(it item) models.Paper {
	title := ""
	if len(it.Title) > 0 {
		title = it.Title[0]
	}

	authors := make([]string, 0, len(it.Author))
	for _, a := range it.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name != "" {
			authors = append(authors, name)
		}
	}

	link := it.URL
	if link == "" {
		link = "https://doi.org/" + it.DOI
	}

	b := models.NewBuilder(it.DOI, title, link, models.SourceCrossRef).
		WithAuthors(authors...).
		WithAbstract(stripJATS(it.Abstract)).
		WithCategories(it.Subject...).
		WithDOI(it.DOI).
		WithCitations(uint64(max(it.IsRefBy, 0)))

	if y := yearFrom(it.Issued); y != "" {
		b = b.WithPublishedDate(y + "-01-01")
	}
	if pdfURL := pdfLink(it.Link); pdfURL != "" {
		b = b.WithPDFURL(pdfURL)
	}

	return b.Build()
}

// stripJATS removes the JATS <jats:p> wrapper CrossRef sometimes wraps
// abstracts in.
func stripJATS(abstract string) string {
	a := strings.ReplaceAll(abstract, "<jats:p>", "")
	a = strings.ReplaceAll(a, "</jats:p>", "")
	return strings.TrimSpace(a)
}

func yearFrom(d dateParts) string {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return ""
	}
	return strconv.Itoa(d.DateParts[0][0])
}

func pdfLink(links []linkObject) string {
	for _, l := range links {
		if strings.Contains(l.ContentType, "pdf") {
			return l.URL
		}
	}
	return ""
}
