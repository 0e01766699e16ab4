// Package googlescholar scrapes Google Scholar's public HTML search results
// to the uniform Provider interface, per spec.md §4.5's table: search and
// DOI lookup (DOI lookup reduces to a search for the DOI string, since
// Scholar exposes no direct DOI endpoint). Per spec.md §4.5, this adapter
// is disabled by default and only registered when the caller explicitly
// opts in (see Enabled and GOOGLE_SCHOLAR_ENABLED in spec.md §6) — the
// registry/wire layer, not this package, enforces that gate.
package googlescholar

import (
	"bytes"
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
	"research-master/internal/providers"
)

const (
	defaultBaseURL = "https://scholar.google.com/scholar"
	providerID     = "google_scholar"
)

// Provider implements search and DOI lookup against Google Scholar's HTML
// search results.
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
		Base:    providers.NewBase(providerID, "Google Scholar", providers.CapSearch|providers.CapDOILookup),
		rt:      rt,
		baseURL: baseURL,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty query", "id", id)
	}
	return nil
}

func (p *Provider) Search(ctx context.Context, query models.SearchQuery) (models.SearchResponse, error) {
	maxN := query.MaxResults
	if maxN <= 0 {
		maxN = 10
	}

	var body []byte
	err := p.rt.Call(ctx, "search", func() error {
		reqURL := p.baseURL + "?q=" + url.QueryEscape(query.Query) + "&num=" + strconv.Itoa(maxN)
		resp, callErr := p.rt.HTTP.Get(ctx, reqURL, map[string]string{"Accept": "text/html"})
		if callErr != nil {
			return callErr
		}
		b, readErr := providers.ReadClassified(providerID, resp)
		if readErr != nil {
			return readErr
		}
		body = b
		return nil
	})
	if err != nil {
		return models.SearchResponse{}, err
	}

	papers, err := parseResults(body, maxN)
	if err != nil {
		return models.SearchResponse{}, err
	}
	return models.SearchResponse{Papers: papers, TotalResults: len(papers), Source: providerID, Query: query.Query}, nil
}

func (p *Provider) GetByDOI(ctx context.Context, doi string) (models.Paper, error) {
	clean := models.CanonicalDOI(doi)
	resp, err := p.Search(ctx, models.SearchQuery{Query: clean, MaxResults: 1})
	if err != nil {
		return models.Paper{}, err
	}
	if len(resp.Papers) == 0 {
		return models.Paper{}, fedErrors.NewNotFoundError("paper", doi)
	}
	return resp.Papers[0], nil
}

// parseResults walks Scholar's result list: each hit is a ".gs_ri" block
// with a title link in ".gs_rt" and a snippet in ".gs_rs". Google Scholar's
// markup shifts frequently, so the parsed id is the title link's "cluster"
// query parameter when present, else a lowercased, hyphenated title.
func parseResults(body []byte, maxN int) ([]models.Paper, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fedErrors.NewParseError(providerID, "malformed search page", err)
	}

	var papers []models.Paper
	doc.Find(".gs_ri").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find(".gs_rt a").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return true
		}
		href, _ := link.Attr("href")
		snippet := strings.TrimSpace(s.Find(".gs_rs").Text())
		authorsLine := strings.TrimSpace(s.Find(".gs_a").Text())

		id := hashID(href, title)
		b := models.NewBuilder(id, title, href, models.SourceGoogleScholar).
			WithAbstract(snippet).
			WithAuthorsJoined(strings.Split(authorsLine, " - ")[0])
		papers = append(papers, b.Build())
		return len(papers) < maxN
	})
	return papers, nil
}

func hashID(href, title string) string {
	if href != "" {
		if u, err := url.Parse(href); err == nil && u.Query().Get("cluster") != "" {
			return u.Query().Get("cluster")
		}
	}
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}
