// Package dblp adapts the DBLP computer-science bibliography search API to
// the uniform Provider interface, per spec.md §4.5's "DBLP" row: search
// only, with a two-layer parse (streaming XML first, text regex fallback
// for hits the XML decoder chokes on).
package dblp

import (
	"bytes"
	"context"
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"

	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
	"research-master/internal/providers"
)

const (
	defaultBaseURL = "https://dblp.org/search/publ/api"
	providerID     = "dblp"
	maxResults     = 1000
)

var (
	titleRe = regexp.MustCompile(`(?s)<title>(.*?)</title>`)
	yearRe  = regexp.MustCompile(`<year>(\d{4})</year>`)
	urlRe   = regexp.MustCompile(`<url>(.*?)</url>`)
	authRe  = regexp.MustCompile(`(?s)<authors>(.*?)</authors>`)
	oneAuth = regexp.MustCompile(`(?s)<author[^>]*>(.*?)</author>`)
)

// Provider implements search against DBLP.
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
		Base:    providers.NewBase(providerID, "DBLP", providers.CapSearch),
		rt:      rt,
		baseURL: baseURL,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty DBLP key", "id", id)
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

	params := "?q=" + urlEscape(query.Query) + "&format=xml&h=" + strconv.Itoa(maxN)

	var body []byte
	err := p.rt.Call(ctx, "search", func() error {
		b, callErr := p.get(ctx, params)
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return models.SearchResponse{}, err
	}

	hits, total, parseErr := parseXML(body)
	if parseErr != nil {
		hits, total = parseRegex(body)
	}

	papers := make([]models.Paper, 0, len(hits))
	for _, h := range hits {
		papers = append(papers, convert(h))
	}

	return models.SearchResponse{
		Papers:       papers,
		TotalResults: total,
		Source:       providerID,
		Query:        query.Query,
		HasMore:      len(papers) < total,
	}, nil
}

func (p *Provider) get(ctx context.Context, params string) ([]byte, error) {
	resp, err := p.rt.HTTP.Get(ctx, p.baseURL+params, map[string]string{"Accept": "application/xml"})
	if err != nil {
		return nil, err
	}
	return providers.ReadClassified(providerID, resp)
}

// parseXML is the primary decode path: a streaming encoding/xml.Decoder
// over the full response.
func parseXML(body []byte) ([]info, int, error) {
	var result searchResult
	dec := xml.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&result); err != nil {
		return nil, 0, fedErrors.NewParseError(providerID, "malformed search response", err)
	}
	total, _ := strconv.Atoi(result.Hits.Total)
	infos := make([]info, 0, len(result.Hits.Hit))
	for _, h := range result.Hits.Hit {
		infos = append(infos, h.Info)
	}
	return infos, total, nil
}

// parseRegex is the fallback layer spec.md §4.5 names for DBLP: when the
// XML decoder fails on a malformed payload, salvage whatever hits can be
// recovered with plain text regexes instead of failing the whole search.
func parseRegex(body []byte) ([]info, int) {
	text := string(body)
	titles := titleRe.FindAllStringSubmatch(text, -1)
	years := yearRe.FindAllStringSubmatch(text, -1)
	urls := urlRe.FindAllStringSubmatch(text, -1)
	authorBlocks := authRe.FindAllStringSubmatch(text, -1)

	n := len(titles)
	infos := make([]info, 0, n)
	for i := 0; i < n; i++ {
		inf := info{Title: strings.TrimSpace(titles[i][1])}
		if i < len(years) {
			inf.Year = years[i][1]
		}
		if i < len(urls) {
			inf.URL = urls[i][1]
		}
		if i < len(authorBlocks) {
			for _, m := range oneAuth.FindAllStringSubmatch(authorBlocks[i][1], -1) {
				inf.Authors = append(inf.Authors, strings.TrimSpace(m[1]))
			}
		}
		infos = append(infos, inf)
	}
	return infos, n
}

func urlEscape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, " ", "+"), "&", "%26")
}

func convert(i info) models.Paper {
	id := i.Key
	if id == "" {
		id = i.URL
	}
	b := models.NewBuilder(id, i.Title, i.URL, models.SourceDBLP).
		WithAuthors(i.Authors...).
		WithDOI(i.DOI)

	if i.Year != "" {
		b = b.WithPublishedDate(i.Year + "-01-01")
	}
	if i.Venue != "" {
		b = b.WithCategories(i.Venue)
	}

	return b.Build()
}
