// Package iacr adapts the IACR Cryptology ePrint Archive's HTML search
// pages to the uniform Provider interface, per spec.md §4.5's "IACR" row:
// search, download, and read, via goquery selector extraction over scraped
// HTML (IACR has no public search API).
package iacr

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
	"research-master/internal/pdf"
	"research-master/internal/providers"
)

const (
	defaultBaseURL = "https://eprint.iacr.org"
	providerID     = "iacr"
)

// Provider implements search, download, and read against the ePrint archive.
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
		Base:    providers.NewBase(providerID, "IACR ePrint Archive", providers.CapSearch|providers.CapDownload|providers.CapRead),
		rt:      rt,
		baseURL: baseURL,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty ePrint id", "id", id)
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
		b, callErr := p.get(ctx, "/search?q="+strings.ReplaceAll(query.Query, " ", "+"))
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return models.SearchResponse{}, err
	}

	papers, err := parseSearchResults(body, p.baseURL, maxN)
	if err != nil {
		return models.SearchResponse{}, err
	}

	return models.SearchResponse{
		Papers:       papers,
		TotalResults: len(papers),
		Source:       providerID,
		Query:        query.Query,
	}, nil
}

func (p *Provider) GetByID(ctx context.Context, id string) (models.Paper, error) {
	var body []byte
	err := p.rt.Call(ctx, "get_by_id", func() error {
		b, callErr := p.get(ctx, "/"+cleanID(id))
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return models.Paper{}, err
	}
	return parsePaperPage(body, id, p.baseURL)
}

func (p *Provider) Download(ctx context.Context, req models.DownloadRequest) (models.DownloadResult, error) {
	pdfURL := p.baseURL + "/" + cleanID(req.PaperID) + ".pdf"

	var n int64
	err := p.rt.Call(ctx, "download", func() error {
		written, callErr := providers.DownloadTo(ctx, p.rt.HTTP, pdfURL, req.SavePath, providers.MaxDownloadBytes)
		if callErr != nil {
			return callErr
		}
		n = written
		return nil
	})
	if err != nil {
		return models.DownloadResult{}, err
	}
	return models.DownloadResult{PaperID: req.PaperID, SavePath: req.SavePath, Bytes: n}, nil
}

func (p *Provider) Read(ctx context.Context, req models.ReadRequest) (models.ReadResult, error) {
	if req.DownloadIfMissing {
		if _, err := p.Download(ctx, models.DownloadRequest{PaperID: req.PaperID, SavePath: req.SavePath}); err != nil {
			return models.ReadResult{}, err
		}
	}
	text, err := pdf.ExtractText(req.SavePath)
	if err != nil {
		return models.ReadResult{}, err
	}
	return models.NewReadResult(req.PaperID, text), nil
}

func (p *Provider) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := p.rt.HTTP.Get(ctx, p.baseURL+path, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, err
	}
	return providers.ReadClassified(providerID, resp)
}

// cleanID strips an optional leading slash or surrounding whitespace so
// either a bare year/number pair or a full path works as id.
func cleanID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), "/")
}

// parseSearchResults walks the search results page with goquery selectors:
// each hit is an ".searchresult" block with a title link and an abstract.
func parseSearchResults(body []byte, baseURL string, maxN int) ([]models.Paper, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fedErrors.NewParseError(providerID, "malformed search page", err)
	}

	var papers []models.Paper
	doc.Find(".searchresult, .result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("a").First()
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return true
		}
		id := strings.Trim(href, "/")
		abstract := strings.TrimSpace(s.Find(".abstract").Text())

		b := models.NewBuilder(id, title, baseURL+"/"+id, models.SourceIACR).WithAbstract(abstract)
		papers = append(papers, b.Build())
		return len(papers) < maxN
	})
	return papers, nil
}

// parsePaperPage extracts title, authors, and abstract from an individual
// ePrint page using goquery selectors.
func parsePaperPage(body []byte, id, baseURL string) (models.Paper, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.Paper{}, fedErrors.NewParseError(providerID, "malformed paper page", err)
	}

	title := strings.TrimSpace(doc.Find("h3, .title").First().Text())
	if title == "" {
		return models.Paper{}, fedErrors.NewNotFoundError("paper", id)
	}
	abstract := strings.TrimSpace(doc.Find(".abstract, #abstract").Text())

	var authors []string
	doc.Find(".authors a, .author").Each(func(_ int, s *goquery.Selection) {
		if name := strings.TrimSpace(s.Text()); name != "" {
			authors = append(authors, name)
		}
	})

	b := models.NewBuilder(id, title, baseURL+"/"+cleanID(id), models.SourceIACR).
		WithAuthors(authors...).
		WithAbstract(abstract)
	return b.Build(), nil
}
