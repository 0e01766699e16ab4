// Package ssrn adapts SSRN's search results pages to the uniform Provider
// interface, per spec.md §4.5's "SSRN" row: search, download, and read.
// SSRN has no public REST API; the search page embeds its result set as a
// JSON blob inside a script tag, which this adapter locates by regex and
// then decodes, falling back to goquery selectors for individual paper
// pages that don't carry the embedded blob.
package ssrn

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
	"research-master/internal/pdf"
	"research-master/internal/providers"
)

const (
	defaultBaseURL = "https://papers.ssrn.com"
	providerID     = "ssrn"
)

var embeddedJSONRe = regexp.MustCompile(`(?s)<script[^>]*id="ssrn-search-data"[^>]*>(.*?)</script>`)

// Provider implements search, download, and read against SSRN.
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
		Base:    providers.NewBase(providerID, "SSRN", providers.CapSearch|providers.CapDownload|providers.CapRead),
		rt:      rt,
		baseURL: baseURL,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty abstract id", "id", id)
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
		b, callErr := p.get(ctx, "/sol3/results.cfm?term="+strings.ReplaceAll(query.Query, " ", "+"))
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return models.SearchResponse{}, err
	}

	results, err := extractEmbedded(body)
	if err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(results.Papers))
	for i, r := range results.Papers {
		if i >= maxN {
			break
		}
		papers = append(papers, convert(r))
	}

	return models.SearchResponse{
		Papers:       papers,
		TotalResults: results.TotalResults,
		Source:       providerID,
		Query:        query.Query,
		HasMore:      len(papers) < results.TotalResults,
	}, nil
}

func (p *Provider) GetByID(ctx context.Context, id string) (models.Paper, error) {
	var body []byte
	err := p.rt.Call(ctx, "get_by_id", func() error {
		b, callErr := p.get(ctx, "/sol3/papers.cfm?abstract_id="+id)
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
	pdfURL := p.baseURL + "/sol3/Delivery.cfm/SSRN_ID" + req.PaperID + "_code.pdf?abstractid=" + req.PaperID

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

// extractEmbedded locates the search page's embedded JSON blob by regex
// and decodes it.
func extractEmbedded(body []byte) (embeddedResults, error) {
	m := embeddedJSONRe.FindSubmatch(body)
	if m == nil {
		return embeddedResults{}, nil
	}
	var results embeddedResults
	if err := json.Unmarshal(bytes.TrimSpace(m[1]), &results); err != nil {
		return embeddedResults{}, fedErrors.NewParseError(providerID, "malformed embedded search data", err)
	}
	return results, nil
}

// parsePaperPage falls back to goquery selectors for an individual
// abstract page, which does not carry the embedded search blob.
func parsePaperPage(body []byte, id, baseURL string) (models.Paper, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.Paper{}, fedErrors.NewParseError(providerID, "malformed abstract page", err)
	}

	title := strings.TrimSpace(doc.Find("h1.title, .abstract-title").First().Text())
	if title == "" {
		return models.Paper{}, fedErrors.NewNotFoundError("paper", id)
	}
	abstract := strings.TrimSpace(doc.Find(".abstract-text, #abstract").Text())

	var authors []string
	doc.Find(".authors a, .author-name").Each(func(_ int, s *goquery.Selection) {
		if name := strings.TrimSpace(s.Text()); name != "" {
			authors = append(authors, name)
		}
	})

	link := baseURL + "/sol3/papers.cfm?abstract_id=" + id
	b := models.NewBuilder(id, title, link, models.SourceSSRN).
		WithAuthors(authors...).
		WithAbstract(abstract)
	return b.Build(), nil
}

func convert(r paper) models.Paper {
	id := strconv.Itoa(r.AbstractID)
	link := defaultBaseURL + "/sol3/papers.cfm?abstract_id=" + id

	authors := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	b := models.NewBuilder(id, r.Title, link, models.SourceSSRN).
		WithAuthors(authors...).
		WithAbstract(r.Abstract).
		WithDOI(r.DOI)
	if r.ApprovalDate != "" {
		b = b.WithPublishedDate(r.ApprovalDate)
	}
	return b.Build()
}
