// Package hal adapts the HAL open archive's Solr-style search API to the
// uniform Provider interface, per spec.md §4.5's "HAL" row: search,
// download, read, and DOI lookup, preferring English-leading title phrases.
package hal

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
	"research-master/internal/pdf"
	"research-master/internal/providers"
)

const (
	defaultBaseURL = "https://api.archives-ouvertes.fr/search"
	providerID     = "hal"
	maxResults     = 1000
	fieldList      = "halId_s,title_s,abstract_s,authFullName_s,producedDate_s,doiId_s,files_s,domain_s"
)

// Provider implements search, download, read, and DOI lookup against HAL.
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
		Base:    providers.NewBase(providerID, "HAL", providers.CapSearch|providers.CapDownload|providers.CapRead|providers.CapDOILookup),
		rt:      rt,
		baseURL: baseURL,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty HAL id", "id", id)
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
	params.Set("q", query.Query)
	params.Set("wt", "json")
	params.Set("rows", strconv.Itoa(maxN))
	params.Set("fl", fieldList)

	resp, err := p.query(ctx, "search", params)
	if err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.Response.Docs))
	for _, d := range resp.Response.Docs {
		papers = append(papers, convert(d))
	}

	return models.SearchResponse{
		Papers:       papers,
		TotalResults: resp.Response.NumFound,
		Source:       providerID,
		Query:        query.Query,
		HasMore:      len(papers) < resp.Response.NumFound,
	}, nil
}

func (p *Provider) GetByID(ctx context.Context, id string) (models.Paper, error) {
	return p.fetchOne(ctx, "halId_s:"+id)
}

func (p *Provider) GetByDOI(ctx context.Context, doi string) (models.Paper, error) {
	return p.fetchOne(ctx, "doiId_s:"+doi)
}

func (p *Provider) fetchOne(ctx context.Context, solrQuery string) (models.Paper, error) {
	params := url.Values{}
	params.Set("q", solrQuery)
	params.Set("wt", "json")
	params.Set("rows", "1")
	params.Set("fl", fieldList)

	resp, err := p.query(ctx, "get_by_id", params)
	if err != nil {
		return models.Paper{}, err
	}
	if len(resp.Response.Docs) == 0 {
		return models.Paper{}, fedErrors.NewNotFoundError("paper", solrQuery)
	}
	return convert(resp.Response.Docs[0]), nil
}

func (p *Provider) Download(ctx context.Context, req models.DownloadRequest) (models.DownloadResult, error) {
	paper, err := p.GetByID(ctx, req.PaperID)
	if err != nil {
		return models.DownloadResult{}, err
	}
	if paper.PDFURL == nil || *paper.PDFURL == "" {
		return models.DownloadResult{}, fedErrors.NewNotFoundError("pdf", "No PDF available")
	}

	var n int64
	err = p.rt.Call(ctx, "download", func() error {
		written, callErr := providers.DownloadTo(ctx, p.rt.HTTP, *paper.PDFURL, req.SavePath, providers.MaxDownloadBytes)
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

func (p *Provider) query(ctx context.Context, operation string, params url.Values) (searchResponse, error) {
	var body []byte
	err := p.rt.Call(ctx, operation, func() error {
		b, callErr := p.get(ctx, "/?"+params.Encode())
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return searchResponse{}, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return searchResponse{}, fedErrors.NewParseError(providerID, "malformed search response", err)
	}
	return resp, nil
}

func (p *Provider) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := p.rt.HTTP.Get(ctx, p.baseURL+path, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	return providers.ReadClassified(providerID, resp)
}

func convert(d doc) models.Paper {
	link := "https://hal.science/" + d.HalID
	b := models.NewBuilder(d.HalID, preferEnglish(d.TitleS), link, models.SourceHAL).
		WithAuthors(d.AuthFullNameS...).
		WithAbstract(preferEnglish(d.AbstractS)).
		WithCategories(d.DomainS...).
		WithDOI(d.DoiID)

	if d.ProducedDateS != "" {
		b = b.WithPublishedDate(d.ProducedDateS)
	}
	if len(d.FilesS) > 0 {
		b = b.WithPDFURL(d.FilesS[0])
	}

	return b.Build()
}

// preferEnglish implements spec.md §4.5's HAL quirk: when a multi-valued
// field holds phrases in more than one language, prefer the one that reads
// as English (ASCII letters only, no accented characters) over the first
// entry, which HAL does not guarantee is English.
func preferEnglish(phrases []string) string {
	if len(phrases) == 0 {
		return ""
	}
	for _, phrase := range phrases {
		if isASCIILetters(phrase) {
			return phrase
		}
	}
	return phrases[0]
}

func isASCIILetters(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}
