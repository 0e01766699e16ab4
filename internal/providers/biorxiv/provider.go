// Package biorxiv adapts the bioRxiv/medRxiv date-range JSON cursor API to
// the uniform Provider interface, per spec.md §4.5's "bioRxiv/medRxiv" row:
// search, download, and read. The upstream API has no keyword search
// endpoint, so Search pages through date-range batches and filters by
// keyword client-side, sized per spec.md's named 10-100 batch quirk.
package biorxiv

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
	"research-master/internal/pdf"
	"research-master/internal/providers"
)

const (
	minBatch    = 10
	maxBatch    = 100
	maxPages    = 20 // bound the client-side filter walk so a rare term can't loop forever
	lookbackDur = 10 * 365 * 24 * time.Hour
)

// Provider implements search, download, and read against bioRxiv or
// medRxiv; server selects which of the two (they share one API shape).
type Provider struct {
	providers.Base
	rt      *providers.Runtime
	baseURL string
	server  string
	source  models.Source
}

// New builds a bioRxiv adapter when server is "biorxiv", or a medRxiv
// adapter when server is "medrxiv".
func New(rt *providers.Runtime, baseURL, server string) *Provider {
	if baseURL == "" {
		baseURL = "https://api.biorxiv.org"
	}
	source := models.SourceBioRxiv
	name := "bioRxiv"
	if server == "medrxiv" {
		source = models.SourceMedRxiv
		name = "medRxiv"
	}
	return &Provider{
		Base:    providers.NewBase(server, name, providers.CapSearch|providers.CapDownload|providers.CapRead),
		rt:      rt,
		baseURL: baseURL,
		server:  server,
		source:  source,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty DOI", "id", id)
	}
	return nil
}

// Search pages through /details/<server>/<from>/<to>/<cursor> batches,
// filtering each batch client-side by whether the query term appears in
// the title or abstract, until maxResults matches are found or the date
// range is exhausted.
func (p *Provider) Search(ctx context.Context, query models.SearchQuery) (models.SearchResponse, error) {
	maxN := query.MaxResults
	if maxN <= 0 {
		maxN = 10
	}
	batch := maxN * 2
	if batch < minBatch {
		batch = minBatch
	}
	if batch > maxBatch {
		batch = maxBatch
	}

	from, to := dateRange()
	needle := strings.ToLower(query.Query)

	var papers []models.Paper
	cursor := 0
	for page := 0; page < maxPages && len(papers) < maxN; page++ {
		resp, err := p.fetchBatch(ctx, from, to, cursor, batch)
		if err != nil {
			return models.SearchResponse{}, err
		}
		if len(resp.Collection) == 0 {
			break
		}
		for _, pr := range resp.Collection {
			if matches(pr, needle) {
				papers = append(papers, p.convert(pr))
				if len(papers) >= maxN {
					break
				}
			}
		}
		cursor += len(resp.Collection)
		if len(resp.Messages) > 0 && cursor >= resp.Messages[0].Total {
			break
		}
	}

	return models.SearchResponse{
		Papers: papers,
		Source: p.ID(),
		Query:  query.Query,
	}, nil
}

func (p *Provider) GetByID(ctx context.Context, id string) (models.Paper, error) {
	var body []byte
	err := p.rt.Call(ctx, "get_by_id", func() error {
		b, callErr := p.get(ctx, "/details/"+p.server+"/"+id)
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return models.Paper{}, err
	}

	var resp detailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.Paper{}, fedErrors.NewParseError(p.ID(), "malformed details response", err)
	}
	if len(resp.Collection) == 0 {
		return models.Paper{}, fedErrors.NewNotFoundError("paper", id)
	}
	return p.convert(resp.Collection[0]), nil
}

func (p *Provider) Download(ctx context.Context, req models.DownloadRequest) (models.DownloadResult, error) {
	paper, err := p.GetByID(ctx, req.PaperID)
	if err != nil {
		return models.DownloadResult{}, err
	}
	if paper.DOI == nil {
		return models.DownloadResult{}, fedErrors.NewNotFoundError("pdf", "No PDF available")
	}
	pdfURL := "https://www.biorxiv.org/content/" + *paper.DOI + "v" + "1" + ".full.pdf"
	if p.server == "medrxiv" {
		pdfURL = "https://www.medrxiv.org/content/" + *paper.DOI + "v1.full.pdf"
	}

	var n int64
	err = p.rt.Call(ctx, "download", func() error {
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

// fetchBatch requests one page at the given cursor. The API paginates in
// fixed server-side chunks and batch is not sent upstream; instead the
// returned page is truncated to batch entries (clamped to [10,100] by the
// caller), and the caller advances the cursor by the entries kept.
func (p *Provider) fetchBatch(ctx context.Context, from, to string, cursor, batch int) (detailsResponse, error) {
	path := "/details/" + p.server + "/" + from + "/" + to + "/" + strconv.Itoa(cursor)

	var body []byte
	err := p.rt.Call(ctx, "search_batch", func() error {
		b, callErr := p.get(ctx, path)
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return detailsResponse{}, err
	}

	var resp detailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return detailsResponse{}, fedErrors.NewParseError(p.ID(), "malformed details response", err)
	}
	if len(resp.Collection) > batch {
		resp.Collection = resp.Collection[:batch]
	}
	return resp, nil
}

func (p *Provider) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := p.rt.HTTP.Get(ctx, p.baseURL+path, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	return providers.ReadClassified(p.ID(), resp)
}

func matches(pr preprint, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(pr.Title), needle) ||
		strings.Contains(strings.ToLower(pr.Abstract), needle)
}

func dateRange() (string, string) {
	now := time.Now().UTC()
	from := now.Add(-lookbackDur)
	return from.Format("2006-01-02"), now.Format("2006-01-02")
}

func (p *Provider) convert(pr preprint) models.Paper {
	authors := make([]string, 0)
	for _, a := range strings.Split(pr.Authors, ";") {
		if name := strings.TrimSpace(a); name != "" {
			authors = append(authors, name)
		}
	}

	link := "https://doi.org/" + pr.DOI
	b := models.NewBuilder(pr.DOI, pr.Title, link, p.source).
		WithAuthors(authors...).
		WithAbstract(pr.Abstract).
		WithCategories(pr.Category).
		WithDOI(pr.DOI)
	if pr.Date != "" {
		b = b.WithPublishedDate(pr.Date)
	}
	return b.Build()
}
