// Package arxiv adapts the arXiv Atom-feed API to the uniform Provider
// interface (spec.md §4.5): search, download, and text extraction over
// arXiv's public export API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
	"research-master/internal/pdf"
	"research-master/internal/providers"
)

const (
	defaultBaseURL = "https://export.arxiv.org/api/query"
	providerID     = "arxiv"
	maxResults     = 2000
)

// Provider implements search, download and read against arXiv.
type Provider struct {
	providers.Base
	rt      *providers.Runtime
	baseURL string
}

// New builds an arXiv adapter. rt supplies the shared breaker/retry/HTTP
// substrate every outbound call is wrapped in.
func New(rt *providers.Runtime, baseURL string) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{
		Base:    providers.NewBase(providerID, "arXiv", providers.CapSearch|providers.CapDownload|providers.CapRead),
		rt:      rt,
		baseURL: baseURL,
	}
}

// ValidateID rejects an id that is empty once normalized; the shape of the
// remaining identifier (digits/dots, category prefix) is not checked.
func (p *Provider) ValidateID(id string) error {
	norm := normalizeID(id)
	if norm == "" {
		return fedErrors.NewInvalidRequestError("empty arXiv id", "id", id)
	}
	return nil
}

// Search runs a keyword search against the arXiv query API.
func (p *Provider) Search(ctx context.Context, query models.SearchQuery) (models.SearchResponse, error) {
	arxivQuery := p.buildQuery(query)

	var body []byte
	err := p.rt.Call(ctx, "search", func() error {
		b, callErr := p.request(ctx, arxivQuery, query.MaxResults, 0, query.SortBy)
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return models.SearchResponse{}, err
	}

	papers, err := p.parseFeed(body)
	if err != nil {
		return models.SearchResponse{}, err
	}

	return models.SearchResponse{
		Papers:       papers,
		TotalResults: len(papers),
		Source:       providerID,
		Query:        query.Query,
		HasMore:      len(papers) == query.MaxResults,
	}, nil
}

// GetByID fetches a single paper by its (possibly prefixed) arXiv id.
func (p *Provider) GetByID(ctx context.Context, id string) (models.Paper, error) {
	norm := normalizeID(id)
	if norm == "" {
		return models.Paper{}, fedErrors.NewInvalidRequestError("malformed arXiv id", "id", id)
	}

	var body []byte
	err := p.rt.Call(ctx, "get_by_id", func() error {
		b, callErr := p.request(ctx, "id:"+norm, 1, 0, "")
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return models.Paper{}, err
	}

	papers, err := p.parseFeed(body)
	if err != nil {
		return models.Paper{}, err
	}
	if len(papers) == 0 {
		return models.Paper{}, fedErrors.NewNotFoundError("paper", id)
	}
	return papers[0], nil
}

// Download fetches the PDF for id and writes it to req.SavePath.
func (p *Provider) Download(ctx context.Context, req models.DownloadRequest) (models.DownloadResult, error) {
	norm := normalizeID(req.PaperID)
	if norm == "" {
		return models.DownloadResult{}, fedErrors.NewInvalidRequestError("malformed arXiv id", "paper_id", req.PaperID)
	}
	pdfURL := fmt.Sprintf("https://arxiv.org/pdf/%s.pdf", url.PathEscape(norm))

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

// Read downloads the PDF (if missing and requested) then extracts its text.
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

// buildQuery translates a SearchQuery into arXiv's search_query grammar,
// reproducing the quirks named in spec.md §4.5: submittedDate range syntax
// and the sort-field fallback table.
func (p *Provider) buildQuery(query models.SearchQuery) string {
	builder := NewQueryBuilder()

	if query.Query != "" {
		builder.All(query.Query)
	}
	if query.Author != "" {
		builder.AND().Author(query.Author)
	}
	if query.Category != "" {
		builder.AND().Category(query.Category)
	}
	if query.Year != "" {
		builder.AND().SubmittedDateRange(query.Year+"0101", query.Year+"1231")
	}

	q := builder.Build()
	if q == "" {
		q = "cat:cs.*"
	}
	return q
}

// arxivSort reproduces the sort-field fallback table of spec.md §4.5:
// Title/Author fall back to lastUpdatedDate, CitationCount to relevance.
func arxivSort(sortBy models.SortBy) (ArxivSortBy, ArxivSortOrder) {
	switch sortBy {
	case models.SortDate:
		return SortBySubmittedDate, SortOrderDescending
	case models.SortTitle, models.SortAuthor:
		return SortByLastUpdated, SortOrderDescending
	case models.SortCitationCount:
		return SortByRelevance, SortOrderDescending
	default:
		return SortByRelevance, SortOrderDescending
	}
}

func (p *Provider) request(ctx context.Context, searchQuery string, maxResultsWanted, start int, sortBy models.SortBy) ([]byte, error) {
	if maxResultsWanted <= 0 {
		maxResultsWanted = 10
	}
	if maxResultsWanted > maxResults {
		maxResultsWanted = maxResults
	}

	sb, so := arxivSort(sortBy)
	params := (&ArxivQueryParams{
		SearchQuery: searchQuery,
		Start:       start,
		MaxResults:  maxResultsWanted,
		SortBy:      sb,
		SortOrder:   so,
	}).ToURLParams()

	reqURL := p.baseURL + "?" + params.Encode()
	resp, err := p.rt.HTTP.Get(ctx, reqURL, map[string]string{"Accept": "application/atom+xml"})
	if err != nil {
		return nil, err
	}

	return providers.ReadClassified(providerID, resp)
}

func (p *Provider) parseFeed(data []byte) ([]models.Paper, error) {
	var feed ArxivFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fedErrors.NewParseError(providerID, "malformed atom feed", err)
	}

	papers := make([]models.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		paper, err := p.convertEntry(entry)
		if err != nil {
			continue
		}
		papers = append(papers, paper)
	}
	return papers, nil
}

func (p *Provider) convertEntry(entry ArxivEntry) (models.Paper, error) {
	id := normalizeID(entry.ID)
	if id == "" || entry.Title == "" {
		return models.Paper{}, fedErrors.NewParseError(providerID, "entry missing id or title", nil)
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	categories := make([]string, 0, len(entry.Categories))
	for _, c := range entry.Categories {
		if c.Term != "" {
			categories = append(categories, c.Term)
		}
	}

	var pdfURL string
	for _, link := range entry.Links {
		if link.Type == "application/pdf" {
			pdfURL = link.Href
			break
		}
	}

	b := models.NewBuilder(id, strings.TrimSpace(entry.Title), entry.ID, models.SourceArxiv).
		WithAuthors(authors...).
		WithAbstract(strings.TrimSpace(entry.Summary)).
		WithCategories(categories...).
		WithPublishedDate(entry.Published).
		WithUpdatedDate(entry.Updated).
		WithPDFURL(pdfURL)

	if entry.DOI != "" {
		b = b.WithDOI(entry.DOI)
	}

	return b.Build(), nil
}

// normalizeID strips an "arxiv:" prefix, an "/abs/" URL prefix, and a
// trailing version suffix ("v2"), per spec.md §4.5's arXiv quirk.
func normalizeID(raw string) string {
	id := strings.TrimSpace(raw)
	if idx := strings.LastIndex(id, "/abs/"); idx >= 0 {
		id = id[idx+len("/abs/"):]
	} else if idx := strings.LastIndex(id, "/"); idx >= 0 && strings.Contains(id, "://") {
		id = id[idx+1:]
	}
	id = strings.TrimPrefix(id, "arxiv:")
	id = strings.TrimPrefix(id, "arXiv:")
	id = strings.TrimPrefix(id, "ARXIV:")

	if idx := strings.LastIndex(id, "v"); idx > 0 {
		if _, err := strconv.Atoi(id[idx+1:]); err == nil {
			id = id[:idx]
		}
	}
	return id
}
