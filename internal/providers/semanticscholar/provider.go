// Package semanticscholar adapts the Semantic Scholar Graph API to the
// uniform Provider interface, per spec.md §4.5's "Semantic Scholar" row:
// search, download (via openAccessPdf.url), read, citations, references,
// DOI lookup, and author search.
package semanticscholar

import (
	"context"
	"encoding/json"
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
	defaultBaseURL = "https://api.semanticscholar.org/graph/v1"
	providerID     = "semantic"
	maxResults     = 1000
)

// Provider implements the Semantic Scholar Graph API adapter.
type Provider struct {
	providers.Base
	rt      *providers.Runtime
	baseURL string
	apiKey  string
}

// New builds a Semantic Scholar adapter. apiKey is optional; when set it is
// attached as the `x-api-key` header on every request.
func New(rt *providers.Runtime, baseURL, apiKey string) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	caps := providers.CapSearch | providers.CapDownload | providers.CapRead |
		providers.CapCitations | providers.CapDOILookup | providers.CapAuthorSearch
	return &Provider{
		Base:    providers.NewBase(providerID, "Semantic Scholar", caps),
		rt:      rt,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty paper id", "id", id)
	}
	return nil
}

// Search runs a keyword search against /paper/search.
func (p *Provider) Search(ctx context.Context, query models.SearchQuery) (models.SearchResponse, error) {
	maxN := query.MaxResults
	if maxN <= 0 {
		maxN = 10
	}
	if maxN > maxResults {
		maxN = maxResults
	}

	q := query.Query
	if query.Year != "" {
		q = fmt.Sprintf("%s year>=%s year<=%s", q, query.Year, query.Year)
	}

	params := url.Values{}
	params.Set("query", q)
	params.Set("limit", strconv.Itoa(maxN))
	params.Set("fields", strings.Join(DetailedFields, ","))

	var body []byte
	err := p.rt.Call(ctx, "search", func() error {
		b, callErr := p.get(ctx, "/paper/search?"+params.Encode())
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return models.SearchResponse{}, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.SearchResponse{}, fedErrors.NewParseError(providerID, "malformed search response", err)
	}

	papers := make([]models.Paper, 0, len(resp.Data))
	for _, raw := range resp.Data {
		papers = append(papers, p.convert(raw))
	}

	return models.SearchResponse{
		Papers:       papers,
		TotalResults: resp.Total,
		Source:       providerID,
		Query:        query.Query,
		HasMore:      query.MaxResults > 0 && resp.Offset+len(papers) < resp.Total,
	}, nil
}

// SearchByAuthor searches by keyword query restricted to the author's name,
// then keeps only results whose author list actually contains a match: the
// Graph API's /paper/search endpoint has no dedicated author-only mode.
func (p *Provider) SearchByAuthor(ctx context.Context, author string, maxResults int, year string) (models.SearchResponse, error) {
	resp, err := p.Search(ctx, models.SearchQuery{Query: author, MaxResults: maxResults, Year: year})
	if err != nil {
		return models.SearchResponse{}, err
	}

	filtered := make([]models.Paper, 0, len(resp.Papers))
	needle := strings.ToLower(author)
	for _, paper := range resp.Papers {
		for _, a := range paper.AuthorList() {
			if strings.Contains(strings.ToLower(a), needle) {
				filtered = append(filtered, paper)
				break
			}
		}
	}
	resp.Papers = filtered
	resp.TotalResults = len(filtered)
	return resp, nil
}

// GetByID fetches a single paper by its Semantic Scholar, DOI-, or
// ArXiv-prefixed id (the Graph API accepts all three forms verbatim).
func (p *Provider) GetByID(ctx context.Context, id string) (models.Paper, error) {
	return p.fetchOne(ctx, id)
}

// GetByDOI fetches a paper via the API's "DOI:<doi>" id form.
func (p *Provider) GetByDOI(ctx context.Context, doi string) (models.Paper, error) {
	return p.fetchOne(ctx, "DOI:"+doi)
}

func (p *Provider) fetchOne(ctx context.Context, id string) (models.Paper, error) {
	params := url.Values{}
	params.Set("fields", strings.Join(DetailedFields, ","))

	var body []byte
	err := p.rt.Call(ctx, "get_by_id", func() error {
		b, callErr := p.get(ctx, "/paper/"+url.PathEscape(id)+"?"+params.Encode())
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return models.Paper{}, err
	}

	var raw Paper
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.Paper{}, fedErrors.NewParseError(providerID, "malformed paper response", err)
	}
	if raw.PaperID == "" {
		return models.Paper{}, fedErrors.NewNotFoundError("paper", id)
	}
	return p.convert(raw), nil
}

// GetCitations lists papers that cite the given paper.
func (p *Provider) GetCitations(ctx context.Context, req models.CitationRequest) (models.SearchResponse, error) {
	return p.citationFamily(ctx, "citations", req, func(c CitationContext) *Paper { return c.CitingPaper })
}

// GetReferences lists papers the given paper cites.
func (p *Provider) GetReferences(ctx context.Context, req models.CitationRequest) (models.SearchResponse, error) {
	return p.citationFamily(ctx, "references", req, func(c CitationContext) *Paper { return c.CitedPaper })
}

// GetRelated approximates "related works" as the subset of citing papers
// Semantic Scholar itself flagged influential: the Graph API has no
// dedicated related-works endpoint.
func (p *Provider) GetRelated(ctx context.Context, req models.CitationRequest) (models.SearchResponse, error) {
	resp, err := p.citationFamilyRaw(ctx, "citations", req)
	if err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.Data))
	for _, c := range resp.Data {
		if c.IsInfluential && c.CitingPaper != nil {
			papers = append(papers, p.convert(*c.CitingPaper))
		}
	}
	return models.SearchResponse{Papers: papers, TotalResults: len(papers), Source: providerID, Query: req.PaperID}, nil
}

func (p *Provider) citationFamilyRaw(ctx context.Context, edge string, req models.CitationRequest) (CitationsResponse, error) {
	maxN := req.MaxResults
	if maxN <= 0 {
		maxN = 20
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(maxN))
	params.Set("fields", strings.Join(CitationFields, ","))

	var body []byte
	err := p.rt.Call(ctx, edge, func() error {
		b, callErr := p.get(ctx, "/paper/"+url.PathEscape(req.PaperID)+"/"+edge+"?"+params.Encode())
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return CitationsResponse{}, err
	}

	var resp CitationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return CitationsResponse{}, fedErrors.NewParseError(providerID, "malformed "+edge+" response", err)
	}
	return resp, nil
}

func (p *Provider) citationFamily(ctx context.Context, edge string, req models.CitationRequest, pick func(CitationContext) *Paper) (models.SearchResponse, error) {
	resp, err := p.citationFamilyRaw(ctx, edge, req)
	if err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.Data))
	for _, c := range resp.Data {
		if raw := pick(c); raw != nil && raw.PaperID != "" {
			papers = append(papers, p.convert(*raw))
		}
	}
	return models.SearchResponse{Papers: papers, TotalResults: len(papers), Source: providerID, Query: req.PaperID}, nil
}

// Download resolves the open-access PDF url and streams it to disk, per
// spec.md §4.5's named Semantic Scholar quirk.
func (p *Provider) Download(ctx context.Context, req models.DownloadRequest) (models.DownloadResult, error) {
	paper, err := p.fetchOne(ctx, req.PaperID)
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

// Read downloads (if requested) then extracts plain text from the PDF.
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
	headers := map[string]string{"Accept": "application/json"}
	if p.apiKey != "" {
		headers["x-api-key"] = p.apiKey
	}
	resp, err := p.rt.HTTP.Get(ctx, p.baseURL+path, headers)
	if err != nil {
		return nil, err
	}
	return providers.ReadClassified(providerID, resp)
}

func (p *Provider) convert(raw Paper) models.Paper {
	id := raw.PaperID
	link := raw.URL
	if link == "" {
		link = "https://www.semanticscholar.org/paper/" + id
	}

	b := models.NewBuilder(id, raw.Title, link, models.SourceSemanticScholar).
		WithAbstract(raw.Abstract).
		WithCitations(uint64(max(raw.CitationCount, 0)))

	authors := make([]string, 0, len(raw.Authors))
	for _, a := range raw.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}
	b = b.WithAuthors(authors...)

	categories := make([]string, 0, len(raw.FieldsOfStudy))
	for _, f := range raw.FieldsOfStudy {
		if f.Category != "" {
			categories = append(categories, f.Category)
		}
	}
	b = b.WithCategories(categories...)

	if raw.Year > 0 {
		b = b.WithPublishedDate(strconv.Itoa(raw.Year) + "-01-01")
	}
	if raw.ExternalIDs != nil && raw.ExternalIDs.DOI != "" {
		b = b.WithDOI(raw.ExternalIDs.DOI)
	}
	if raw.OpenAccessPDF != nil && raw.OpenAccessPDF.URL != "" {
		b = b.WithPDFURL(raw.OpenAccessPDF.URL)
	}

	return b.Build()
}
