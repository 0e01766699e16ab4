// Package openalex adapts the OpenAlex REST API to the uniform Provider
// interface, per spec.md §4.5's "OpenAlex" row: search, download, read,
// citations, DOI lookup and author search, with the named year-filter
// quirk (bare year and "YYYY-" open-ended ranges via filter=publication_year:...).
package openalex

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
	defaultBaseURL = "https://api.openalex.org"
	providerID     = "openalex"
	maxResults     = 200 // OpenAlex's per-page cap
)

// Provider implements the OpenAlex adapter.
type Provider struct {
	providers.Base
	rt      *providers.Runtime
	baseURL string
	mailto  string
}

// New builds an OpenAlex adapter. mailto is optional and, when set, is
// attached to every request to join OpenAlex's "polite pool".
func New(rt *providers.Runtime, baseURL, mailto string) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	caps := providers.CapSearch | providers.CapDownload | providers.CapRead |
		providers.CapCitations | providers.CapDOILookup | providers.CapAuthorSearch
	return &Provider{
		Base:    providers.NewBase(providerID, "OpenAlex", caps),
		rt:      rt,
		baseURL: baseURL,
		mailto:  mailto,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty work id", "id", id)
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
	params.Set("search", query.Query)
	params.Set("per-page", strconv.Itoa(maxN))
	if f := yearFilter(query.Year); f != "" {
		params.Set("filter", strings.TrimPrefix(f, "filter="))
	}

	resp, err := p.list(ctx, "search", "/works?"+p.withMailto(params))
	if err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.Results))
	for _, w := range resp.Results {
		papers = append(papers, p.convert(w))
	}

	return models.SearchResponse{
		Papers:       papers,
		TotalResults: resp.Meta.Count,
		Source:       providerID,
		Query:        query.Query,
		HasMore:      len(papers) < resp.Meta.Count,
	}, nil
}

// SearchByAuthor filters works by the author's OpenAlex display name via
// filter=authorships.author.display_name.search.
func (p *Provider) SearchByAuthor(ctx context.Context, author string, maxResults int, year string) (models.SearchResponse, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	params := url.Values{}
	params.Set("filter", "authorships.author.display_name.search:"+author)
	params.Set("per-page", strconv.Itoa(maxResults))
	if f := yearFilter(year); f != "" {
		params.Set("filter", params.Get("filter")+","+f[len("filter="):])
	}

	resp, err := p.list(ctx, "search_by_author", "/works?"+p.withMailto(params))
	if err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.Results))
	for _, w := range resp.Results {
		papers = append(papers, p.convert(w))
	}
	return models.SearchResponse{Papers: papers, TotalResults: resp.Meta.Count, Source: providerID, Query: author}, nil
}

func (p *Provider) GetByID(ctx context.Context, id string) (models.Paper, error) {
	return p.fetchOne(ctx, id)
}

func (p *Provider) GetByDOI(ctx context.Context, doi string) (models.Paper, error) {
	return p.fetchOne(ctx, "https://doi.org/"+doi)
}

func (p *Provider) fetchOne(ctx context.Context, id string) (models.Paper, error) {
	var body []byte
	err := p.rt.Call(ctx, "get_by_id", func() error {
		b, callErr := p.get(ctx, "/works/"+url.PathEscape(id)+"?"+p.withMailto(url.Values{}))
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return models.Paper{}, err
	}

	var w Work
	if err := json.Unmarshal(body, &w); err != nil {
		return models.Paper{}, fedErrors.NewParseError(providerID, "malformed work response", err)
	}
	if w.ID == "" {
		return models.Paper{}, fedErrors.NewNotFoundError("paper", id)
	}
	return p.convert(w), nil
}

// GetCitations lists works that cite the given work, via
// filter=cites:<id>.
func (p *Provider) GetCitations(ctx context.Context, req models.CitationRequest) (models.SearchResponse, error) {
	params := url.Values{}
	params.Set("filter", "cites:"+req.PaperID)
	if req.MaxResults > 0 {
		params.Set("per-page", strconv.Itoa(req.MaxResults))
	}

	resp, err := p.list(ctx, "citations", "/works?"+p.withMailto(params))
	if err != nil {
		return models.SearchResponse{}, err
	}
	papers := make([]models.Paper, 0, len(resp.Results))
	for _, w := range resp.Results {
		papers = append(papers, p.convert(w))
	}
	return models.SearchResponse{Papers: papers, TotalResults: resp.Meta.Count, Source: providerID, Query: req.PaperID}, nil
}

// GetReferences fetches the source work, then resolves each of its
// referenced_works ids individually.
func (p *Provider) GetReferences(ctx context.Context, req models.CitationRequest) (models.SearchResponse, error) {
	source, err := p.fetchRaw(ctx, req.PaperID)
	if err != nil {
		return models.SearchResponse{}, err
	}

	limit := len(source.ReferencedWorks)
	if req.MaxResults > 0 && req.MaxResults < limit {
		limit = req.MaxResults
	}

	papers := make([]models.Paper, 0, limit)
	for _, refID := range source.ReferencedWorks[:limit] {
		paper, err := p.fetchOne(ctx, refID)
		if err != nil {
			continue
		}
		papers = append(papers, paper)
	}
	return models.SearchResponse{Papers: papers, TotalResults: len(papers), Source: providerID, Query: req.PaperID}, nil
}

// GetRelated has no direct OpenAlex analogue; it is approximated by the
// citation set, consistent with how GetCitations already behaves.
func (p *Provider) GetRelated(ctx context.Context, req models.CitationRequest) (models.SearchResponse, error) {
	return p.GetCitations(ctx, req)
}

func (p *Provider) Download(ctx context.Context, req models.DownloadRequest) (models.DownloadResult, error) {
	work, err := p.fetchRaw(ctx, req.PaperID)
	if err != nil {
		return models.DownloadResult{}, err
	}

	pdfURL := ""
	if work.PrimaryLocation != nil {
		pdfURL = work.PrimaryLocation.PDFURL
	}
	if pdfURL == "" && work.OpenAccess != nil {
		pdfURL = work.OpenAccess.OAURL
	}
	if pdfURL == "" {
		return models.DownloadResult{}, fedErrors.NewNotFoundError("pdf", "No PDF available")
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

func (p *Provider) fetchRaw(ctx context.Context, id string) (Work, error) {
	var body []byte
	err := p.rt.Call(ctx, "get_work", func() error {
		b, callErr := p.get(ctx, "/works/"+url.PathEscape(id)+"?"+p.withMailto(url.Values{}))
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return Work{}, err
	}
	var w Work
	if err := json.Unmarshal(body, &w); err != nil {
		return Work{}, fedErrors.NewParseError(providerID, "malformed work response", err)
	}
	return w, nil
}

func (p *Provider) list(ctx context.Context, operation, path string) (WorksResponse, error) {
	var body []byte
	err := p.rt.Call(ctx, operation, func() error {
		b, callErr := p.get(ctx, path)
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return WorksResponse{}, err
	}

	var resp WorksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return WorksResponse{}, fedErrors.NewParseError(providerID, "malformed works response", err)
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

func (p *Provider) withMailto(params url.Values) string {
	if p.mailto != "" {
		params.Set("mailto", p.mailto)
	}
	return params.Encode()
}

// yearFilter reproduces spec.md §4.5's OpenAlex quirk: a bare year filters
// to that year exactly; a "YYYY-" suffix means "from that year onwards".
func yearFilter(year string) string {
	if year == "" {
		return ""
	}
	if strings.HasSuffix(year, "-") {
		from := strings.TrimSuffix(year, "-")
		if y, err := strconv.Atoi(from); err == nil {
			// OpenAlex's ">" is strict, so include the start year via y-1.
			return "filter=publication_year:>" + strconv.Itoa(y-1)
		}
		return "filter=publication_year:>" + from
	}
	return "filter=publication_year:" + year
}

func (p *Provider) convert(w Work) models.Paper {
	authors := make([]string, 0, len(w.Authorships))
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			authors = append(authors, a.Author.DisplayName)
		}
	}

	categories := make([]string, 0, len(w.Concepts))
	for _, c := range w.Concepts {
		if c.DisplayName != "" {
			categories = append(categories, c.DisplayName)
		}
	}

	title := w.Title
	if title == "" {
		title = w.DisplayName
	}

	link := w.ID
	b := models.NewBuilder(w.ID, title, link, models.SourceOpenAlex).
		WithAuthors(authors...).
		WithAbstract(reconstructAbstract(w.AbstractInvertedIndex)).
		WithCategories(categories...).
		WithCitations(uint64(max(w.CitedByCount, 0)))

	if w.PublicationYear > 0 {
		b = b.WithPublishedDate(strconv.Itoa(w.PublicationYear) + "-01-01")
	}
	if w.DOI != "" {
		b = b.WithDOI(strings.TrimPrefix(w.DOI, "https://doi.org/"))
	}
	if w.PrimaryLocation != nil && w.PrimaryLocation.PDFURL != "" {
		b = b.WithPDFURL(w.PrimaryLocation.PDFURL)
	}

	return b.Build()
}

// reconstructAbstract rebuilds plain text from OpenAlex's inverted index
// representation (word -> positions).
func reconstructAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}

	maxPos := 0
	for _, positions := range index {
		for _, pos := range positions {
			if pos > maxPos {
				maxPos = pos
			}
		}
	}

	words := make([]string, maxPos+1)
	for word, positions := range index {
		for _, pos := range positions {
			words[pos] = word
		}
	}

	return strings.TrimSpace(strings.Join(words, " "))
}
