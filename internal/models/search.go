package models

import "time"

// SortBy enumerates the sort dimensions a SearchQuery may request.
type SortBy string

const (
	SortRelevance     SortBy = "relevance"
	SortDate          SortBy = "date"
	SortCitationCount SortBy = "citation_count"
	SortTitle         SortBy = "title"
	SortAuthor        SortBy = "author"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// SearchQuery is the internal representation of a keyword search request,
// per spec.md §3.
type SearchQuery struct {
	Query        string            `json:"query" validate:"required,min=1,max=1000"`
	MaxResults   int               `json:"max_results" validate:"min=1,max=1000"`
	Year         string            `json:"year,omitempty"`
	SortBy       SortBy            `json:"sort_by,omitempty"`
	SortOrder    SortOrder         `json:"sort_order,omitempty"`
	Filters      map[string]string `json:"filters,omitempty"`
	Author       string            `json:"author,omitempty"`
	Category     string            `json:"category,omitempty"`
	FetchDetails bool              `json:"fetch_details"`
}

// DefaultSearchQuery mirrors the field defaults named in spec.md §3.
func DefaultSearchQuery(query string) SearchQuery {
	return SearchQuery{
		Query:        query,
		MaxResults:   10,
		FetchDetails: true,
	}
}

// DownloadRequest asks a provider to fetch a paper's PDF to disk.
type DownloadRequest struct {
	PaperID  string  `json:"paper_id" validate:"required"`
	SavePath string  `json:"save_path" validate:"required"`
	DOI      *string `json:"doi,omitempty"`
}

// ReadRequest asks a provider to extract plain text from a paper's PDF.
type ReadRequest struct {
	PaperID           string `json:"paper_id" validate:"required"`
	SavePath          string `json:"save_path" validate:"required"`
	DownloadIfMissing bool   `json:"download_if_missing"`
}

func DefaultReadRequest(paperID, savePath string) ReadRequest {
	return ReadRequest{PaperID: paperID, SavePath: savePath, DownloadIfMissing: true}
}

// CitationRequest asks a provider for citations, references, or related works.
type CitationRequest struct {
	PaperID    string `json:"paper_id" validate:"required"`
	MaxResults int    `json:"max_results" validate:"min=1,max=1000"`
}

func DefaultCitationRequest(paperID string) CitationRequest {
	return CitationRequest{PaperID: paperID, MaxResults: 20}
}

// SearchResponse is the uniform result envelope every provider returns and
// the orchestrator merges, matching the cache file format of spec.md §4.11.
type SearchResponse struct {
	Papers       []Paper `json:"papers"`
	TotalResults int     `json:"total_results"`
	Source       string  `json:"source"`
	Query        string  `json:"query"`
	HasMore      bool    `json:"has_more"`
}

// DownloadResult is returned by a provider's download operation.
type DownloadResult struct {
	PaperID  string `json:"paper_id"`
	SavePath string `json:"save_path"`
	Bytes    int64  `json:"bytes"`
}

// ReadResult is returned by a provider's read operation. PageCount is a
// heuristic (len(text)/3000), not a ground-truth page count.
type ReadResult struct {
	PaperID   string `json:"paper_id"`
	Text      string `json:"text"`
	PageCount int    `json:"page_count"`
}

// NewReadResult fills PageCount using the heuristic named in spec.md §9.
func NewReadResult(paperID, text string) ReadResult {
	return ReadResult{PaperID: paperID, Text: text, PageCount: len(text) / 3000}
}

// ProviderSearchStat captures one provider's contribution to a fanned-out
// search, used by the orchestrator and surfaced as diagnostics.
type ProviderSearchStat struct {
	Provider    string        `json:"provider"`
	ResultCount int           `json:"result_count"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
	CacheHit    bool          `json:"cache_hit"`
}
