// Package service is the single domain facade behind every transport
// (mcprpc's stdio tools, rpchttp's HTTP tools, and cmd/cli's subcommands):
// it composes the registry, router, orchestrator, cache, deduplicator, and
// PDF extractor into the nine tool-level operations of spec.md §6, so none
// of the three transports duplicates that composition.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"research-master/internal/cache"
	"research-master/internal/dedup"
	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
	"research-master/internal/orchestrator"
	"research-master/internal/pdf"
	"research-master/internal/providers"
	"research-master/internal/registry"
	"research-master/internal/router"
	"research-master/internal/validate"
)

// Service is the composed application core. Safe for concurrent use: every
// field it holds is itself safe for concurrent use.
type Service struct {
	reg          *registry.Registry
	orch         *orchestrator.Orchestrator
	cache        *cache.Cache
	downloadsDir string
	organizeByID bool
	logger       *slog.Logger
}

func New(reg *registry.Registry, orch *orchestrator.Orchestrator, c *cache.Cache, downloadsDir string, organizeBySource bool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reg: reg, orch: orch, cache: c, downloadsDir: downloadsDir, organizeByID: organizeBySource, logger: logger}
}

// SearchPapers implements tool 1: search_papers.
func (s *Service) SearchPapers(ctx context.Context, query, source string, maxResults int, year, category string) (models.SearchResponse, error) {
	q := models.DefaultSearchQuery(query)
	if maxResults > 0 {
		q.MaxResults = maxResults
	}
	q.Year = year
	q.Category = category
	return s.orch.Search(ctx, q, orchestrator.Options{ProviderID: source})
}

// SearchByAuthor implements tool 2: search_by_author.
func (s *Service) SearchByAuthor(ctx context.Context, author, source string, maxResults int) (models.SearchResponse, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	return s.orch.SearchByAuthor(ctx, author, maxResults, "", orchestrator.Options{ProviderID: source})
}

// GetPaper implements tool 3: get_paper. With no explicit source, the id
// auto-router (C9) picks the provider.
func (s *Service) GetPaper(ctx context.Context, paperID, source string) (models.Paper, error) {
	if err := validate.PaperID(paperID); err != nil {
		return models.Paper{}, err
	}
	p, err := s.resolveProvider(paperID, source)
	if err != nil {
		return models.Paper{}, err
	}
	return p.GetByID(ctx, paperID)
}

// DownloadPaper implements tool 4: download_paper.
func (s *Service) DownloadPaper(ctx context.Context, paperID, source, outputPath string, autoFilename bool) (models.DownloadResult, error) {
	if err := validate.PaperID(paperID); err != nil {
		return models.DownloadResult{}, err
	}
	p, err := s.resolveProvider(paperID, source)
	if err != nil {
		return models.DownloadResult{}, err
	}

	if outputPath == "" {
		outputPath = s.downloadsDir
	}
	if s.organizeByID {
		outputPath = filepath.Join(outputPath, p.ID())
	}
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return models.DownloadResult{}, fedErrors.NewError(fedErrors.KindIO, "DOWNLOAD_DIR", "could not create download directory").WithCause(err).Build()
	}

	savePath := outputPath
	if autoFilename {
		name, err := validate.Filename(paperID + ".pdf")
		if err != nil {
			return models.DownloadResult{}, err
		}
		savePath = filepath.Join(outputPath, name)
	}

	return p.Download(ctx, models.DownloadRequest{PaperID: paperID, SavePath: savePath})
}

// ReadPaper implements tool 5: read_paper.
func (s *Service) ReadPaper(ctx context.Context, paperID, source string) (models.ReadResult, error) {
	if err := validate.PaperID(paperID); err != nil {
		return models.ReadResult{}, err
	}
	p, err := s.resolveProvider(paperID, source)
	if err != nil {
		return models.ReadResult{}, err
	}
	savePath := filepath.Join(s.downloadsDir, fmt.Sprintf("%s.pdf", sanitizeForPath(paperID)))
	return p.Read(ctx, models.DefaultReadRequest(paperID, savePath))
}

// GetCitations implements tool 6: get_citations.
func (s *Service) GetCitations(ctx context.Context, paperID, source string, maxResults int) (models.SearchResponse, error) {
	req := models.DefaultCitationRequest(paperID)
	if maxResults > 0 {
		req.MaxResults = maxResults
	}
	if source == "" {
		source = "semantic"
	}
	return s.orch.GetCitations(ctx, req, orchestrator.Options{ProviderID: source})
}

// GetReferences implements tool 7: get_references.
func (s *Service) GetReferences(ctx context.Context, paperID, source string, maxResults int) (models.SearchResponse, error) {
	req := models.DefaultCitationRequest(paperID)
	if maxResults > 0 {
		req.MaxResults = maxResults
	}
	if source == "" {
		source = "semantic"
	}
	return s.orch.GetReferences(ctx, req, orchestrator.Options{ProviderID: source})
}

// GetRelated backs the CLI's "related" subcommand, which has no matching
// numbered tool but shares the citation fan-out shape.
func (s *Service) GetRelated(ctx context.Context, paperID, source string, maxResults int) (models.SearchResponse, error) {
	req := models.DefaultCitationRequest(paperID)
	if maxResults > 0 {
		req.MaxResults = maxResults
	}
	return s.orch.GetRelated(ctx, req, orchestrator.Options{ProviderID: source})
}

// LookupByDOI implements tool 8: lookup_by_doi.
func (s *Service) LookupByDOI(ctx context.Context, doi, source string) (models.Paper, error) {
	if err := validate.DOI(doi); err != nil {
		return models.Paper{}, err
	}
	return s.orch.GetByDOI(ctx, doi, orchestrator.Options{ProviderID: source})
}

// DeduplicatePapers implements tool 9: deduplicate_papers.
func (s *Service) DeduplicatePapers(papers []models.Paper, strategy string) dedup.Result {
	strat := dedup.Strategy(strategy)
	switch strat {
	case dedup.First, dedup.Last, dedup.Mark:
	default:
		strat = dedup.First
	}
	return dedup.Deduplicate(papers, strat)
}

// Sources lists every registered provider id, name, and capability bitset,
// for the CLI's "sources" subcommand and the HTTP surface's /v1/sources.
func (s *Service) Sources() []SourceInfo {
	all := s.reg.All()
	out := make([]SourceInfo, 0, len(all))
	for _, p := range all {
		out = append(out, SourceInfo{
			ID:   p.ID(),
			Name: p.Name(),
			Capabilities: CapabilityInfo{
				Search:       p.SupportsSearch(),
				Download:     p.SupportsDownload(),
				Read:         p.SupportsRead(),
				Citations:    p.SupportsCitations(),
				DOILookup:    p.SupportsDOILookup(),
				AuthorSearch: p.SupportsAuthorSearch(),
			},
		})
	}
	return out
}

type SourceInfo struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Capabilities CapabilityInfo `json:"capabilities"`
}

type CapabilityInfo struct {
	Search       bool `json:"search"`
	Download     bool `json:"download"`
	Read         bool `json:"read"`
	Citations    bool `json:"citations"`
	DOILookup    bool `json:"doi_lookup"`
	AuthorSearch bool `json:"author_search"`
}

// CacheStats surfaces the disk cache's stats for the CLI's "cache status".
func (s *Service) CacheStats() cache.Stats {
	if s.cache == nil {
		return cache.Stats{}
	}
	return s.cache.Stats()
}

// PDFAvailable reports whether the local PDF extractor is usable, surfaced
// alongside Sources for operational visibility.
func (s *Service) PDFAvailable() bool {
	return pdf.IsAvailable()
}

func (s *Service) resolveProvider(paperID, source string) (providers.Provider, error) {
	if source != "" {
		return s.reg.GetRequired(source)
	}
	return router.Route(s.reg, paperID)
}

func sanitizeForPath(id string) string {
	clean, err := validate.Filename(id)
	if err != nil {
		return "paper"
	}
	return clean
}
