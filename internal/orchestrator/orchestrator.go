// Package orchestrator implements the federation orchestrator (C12): it
// fans a single client intent out across every provider that owns the
// needed capability, consults the disk cache per provider, merges results,
// and optionally deduplicates, per spec.md §4.8.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"research-master/internal/cache"
	"research-master/internal/config"
	"research-master/internal/dedup"
	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
	"research-master/internal/providers"
	"research-master/internal/registry"
)

// DefaultMaxConcurrency bounds parallel provider fan-out per spec.md §5.
const DefaultMaxConcurrency = 10

// Orchestrator composes the registry and the disk cache into the fan-out
// algorithm of spec.md §4.8.
type Orchestrator struct {
	reg            *registry.Registry
	cache          *cache.Cache
	logger         *slog.Logger
	maxConcurrency int

	onFanOutComplete func(operation, query string, providerCount, successCount int)
}

func New(reg *registry.Registry, c *cache.Cache, logger *slog.Logger, maxConcurrency int) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Orchestrator{reg: reg, cache: c, logger: logger, maxConcurrency: maxConcurrency}
}

// SetOnFanOutComplete registers a hook invoked once per merge, summarizing
// how many of the candidate providers contributed. Wire this to an
// events.Bus's PublishFanOutCompleted.
func (o *Orchestrator) SetOnFanOutComplete(hook func(operation, query string, providerCount, successCount int)) {
	o.onFanOutComplete = hook
}

// Options controls a single fan-out call.
type Options struct {
	// ProviderID restricts the call to one explicit provider. Empty means
	// fan out to every provider with the needed capability.
	ProviderID string
	Dedupe     bool
	Strategy   dedup.Strategy
}

// beginRequest propagates an already-stamped config.RequestContext (set by a
// transport's request-id middleware) onto ctx, or mints a fresh one when
// called directly (e.g. from the CLI, or from tests), so every provider
// call, cache write, and completion log line for one request shares a
// single request id.
func (o *Orchestrator) beginRequest(ctx context.Context, operation string) (context.Context, *config.RequestContext) {
	if reqCtx, ok := config.GetRequestContext(ctx); ok {
		return ctx, reqCtx
	}
	reqCtx := config.NewRequestContext(operation)
	return config.WithRequestContext(ctx, reqCtx), reqCtx
}

func (o *Orchestrator) resolveProviders(cap providers.Capability, providerID string) ([]providers.Provider, error) {
	if providerID != "" {
		p, err := o.reg.GetRequired(providerID)
		if err != nil {
			return nil, err
		}
		return []providers.Provider{p}, nil
	}
	candidates := o.reg.WithCapability(cap)
	if len(candidates) == 0 {
		return nil, fedErrors.NewError(fedErrors.KindInvalidRequest, "NO_CANDIDATE_PROVIDERS",
			"no registered provider owns the requested capability").Build()
	}
	return candidates, nil
}

type perProviderResult struct {
	provider string
	response models.SearchResponse
	err      error
}

// Search fans a keyword search out across every capable provider (or a
// single overridden one), consulting the cache per provider, per spec.md
// §4.8 steps 1-5.
func (o *Orchestrator) Search(ctx context.Context, query models.SearchQuery, opts Options) (models.SearchResponse, error) {
	ctx, reqCtx := o.beginRequest(ctx, "search")
	candidates, err := o.resolveProviders(providers.CapSearch, opts.ProviderID)
	if err != nil {
		return models.SearchResponse{}, err
	}

	results := o.fanOut(ctx, candidates, func(ctx context.Context, p providers.Provider) (models.SearchResponse, bool) {
		key := cache.SearchKey(query.Query, p.ID(), query.MaxResults, query.Year, query.Author, query.Category)
		if o.cache != nil {
			if resp, outcome := o.cache.GetSearch(key); outcome == cache.Hit {
				config.DebugWithContext(ctx, o.logger, "cache hit", slog.String("provider", p.ID()))
				return resp, true
			}
		}
		resp, err := p.Search(ctx, query)
		if err != nil {
			config.WarnWithContext(ctx, o.logger, "provider search failed, excluding from fan-out", slog.String("provider", p.ID()), slog.String("error", err.Error()))
			return models.SearchResponse{}, false
		}
		if o.cache != nil {
			o.cache.SetSearch(key, p.ID(), query.Query, resp, reqCtx.RequestID)
		}
		return resp, true
	})

	return o.merge(ctx, "search", results, len(candidates), query.Query, opts)
}

// SearchByAuthor mirrors Search for the author-search operation.
func (o *Orchestrator) SearchByAuthor(ctx context.Context, author string, maxResults int, year string, opts Options) (models.SearchResponse, error) {
	ctx, _ = o.beginRequest(ctx, "search_by_author")
	candidates, err := o.resolveProviders(providers.CapAuthorSearch, opts.ProviderID)
	if err != nil {
		return models.SearchResponse{}, err
	}

	results := o.fanOut(ctx, candidates, func(ctx context.Context, p providers.Provider) (models.SearchResponse, bool) {
		resp, err := p.SearchByAuthor(ctx, author, maxResults, year)
		if err != nil {
			config.WarnWithContext(ctx, o.logger, "provider author search failed, excluding from fan-out", slog.String("provider", p.ID()), slog.String("error", err.Error()))
			return models.SearchResponse{}, false
		}
		return resp, true
	})

	return o.merge(ctx, "search_by_author", results, len(candidates), author, opts)
}

// citationOp is GetCitations, GetReferences, or GetRelated: same cache key
// shape, same fan-out semantics, different upstream verb.
type citationOp func(ctx context.Context, p providers.Provider, req models.CitationRequest) (models.SearchResponse, error)

func (o *Orchestrator) citationFanOut(ctx context.Context, operation string, req models.CitationRequest, opts Options, op citationOp) (models.SearchResponse, error) {
	ctx, reqCtx := o.beginRequest(ctx, operation)
	candidates, err := o.resolveProviders(providers.CapCitations, opts.ProviderID)
	if err != nil {
		return models.SearchResponse{}, err
	}

	results := o.fanOut(ctx, candidates, func(ctx context.Context, p providers.Provider) (models.SearchResponse, bool) {
		key := cache.CitationKey(req.PaperID, p.ID(), req.MaxResults)
		if o.cache != nil {
			if resp, outcome := o.cache.GetCitations(key); outcome == cache.Hit {
				config.DebugWithContext(ctx, o.logger, "cache hit", slog.String("provider", p.ID()))
				return resp, true
			}
		}
		resp, err := op(ctx, p, req)
		if err != nil {
			config.WarnWithContext(ctx, o.logger, "provider citation lookup failed, excluding from fan-out", slog.String("provider", p.ID()), slog.String("error", err.Error()))
			return models.SearchResponse{}, false
		}
		if o.cache != nil {
			o.cache.SetCitations(key, p.ID(), req.PaperID, resp, reqCtx.RequestID)
		}
		return resp, true
	})

	return o.merge(ctx, operation, results, len(candidates), req.PaperID, opts)
}

func (o *Orchestrator) GetCitations(ctx context.Context, req models.CitationRequest, opts Options) (models.SearchResponse, error) {
	return o.citationFanOut(ctx, "get_citations", req, opts, func(ctx context.Context, p providers.Provider, r models.CitationRequest) (models.SearchResponse, error) {
		return p.GetCitations(ctx, r)
	})
}

func (o *Orchestrator) GetReferences(ctx context.Context, req models.CitationRequest, opts Options) (models.SearchResponse, error) {
	return o.citationFanOut(ctx, "get_references", req, opts, func(ctx context.Context, p providers.Provider, r models.CitationRequest) (models.SearchResponse, error) {
		return p.GetReferences(ctx, r)
	})
}

func (o *Orchestrator) GetRelated(ctx context.Context, req models.CitationRequest, opts Options) (models.SearchResponse, error) {
	return o.citationFanOut(ctx, "get_related", req, opts, func(ctx context.Context, p providers.Provider, r models.CitationRequest) (models.SearchResponse, error) {
		return p.GetRelated(ctx, r)
	})
}

// GetByDOI implements spec.md §4.8 step 6: iterate DOI-capable providers and
// return the first success, rather than concatenating.
func (o *Orchestrator) GetByDOI(ctx context.Context, doi string, opts Options) (models.Paper, error) {
	ctx, _ = o.beginRequest(ctx, "get_by_doi")
	candidates, err := o.resolveProviders(providers.CapDOILookup, opts.ProviderID)
	if err != nil {
		return models.Paper{}, err
	}

	var lastErr error
	for _, p := range candidates {
		paper, err := p.GetByDOI(ctx, doi)
		if err == nil {
			return paper, nil
		}
		lastErr = err
		config.WarnWithContext(ctx, o.logger, "provider DOI lookup failed, trying next", slog.String("provider", p.ID()), slog.String("error", err.Error()))
	}

	return models.Paper{}, fedErrors.NewError(fedErrors.KindNotFound, "DOI_NOT_FOUND",
		"no provider resolved this DOI").WithCause(lastErr).WithDetail("doi", doi).Build()
}

// fanOut runs fn concurrently across candidates, bounded by the
// orchestrator's concurrency semaphore, and collects only the successes.
func (o *Orchestrator) fanOut(ctx context.Context, candidates []providers.Provider, fn func(context.Context, providers.Provider) (models.SearchResponse, bool)) []perProviderResult {
	sem := make(chan struct{}, o.maxConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var results []perProviderResult

	for _, p := range candidates {
		wg.Add(1)
		go func(p providers.Provider) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			resp, ok := fn(ctx, p)
			if !ok {
				return
			}
			mu.Lock()
			results = append(results, perProviderResult{provider: p.ID(), response: resp})
			mu.Unlock()
		}(p)
	}
	wg.Wait()
	return results
}

// merge concatenates surviving per-provider responses (order is
// unspecified, per spec.md §4.8 step 4) and optionally deduplicates. Only
// when every provider fails does this surface an error.
func (o *Orchestrator) merge(ctx context.Context, operation string, results []perProviderResult, candidateCount int, query string, opts Options) (models.SearchResponse, error) {
	if o.onFanOutComplete != nil {
		defer func() { o.onFanOutComplete(operation, query, candidateCount, len(results)) }()
	}
	if len(results) == 0 {
		config.WarnWithContext(ctx, o.logger, "all providers failed for fan-out", slog.String("operation", operation), slog.Int("candidates", candidateCount))
		return models.SearchResponse{}, fedErrors.NewError(fedErrors.KindOther, "ALL_PROVIDERS_FAILED",
			"every provider for this operation failed or returned nothing").Build()
	}

	var papers []models.Paper
	total := 0
	hasMore := false
	for _, r := range results {
		papers = append(papers, r.response.Papers...)
		total += r.response.TotalResults
		hasMore = hasMore || r.response.HasMore
	}

	if opts.Dedupe {
		dedupResult := dedup.Deduplicate(papers, opts.Strategy)
		papers = dedupResult.Kept
	}

	config.InfoWithContext(ctx, o.logger, "fan-out complete", slog.String("operation", operation), slog.Int("candidates", candidateCount), slog.Int("succeeded", len(results)), slog.Int("papers", len(papers)))

	return models.SearchResponse{
		Papers:       papers,
		TotalResults: total,
		Source:       "federated",
		Query:        query,
		HasMore:      hasMore,
	}, nil
}
