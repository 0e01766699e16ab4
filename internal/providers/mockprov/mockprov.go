// Package mockprov is a test-only Provider implementation used by registry,
// router, and orchestrator tests in place of a real adapter.
package mockprov

import (
	"context"

	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
	"research-master/internal/providers"
)

// Provider is a configurable in-memory stand-in for a real adapter.
type Provider struct {
	providers.Base
	SearchResult models.SearchResponse
	SearchErr    error
	Papers       map[string]models.Paper
	Calls        int
}

// New builds a mock with id/name/capabilities and no canned behavior; set
// fields directly before use.
func New(id, name string, capabilities providers.Capability) *Provider {
	return &Provider{Base: providers.NewBase(id, name, capabilities), Papers: make(map[string]models.Paper)}
}

func (p *Provider) Search(ctx context.Context, query models.SearchQuery) (models.SearchResponse, error) {
	p.Calls++
	if p.SearchErr != nil {
		return models.SearchResponse{}, p.SearchErr
	}
	return p.SearchResult, nil
}

func (p *Provider) GetByID(ctx context.Context, id string) (models.Paper, error) {
	p.Calls++
	if paper, ok := p.Papers[id]; ok {
		return paper, nil
	}
	return models.Paper{}, fedErrors.NewNotFoundError(p.ID(), id)
}

func (p *Provider) GetByDOI(ctx context.Context, doi string) (models.Paper, error) {
	p.Calls++
	for _, paper := range p.Papers {
		if paper.DOI != nil && *paper.DOI == doi {
			return paper, nil
		}
	}
	return models.Paper{}, fedErrors.NewNotFoundError(p.ID(), doi)
}

func (p *Provider) ValidateID(id string) error { return nil }
