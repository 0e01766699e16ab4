// Package providers defines the provider plugin abstraction (C6): a
// capability-tagged adapter over one external scholarly API.
package providers

import (
	"context"

	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
)

// Capability is one bit in the six-flag set of spec.md §3.
type Capability uint8

const (
	CapSearch Capability = 1 << iota
	CapDownload
	CapRead
	CapCitations
	CapDOILookup
	CapAuthorSearch
)

// Has reports whether all bits in want are set in c.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// Provider is implemented by every adapter. Operations outside an adapter's
// advertised capabilities return NotImplemented via the Base embed.
type Provider interface {
	ID() string
	Name() string
	Capabilities() Capability

	Search(ctx context.Context, query models.SearchQuery) (models.SearchResponse, error)
	SearchByAuthor(ctx context.Context, author string, maxResults int, year string) (models.SearchResponse, error)
	GetByDOI(ctx context.Context, doi string) (models.Paper, error)
	GetByID(ctx context.Context, id string) (models.Paper, error)
	GetCitations(ctx context.Context, req models.CitationRequest) (models.SearchResponse, error)
	GetReferences(ctx context.Context, req models.CitationRequest) (models.SearchResponse, error)
	GetRelated(ctx context.Context, req models.CitationRequest) (models.SearchResponse, error)
	Download(ctx context.Context, req models.DownloadRequest) (models.DownloadResult, error)
	Read(ctx context.Context, req models.ReadRequest) (models.ReadResult, error)
	ValidateID(id string) error

	SupportsSearch() bool
	SupportsDownload() bool
	SupportsRead() bool
	SupportsCitations() bool
	SupportsDOILookup() bool
	SupportsAuthorSearch() bool
}

// Base implements Provider with "not implemented" stubs for every
// operation. Adapters embed Base and override only what their capability
// bitset advertises.
type Base struct {
	id           string
	name         string
	capabilities Capability
}

func NewBase(id, name string, capabilities Capability) Base {
	return Base{id: id, name: name, capabilities: capabilities}
}

func (b Base) ID() string                 { return b.id }
func (b Base) Name() string               { return b.name }
func (b Base) Capabilities() Capability   { return b.capabilities }
func (b Base) SupportsSearch() bool       { return b.capabilities.Has(CapSearch) }
func (b Base) SupportsDownload() bool     { return b.capabilities.Has(CapDownload) }
func (b Base) SupportsRead() bool         { return b.capabilities.Has(CapRead) }
func (b Base) SupportsCitations() bool    { return b.capabilities.Has(CapCitations) }
func (b Base) SupportsDOILookup() bool    { return b.capabilities.Has(CapDOILookup) }
func (b Base) SupportsAuthorSearch() bool { return b.capabilities.Has(CapAuthorSearch) }

func (b Base) notImplemented(operation string) error {
	return fedErrors.NewNotImplementedError(b.id, operation)
}

func (b Base) Search(ctx context.Context, query models.SearchQuery) (models.SearchResponse, error) {
	return models.SearchResponse{}, b.notImplemented("search")
}

func (b Base) SearchByAuthor(ctx context.Context, author string, maxResults int, year string) (models.SearchResponse, error) {
	return models.SearchResponse{}, b.notImplemented("search_by_author")
}

func (b Base) GetByDOI(ctx context.Context, doi string) (models.Paper, error) {
	return models.Paper{}, b.notImplemented("get_by_doi")
}

func (b Base) GetByID(ctx context.Context, id string) (models.Paper, error) {
	return models.Paper{}, b.notImplemented("get_by_id")
}

func (b Base) GetCitations(ctx context.Context, req models.CitationRequest) (models.SearchResponse, error) {
	return models.SearchResponse{}, b.notImplemented("get_citations")
}

func (b Base) GetReferences(ctx context.Context, req models.CitationRequest) (models.SearchResponse, error) {
	return models.SearchResponse{}, b.notImplemented("get_references")
}

func (b Base) GetRelated(ctx context.Context, req models.CitationRequest) (models.SearchResponse, error) {
	return models.SearchResponse{}, b.notImplemented("get_related")
}

func (b Base) Download(ctx context.Context, req models.DownloadRequest) (models.DownloadResult, error) {
	return models.DownloadResult{}, b.notImplemented("download")
}

func (b Base) Read(ctx context.Context, req models.ReadRequest) (models.ReadResult, error) {
	return models.ReadResult{}, b.notImplemented("read")
}

func (b Base) ValidateID(id string) error {
	return nil
}
