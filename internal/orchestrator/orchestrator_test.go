package orchestrator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-master/internal/cache"
	"research-master/internal/dedup"
	"research-master/internal/models"
	"research-master/internal/orchestrator"
	"research-master/internal/providers"
	"research-master/internal/providers/mockprov"
	"research-master/internal/registry"
)

func buildRegistry(t *testing.T, adapters ...*mockprov.Provider) *registry.Registry {
	t.Helper()
	var list []providers.Provider
	for _, a := range adapters {
		list = append(list, a)
	}
	reg, err := registry.New(list, registry.Options{}, nil)
	require.NoError(t, err)
	return reg
}

func TestSearchConcatenatesAcrossProviders(t *testing.T) {
	a := mockprov.New("a", "A", providers.CapSearch)
	a.SearchResult = models.SearchResponse{Papers: []models.Paper{models.NewBuilder("p1", "T1", "u", models.SourceArxiv).Build()}, TotalResults: 1}
	b := mockprov.New("b", "B", providers.CapSearch)
	b.SearchResult = models.SearchResponse{Papers: []models.Paper{models.NewBuilder("p2", "T2", "u", models.SourceOpenAlex).Build()}, TotalResults: 1}

	reg := buildRegistry(t, a, b)
	o := orchestrator.New(reg, nil, nil, 4)

	resp, err := o.Search(context.Background(), models.DefaultSearchQuery("q"), orchestrator.Options{})
	require.NoError(t, err)
	assert.Len(t, resp.Papers, 2)
	assert.Equal(t, 2, resp.TotalResults)
}

func TestSearchIsolatesProviderFailures(t *testing.T) {
	a := mockprov.New("a", "A", providers.CapSearch)
	a.SearchResult = models.SearchResponse{Papers: []models.Paper{models.NewBuilder("p1", "T1", "u", models.SourceArxiv).Build()}, TotalResults: 1}
	failing := mockprov.New("f", "F", providers.CapSearch)
	failing.SearchErr = assertAnyError()

	reg := buildRegistry(t, a, failing)
	o := orchestrator.New(reg, nil, nil, 4)

	resp, err := o.Search(context.Background(), models.DefaultSearchQuery("q"), orchestrator.Options{})
	require.NoError(t, err)
	assert.Len(t, resp.Papers, 1)
}

func TestSearchErrorsWhenAllProvidersFail(t *testing.T) {
	failing := mockprov.New("f", "F", providers.CapSearch)
	failing.SearchErr = assertAnyError()

	reg := buildRegistry(t, failing)
	o := orchestrator.New(reg, nil, nil, 4)

	_, err := o.Search(context.Background(), models.DefaultSearchQuery("q"), orchestrator.Options{})
	assert.Error(t, err)
}

func TestSearchDedupesWhenRequested(t *testing.T) {
	a := mockprov.New("a", "A", providers.CapSearch)
	a.SearchResult = models.SearchResponse{Papers: []models.Paper{
		models.NewBuilder("p1", "Same Title", "u", models.SourceArxiv).WithDOI("10.1/x").Build(),
	}}
	b := mockprov.New("b", "B", providers.CapSearch)
	b.SearchResult = models.SearchResponse{Papers: []models.Paper{
		models.NewBuilder("p2", "Same Title", "u", models.SourceOpenAlex).WithDOI("10.1/X").Build(),
	}}

	reg := buildRegistry(t, a, b)
	o := orchestrator.New(reg, nil, nil, 4)

	resp, err := o.Search(context.Background(), models.DefaultSearchQuery("q"), orchestrator.Options{Dedupe: true, Strategy: dedup.First})
	require.NoError(t, err)
	assert.Len(t, resp.Papers, 1)
}

func TestSearchUsesCache(t *testing.T) {
	a := mockprov.New("a", "A", providers.CapSearch)
	a.SearchResult = models.SearchResponse{Papers: []models.Paper{models.NewBuilder("p1", "T1", "u", models.SourceArxiv).Build()}}

	reg := buildRegistry(t, a)
	cfg := cache.DefaultConfig(t.TempDir())
	cfg.Enabled = true
	c := cache.New(cfg, nil)
	o := orchestrator.New(reg, c, nil, 4)

	query := models.DefaultSearchQuery("q")
	_, err := o.Search(context.Background(), query, orchestrator.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, a.Calls)

	_, err = o.Search(context.Background(), query, orchestrator.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, a.Calls, "second call should be served from cache, not hit the provider again")
}

func TestGetByDOIReturnsFirstSuccess(t *testing.T) {
	empty := mockprov.New("empty", "Empty", providers.CapDOILookup)
	hit := mockprov.New("hit", "Hit", providers.CapDOILookup)
	doi := "10.1/found"
	hit.Papers["p1"] = models.NewBuilder("p1", "Found", "u", models.SourceArxiv).WithDOI(doi).Build()

	reg := buildRegistry(t, empty, hit)
	o := orchestrator.New(reg, nil, nil, 4)

	paper, err := o.GetByDOI(context.Background(), doi, orchestrator.Options{})
	require.NoError(t, err)
	assert.Equal(t, "Found", paper.Title)
}

func assertAnyError() error {
	return assertSentinel{}
}

type assertSentinel struct{}

func (assertSentinel) Error() string { return "boom" }
