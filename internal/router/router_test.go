package router_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-master/internal/providers"
	"research-master/internal/providers/mockprov"
	"research-master/internal/registry"
	"research-master/internal/router"
)

func buildRegistry(t *testing.T, ids ...string) *registry.Registry {
	t.Helper()
	var adapters []providers.Provider
	for _, id := range ids {
		caps := providers.CapSearch
		if id == "semantic" {
			caps |= providers.CapDOILookup
		}
		adapters = append(adapters, mockprov.New(id, id, caps))
	}
	reg, err := registry.New(adapters, registry.Options{}, nil)
	require.NoError(t, err)
	return reg
}

func TestRouteArxivPrefixAndBareID(t *testing.T) {
	reg := buildRegistry(t, "arxiv", "semantic")

	p, err := router.Route(reg, "arXiv:2301.12345")
	require.NoError(t, err)
	assert.Equal(t, "arxiv", p.ID())

	p, err = router.Route(reg, "2301.12345")
	require.NoError(t, err)
	assert.Equal(t, "arxiv", p.ID())
}

func TestRoutePMCPrefix(t *testing.T) {
	reg := buildRegistry(t, "pmc", "arxiv")
	p, err := router.Route(reg, "PMC1234567")
	require.NoError(t, err)
	assert.Equal(t, "pmc", p.ID())
}

func TestRouteHALPrefix(t *testing.T) {
	reg := buildRegistry(t, "hal", "arxiv")
	p, err := router.Route(reg, "hal-01234567")
	require.NoError(t, err)
	assert.Equal(t, "hal", p.ID())
}

func TestRouteSingleSlashGoesToIACR(t *testing.T) {
	reg := buildRegistry(t, "iacr", "arxiv")
	p, err := router.Route(reg, "2023/456")
	require.NoError(t, err)
	assert.Equal(t, "iacr", p.ID())
}

func TestRouteDOIPrefersSemanticScholar(t *testing.T) {
	reg := buildRegistry(t, "semantic", "arxiv")
	p, err := router.Route(reg, "10.1000/xyz123")
	require.NoError(t, err)
	assert.Equal(t, "semantic", p.ID())
}

func TestRouteDefaultFallsBackToArxivThenSemantic(t *testing.T) {
	reg := buildRegistry(t, "semantic")
	p, err := router.Route(reg, "some-opaque-id")
	require.NoError(t, err)
	assert.Equal(t, "semantic", p.ID())
}

func TestRouteErrorsWhenNoCandidateRegistered(t *testing.T) {
	reg := buildRegistry(t, "pubmed")
	_, err := router.Route(reg, "10.1000/xyz123")
	assert.Error(t, err)
}
