package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-master/internal/providers"
	"research-master/internal/providers/mockprov"
	"research-master/internal/registry"
)

func sampleAdapters() []providers.Provider {
	return []providers.Provider{
		mockprov.New("arxiv", "arXiv", providers.CapSearch|providers.CapDownload),
		mockprov.New("semantic", "Semantic Scholar", providers.CapSearch|providers.CapCitations|providers.CapDOILookup),
		mockprov.New("pubmed", "PubMed", providers.CapSearch),
	}
}

func TestNewFiltersDisabledOverEnabled(t *testing.T) {
	reg, err := registry.New(sampleAdapters(), registry.Options{
		EnabledSources:  []string{"arxiv", "semantic"},
		DisabledSources: []string{"SEMANTIC"},
	}, nil)
	require.NoError(t, err)

	_, ok := reg.Get("semantic")
	assert.False(t, ok)
	_, ok = reg.Get("arxiv")
	assert.True(t, ok)
	_, ok = reg.Get("pubmed")
	assert.False(t, ok)
}

func TestNewFailsWhenFilterEmptiesRegistry(t *testing.T) {
	_, err := registry.New(sampleAdapters(), registry.Options{
		DisabledSources: []string{"arxiv", "semantic", "pubmed"},
	}, nil)
	assert.Error(t, err)
}

func TestWithCapabilityRequiresAllBits(t *testing.T) {
	reg, err := registry.New(sampleAdapters(), registry.Options{}, nil)
	require.NoError(t, err)

	withDOI := reg.WithCapability(providers.CapDOILookup)
	require.Len(t, withDOI, 1)
	assert.Equal(t, "semantic", withDOI[0].ID())

	assert.Len(t, reg.Searchable(), 3)
}

func TestGetRequiredReturnsNotFound(t *testing.T) {
	reg, err := registry.New(sampleAdapters(), registry.Options{}, nil)
	require.NoError(t, err)

	_, err = reg.GetRequired("unknown")
	assert.Error(t, err)
}

func TestBuildAllSkipsFailingFactories(t *testing.T) {
	factories := map[string]registry.Factory{
		"good": func() (providers.Provider, error) {
			return mockprov.New("good", "Good", providers.CapSearch), nil
		},
		"bad": func() (providers.Provider, error) {
			return nil, assert.AnError
		},
	}
	built := registry.BuildAll(factories, nil)
	assert.Len(t, built, 1)
	assert.Equal(t, "good", built[0].ID())
}
