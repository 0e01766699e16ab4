package europepmc_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fedErrors "research-master/internal/errors"
	"research-master/internal/httpclient"
	"research-master/internal/models"
	"research-master/internal/providers"
	"research-master/internal/providers/europepmc"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("europepmc", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

func TestSearchParsesResultList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hitCount": 1, "resultList": {"result": [{"id": "PMC123", "source": "PMC", "title": "A Biomedical Study", "abstractText": "An abstract.", "authorString": "Ada Lovelace", "pubYear": "2022", "citedByCount": 3}]}}`))
	}))
	defer server.Close()

	p := europepmc.New(newRuntime(), server.URL)
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "biomedical"})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "A Biomedical Study", resp.Papers[0].Title)
	assert.Equal(t, "https://europepmc.org/article/PMC/PMC123", resp.Papers[0].URL)
}

func TestGetCitationsParsesCitationList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"citationList": {"citation": [{"id": "PMC999", "title": "A Citing Study", "source": "PMC", "pubYear": "2023"}]}}`))
	}))
	defer server.Close()

	p := europepmc.New(newRuntime(), server.URL)
	resp, err := p.GetCitations(context.Background(), models.CitationRequest{PaperID: "PMC123"})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "PMC999", resp.Papers[0].PaperID)
}
