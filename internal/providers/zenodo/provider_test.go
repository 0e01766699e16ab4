package zenodo_test

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
	"research-master/internal/providers/zenodo"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("zenodo", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

const hitsBody = `{
  "hits": {
    "total": {"value": 1},
    "hits": [{
      "id": 555,
      "metadata": {
        "title": "A Zenodo Record",
        "description": "An abstract.",
        "doi": "10.1/zen",
        "publication_date": "2020-01-01",
        "creators": [{"name": "Ada Lovelace"}]
      },
      "links": {"html": "https://zenodo.org/record/555"}
    }]
  }
}`

func TestSearchParsesHits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(hitsBody))
	}))
	defer server.Close()

	p := zenodo.New(newRuntime(), server.URL)
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "x", MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "A Zenodo Record", resp.Papers[0].Title)
	assert.Equal(t, "555", resp.Papers[0].PaperID)
}

func TestGetByDOIReturnsNotFoundWhenEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hits": {"total": {"value": 0}, "hits": []}}`))
	}))
	defer server.Close()

	p := zenodo.New(newRuntime(), server.URL)
	_, err := p.GetByDOI(context.Background(), "10.1/missing")
	assert.Error(t, err)
}
