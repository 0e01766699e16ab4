package doaj_test

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
	"research-master/internal/providers/doaj"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("doaj", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

const resultsBody = `{"total_results": 1, "results": [{"id": "abc", "doi": "10.1/doaj", "title": "A DOAJ Article", "abstract": "An abstract.", "publication_year": "2019", "authors": [{"name": "Ada Lovelace"}]}]}`

func TestSearchParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(resultsBody))
	}))
	defer server.Close()

	p := doaj.New(newRuntime(), server.URL)
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "x", MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "A DOAJ Article", resp.Papers[0].Title)
}
