package ieeexplore_test

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
	"research-master/internal/providers/ieeexplore"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("ieee_xplore", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

const articleBody = `{
  "total_records": 1,
  "articles": [{
    "article_number": "8765432",
    "doi": "10.1109/EX.2021.1",
    "title": "A Study of Signal Processing",
    "abstract": "An abstract.",
    "publication_date": "2021-03-01",
    "authors": {"authors": [{"full_name": "Ada Lovelace"}]},
    "citing_paper_count": 4
  }]
}`

func TestSearchParsesArticles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articleBody))
	}))
	defer server.Close()

	p := ieeexplore.New(newRuntime(), server.URL, "mykey")
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "signal processing"})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "A Study of Signal Processing", resp.Papers[0].Title)
	assert.Equal(t, "8765432", resp.Papers[0].PaperID)
}

func TestGetByDOIReturnsNotFoundWhenEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_records": 0, "articles": []}`))
	}))
	defer server.Close()

	p := ieeexplore.New(newRuntime(), server.URL, "mykey")
	_, err := p.GetByDOI(context.Background(), "10.1109/missing")
	assert.Error(t, err)
}
