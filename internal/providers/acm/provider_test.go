package acm_test

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
	"research-master/internal/providers/acm"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("acm", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

const searchBody = `{
  "totalResults": 1,
  "items": [{
    "doi": "10.1145/123456",
    "title": "A Study of Distributed Systems",
    "abstract": "An abstract.",
    "authors": ["Grace Hopper"],
    "year": "2021"
  }]
}`

func TestSearchParsesItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchBody))
	}))
	defer server.Close()

	p := acm.New(newRuntime(), server.URL)
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "distributed systems", MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "A Study of Distributed Systems", resp.Papers[0].Title)
	assert.Equal(t, "10.1145/123456", resp.Papers[0].PaperID)
}

func TestGetByDOIReturnsNotFoundWhenEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"totalResults": 0, "items": []}`))
	}))
	defer server.Close()

	p := acm.New(newRuntime(), server.URL)
	_, err := p.GetByDOI(context.Background(), "10.1145/missing")
	assert.Error(t, err)
}
