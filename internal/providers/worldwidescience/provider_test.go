package worldwidescience_test

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
	"research-master/internal/providers/worldwidescience"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("worldwidescience", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

func TestSearchParsesDocs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"numFound": 1, "docs": [{"id": "wws1", "title": "A Federated Record", "snippet": "An abstract.", "authors": ["Ada Lovelace"], "date": "2017", "source_db": "osti"}]}`))
	}))
	defer server.Close()

	p := worldwidescience.New(newRuntime(), server.URL)
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "x"})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "A Federated Record", resp.Papers[0].Title)
	assert.Equal(t, "https://worldwidescience.org/wws/public/doc/wws1", resp.Papers[0].URL)
}

func TestSearchUsesDocURLWhenPresent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"numFound": 1, "docs": [{"id": "wws2", "title": "Another Record", "url": "https://example.org/doc/wws2"}]}`))
	}))
	defer server.Close()

	p := worldwidescience.New(newRuntime(), server.URL)
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "x"})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "https://example.org/doc/wws2", resp.Papers[0].URL)
}
