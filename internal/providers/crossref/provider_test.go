package crossref_test

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
	"research-master/internal/providers/crossref"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("crossref", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

const worksBody = `{
  "message": {
    "total-results": 1,
    "items": [{
      "DOI": "10.1/abc",
      "title": ["A CrossRef Paper"],
      "abstract": "<jats:p>An abstract.</jats:p>",
      "author": [{"given": "Ada", "family": "Lovelace"}],
      "issued": {"date-parts": [[2019, 3]]},
      "is-referenced-by-count": 7,
      "URL": "https://doi.org/10.1/abc"
    }]
  }
}`

func TestSearchSendsMailtoUserAgentAndParsesResults(t *testing.T) {
	var ua string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Write([]byte(worksBody))
	}))
	defer server.Close()

	p := crossref.New(newRuntime(), server.URL, "team@example.org")
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "crossref", MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Contains(t, ua, "mailto:team@example.org")
	assert.Equal(t, "A CrossRef Paper", resp.Papers[0].Title)
	assert.Equal(t, "An abstract.", resp.Papers[0].Abstract)
	require.NotNil(t, resp.Papers[0].PublishedDate)
	assert.Equal(t, "2019-01-01", *resp.Papers[0].PublishedDate)
}

func TestGetByDOIReturnsNotFoundOnEmptyMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": {}}`))
	}))
	defer server.Close()

	p := crossref.New(newRuntime(), server.URL, "")
	_, err := p.GetByDOI(context.Background(), "10.1/missing")
	assert.Error(t, err)
}
