package springer_test

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
	"research-master/internal/providers/springer"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("springer", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

const recordsBody = `{
  "result": [{"total": "1"}],
  "records": [{
    "doi": "10.1007/abc",
    "title": "A Springer Article",
    "abstract": "An abstract.",
    "publicationDate": "2019-06-01",
    "creators": [{"creator": "Ada Lovelace"}],
    "url": [{"value": "https://link.springer.com/article/10.1007/abc"}]
  }]
}`

func TestSearchParsesRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(recordsBody))
	}))
	defer server.Close()

	p := springer.New(newRuntime(), server.URL, "mykey")
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "x"})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "A Springer Article", resp.Papers[0].Title)
	assert.Equal(t, 1, resp.TotalResults)
}

func TestGetByDOIReturnsNotFoundWhenEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": [{"total": "0"}], "records": []}`))
	}))
	defer server.Close()

	p := springer.New(newRuntime(), server.URL, "mykey")
	_, err := p.GetByDOI(context.Background(), "10.1007/missing")
	assert.Error(t, err)
}
