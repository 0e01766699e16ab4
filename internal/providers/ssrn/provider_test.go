package ssrn_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fedErrors "research-master/internal/errors"
	"research-master/internal/httpclient"
	"research-master/internal/models"
	"research-master/internal/providers"
	"research-master/internal/providers/ssrn"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("ssrn", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

const searchPage = `<html><body>
<script id="ssrn-search-data" type="application/json">
{"totalResults": 1, "papers": [{"abstractId": 12345, "title": "An SSRN Paper", "authors": [{"name": "Ada Lovelace"}], "approvalDate": "2019-01-01", "abstractText": "An abstract.", "doi": "10.1/ssrn"}]}
</script>
</body></html>`

const paperPage = `<html><body>
<h1 class="abstract-title">An SSRN Paper</h1>
<div class="authors"><a class="author-name">Ada Lovelace</a></div>
<div class="abstract-text">An abstract.</div>
</body></html>`

func TestSearchExtractsEmbeddedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchPage))
	}))
	defer server.Close()

	p := ssrn.New(newRuntime(), server.URL)
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "finance", MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "An SSRN Paper", resp.Papers[0].Title)
	assert.Equal(t, "12345", resp.Papers[0].PaperID)
}

func TestGetByIDFallsBackToGoquerySelectors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.Contains(r.URL.RawQuery, "abstract_id=12345"))
		w.Write([]byte(paperPage))
	}))
	defer server.Close()

	p := ssrn.New(newRuntime(), server.URL)
	paper, err := p.GetByID(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada Lovelace"}, paper.AuthorList())
}
