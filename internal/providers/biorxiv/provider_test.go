package biorxiv_test

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
	"research-master/internal/providers/biorxiv"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("biorxiv", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

const detailsBody = `{
  "messages": [{"status": "ok", "count": 2, "total": 2}],
  "collection": [
    {"doi": "10.1/a", "title": "A study of lattices", "authors": "Ada Lovelace; Bob Smith", "date": "2021-02-01", "category": "genetics", "abstract": "Lattice cryptography applied to genomes."},
    {"doi": "10.1/b", "title": "Unrelated preprint", "authors": "Carol Jones", "date": "2021-02-02", "category": "genetics", "abstract": "Something else entirely."}
  ]
}`

func TestSearchFiltersClientSideByKeyword(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(detailsBody))
	}))
	defer server.Close()

	p := biorxiv.New(newRuntime(), server.URL, "biorxiv")
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "lattice", MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "A study of lattices", resp.Papers[0].Title)
	assert.Equal(t, []string{"Ada Lovelace", "Bob Smith"}, resp.Papers[0].AuthorList())
}

func TestNewSelectsMedRxivSource(t *testing.T) {
	p := biorxiv.New(newRuntime(), "", "medrxiv")
	assert.Equal(t, "medrxiv", p.ID())
}
