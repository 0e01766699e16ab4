package scispace_test

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
	"research-master/internal/providers/scispace"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("scispace", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

func TestSearchParsesPapers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_count": 1, "papers": [{"id": "sp1", "title": "A Typeset Paper", "abstract": "An abstract.", "authors": ["Ada Lovelace"], "publish_year": "2022", "doi": "10.1/sp", "pdf_url": "https://typeset.io/pdf/sp1.pdf", "citation_count": 2}]}`))
	}))
	defer server.Close()

	p := scispace.New(newRuntime(), server.URL)
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "x"})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "A Typeset Paper", resp.Papers[0].Title)
	require.NotNil(t, resp.Papers[0].PDFURL)
	assert.Equal(t, "https://typeset.io/pdf/sp1.pdf", *resp.Papers[0].PDFURL)
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_count": 0, "papers": []}`))
	}))
	defer server.Close()

	p := scispace.New(newRuntime(), server.URL)
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "x"})
	require.NoError(t, err)
	assert.Empty(t, resp.Papers)
}
