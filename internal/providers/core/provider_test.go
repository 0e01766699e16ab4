package core_test

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
	"research-master/internal/providers/core"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("core", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

func TestSearchParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer mykey", r.Header.Get("Authorization"))
		w.Write([]byte(`{"totalHits": 1, "results": [{"id": 42, "doi": "10.1/core", "title": "Open Access Record", "authors": [{"name": "Ada Lovelace"}], "downloadUrl": "https://core.ac.uk/download/42.pdf"}]}`))
	}))
	defer server.Close()

	p := core.New(newRuntime(), server.URL, "mykey")
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "open access"})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "Open Access Record", resp.Papers[0].Title)
	assert.Equal(t, "42", resp.Papers[0].PaperID)
}

func TestDownloadFailsWithoutPDFURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": 42, "title": "No PDF Here"}`))
	}))
	defer server.Close()

	p := core.New(newRuntime(), server.URL, "")
	_, err := p.Download(context.Background(), models.DownloadRequest{PaperID: "42", SavePath: t.TempDir() + "/out.pdf"})
	assert.Error(t, err)
}
