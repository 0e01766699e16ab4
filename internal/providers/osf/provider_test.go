package osf_test

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
	"research-master/internal/providers/osf"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("osf", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

func TestSearchParsesJSONAPIData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"id": "abc12", "attributes": {"title": "A Preprint", "description": "An abstract.", "date_created": "2020-05-01", "doi": "10.1/osf"}, "links": {"html": "https://osf.io/abc12", "download": "https://osf.io/abc12/download"}}], "links": {"meta": {"total": 1}}}`))
	}))
	defer server.Close()

	p := osf.New(newRuntime(), server.URL)
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "preprint"})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "A Preprint", resp.Papers[0].Title)
	assert.Equal(t, "abc12", resp.Papers[0].PaperID)
}

func TestDownloadFailsWithoutPDFURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"id": "abc12", "attributes": {"title": "No PDF"}}}`))
	}))
	defer server.Close()

	p := osf.New(newRuntime(), server.URL)
	_, err := p.Download(context.Background(), models.DownloadRequest{PaperID: "abc12", SavePath: t.TempDir() + "/out.pdf"})
	assert.Error(t, err)
}
