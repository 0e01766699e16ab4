package openalex_test

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
	"research-master/internal/providers/openalex"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("openalex", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

const worksListBody = `{
  "meta": {"count": 1},
  "results": [{
    "id": "https://openalex.org/W123",
    "doi": "https://doi.org/10.1/abc",
    "title": "A Reconstructed Paper",
    "publication_year": 2021,
    "cited_by_count": 4,
    "authorships": [{"author": {"id": "A1", "display_name": "Ada Lovelace"}}],
    "concepts": [{"display_name": "Computer science"}],
    "primary_location": {"pdf_url": "https://example.org/a.pdf", "landing_page_url": "https://example.org/a"},
    "open_access": {"is_oa": true, "oa_url": "https://example.org/a.pdf"},
    "abstract_inverted_index": {"Hello": [0], "world": [1]},
    "referenced_works": ["https://openalex.org/W1", "https://openalex.org/W2"]
  }]
}`

func TestSearchParsesWorksListAndReconstructsAbstract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/works")
		w.Write([]byte(worksListBody))
	}))
	defer server.Close()

	p := openalex.New(newRuntime(), server.URL, "")
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "reconstructed", MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "A Reconstructed Paper", resp.Papers[0].Title)
	assert.Equal(t, "Hello world", resp.Papers[0].Abstract)
	require.NotNil(t, resp.Papers[0].DOI)
	assert.Equal(t, "10.1/abc", *resp.Papers[0].DOI)
	assert.Equal(t, []string{"Ada Lovelace"}, resp.Papers[0].AuthorList())
}

func TestSearchAppliesYearFilterQuirk(t *testing.T) {
	var sawFilter string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawFilter = r.URL.Query().Get("filter")
		w.Write([]byte(`{"meta":{"count":0},"results":[]}`))
	}))
	defer server.Close()

	p := openalex.New(newRuntime(), server.URL, "")

	_, err := p.Search(context.Background(), models.SearchQuery{Query: "x", Year: "2020"})
	require.NoError(t, err)
	assert.Equal(t, "publication_year:2020", sawFilter)

	_, err = p.Search(context.Background(), models.SearchQuery{Query: "x", Year: "2020-"})
	require.NoError(t, err)
	assert.Equal(t, "publication_year:>2019", sawFilter)
}

func TestDownloadFallsBackToOpenAccessURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/works/") {
			w.Write([]byte(`{
				"id": "https://openalex.org/W123",
				"primary_location": {"pdf_url": "", "landing_page_url": ""},
				"open_access": {"is_oa": true, "oa_url": "http://` + r.Host + `/fallback.pdf"}
			}`))
			return
		}
		w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer server.Close()

	p := openalex.New(newRuntime(), server.URL, "")
	dir := t.TempDir()
	res, err := p.Download(context.Background(), models.DownloadRequest{PaperID: "W123", SavePath: dir + "/a.pdf"})
	require.NoError(t, err)
	assert.Greater(t, res.Bytes, int64(0))
}

func TestGetReferencesCapsByMaxResults(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte(`{"id": "https://openalex.org/W1", "referenced_works": ["https://openalex.org/W2", "https://openalex.org/W3"]}`))
			return
		}
		w.Write([]byte(`{"id": "https://openalex.org/W2", "title": "Ref"}`))
	}))
	defer server.Close()

	p := openalex.New(newRuntime(), server.URL, "")
	resp, err := p.GetReferences(context.Background(), models.CitationRequest{PaperID: "W1", MaxResults: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Papers, 1)
}
