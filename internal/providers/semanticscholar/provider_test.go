package semanticscholar_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fedErrors "research-master/internal/errors"
	"research-master/internal/httpclient"
	"research-master/internal/models"
	"research-master/internal/providers"
	"research-master/internal/providers/semanticscholar"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime(providerIDForTest, client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

const providerIDForTest = "semantic"

func TestSearchParsesGraphAPIResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(semanticscholar.SearchResponse{
			Total: 1,
			Data: []semanticscholar.Paper{
				{PaperID: "abc123", Title: "Deep Learning", Authors: []semanticscholar.Author{{Name: "Ann Lee"}}},
			},
		})
	}))
	defer server.Close()

	p := semanticscholar.New(newRuntime(), server.URL, "")
	resp, err := p.Search(context.Background(), models.DefaultSearchQuery("deep learning"))
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "Deep Learning", resp.Papers[0].Title)
	assert.Equal(t, []string{"Ann Lee"}, resp.Papers[0].AuthorList())
}

func TestDownloadReturnsNotFoundWithoutOpenAccessPDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(semanticscholar.Paper{PaperID: "abc123", Title: "No PDF Here"})
	}))
	defer server.Close()

	p := semanticscholar.New(newRuntime(), server.URL, "")
	_, err := p.Download(context.Background(), models.DownloadRequest{PaperID: "abc123", SavePath: t.TempDir() + "/out.pdf"})
	require.Error(t, err)
	var fe *fedErrors.FedError
	require.True(t, fedErrors.As(err, &fe))
	assert.Equal(t, fedErrors.KindNotFound, fe.Kind)
}

func TestSearchByAuthorFiltersNonMatchingAuthors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(semanticscholar.SearchResponse{
			Total: 2,
			Data: []semanticscholar.Paper{
				{PaperID: "p1", Title: "Paper One", Authors: []semanticscholar.Author{{Name: "Ann Lee"}}},
				{PaperID: "p2", Title: "Paper Two", Authors: []semanticscholar.Author{{Name: "Someone Else"}}},
			},
		})
	}))
	defer server.Close()

	p := semanticscholar.New(newRuntime(), server.URL, "")
	resp, err := p.SearchByAuthor(context.Background(), "Ann Lee", 10, "")
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "Paper One", resp.Papers[0].Title)
}

func TestGetByDOIMapsOpenAccessPDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(semanticscholar.Paper{
			PaperID:       "abc123",
			Title:         "Found By DOI",
			ExternalIDs:   &semanticscholar.ExternalIDs{DOI: "10.1/xyz"},
			OpenAccessPDF: &semanticscholar.OpenAccessPDF{URL: "https://example.org/paper.pdf"},
		})
	}))
	defer server.Close()

	p := semanticscholar.New(newRuntime(), server.URL, "")
	paper, err := p.GetByDOI(context.Background(), "10.1/xyz")
	require.NoError(t, err)
	require.NotNil(t, paper.PDFURL)
	assert.Equal(t, "https://example.org/paper.pdf", *paper.PDFURL)
}
