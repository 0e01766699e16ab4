package iacr_test

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
	"research-master/internal/providers/iacr"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("iacr", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

const searchPage = `<html><body>
<div class="searchresult">
  <a href="/2021/001">A Cryptography Paper</a>
  <div class="abstract">An abstract about lattices.</div>
</div>
</body></html>`

const paperPage = `<html><body>
<h3 class="title">A Cryptography Paper</h3>
<div class="authors"><a>Ada Lovelace</a></div>
<div class="abstract">An abstract about lattices.</div>
</body></html>`

func TestSearchParsesResultBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchPage))
	}))
	defer server.Close()

	p := iacr.New(newRuntime(), server.URL)
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "lattices", MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "A Cryptography Paper", resp.Papers[0].Title)
	assert.Equal(t, "2021/001", resp.Papers[0].PaperID)
}

func TestGetByIDParsesPaperPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.Contains(r.URL.Path, "2021/001"))
		w.Write([]byte(paperPage))
	}))
	defer server.Close()

	p := iacr.New(newRuntime(), server.URL)
	paper, err := p.GetByID(context.Background(), "2021/001")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada Lovelace"}, paper.AuthorList())
}
