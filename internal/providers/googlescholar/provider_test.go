package googlescholar_test

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
	"research-master/internal/providers/googlescholar"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("google_scholar", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

const resultPage = `<html><body>
<div class="gs_ri">
  <div class="gs_rt"><a href="https://example.edu/paper?cluster=987">A Scraped Paper Title</a></div>
  <div class="gs_a">A Author - Journal of Examples, 2021</div>
  <div class="gs_rs">An abstract snippet.</div>
</div>
</body></html>`

func TestSearchParsesResultBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(resultPage))
	}))
	defer server.Close()

	p := googlescholar.New(newRuntime(), server.URL)
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "examples", MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "A Scraped Paper Title", resp.Papers[0].Title)
	assert.Equal(t, "987", resp.Papers[0].PaperID)
}

func TestGetByDOIReturnsNotFoundWhenNoHits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body></body></html>`))
	}))
	defer server.Close()

	p := googlescholar.New(newRuntime(), server.URL)
	_, err := p.GetByDOI(context.Background(), "10.1/missing")
	assert.Error(t, err)
}
