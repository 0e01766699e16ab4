package unpaywall_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fedErrors "research-master/internal/errors"
	"research-master/internal/httpclient"
	"research-master/internal/providers"
	"research-master/internal/providers/unpaywall"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("unpaywall", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

const body = `{
  "title": "An Unpaywall Paper",
  "abstract": "An abstract.",
  "published_date": "2021-01-01",
  "authors": [{"name": "Ada Lovelace"}],
  "best_oa_location": {"url_for_pdf": "https://example.org/a.pdf"}
}`

func TestGetByDOIAttachesOAPDFURL(t *testing.T) {
	var sawEmail string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawEmail = r.URL.Query().Get("email")
		w.Write([]byte(body))
	}))
	defer server.Close()

	p := unpaywall.New(newRuntime(), server.URL, "team@example.org")
	paper, err := p.GetByDOI(context.Background(), "10.1/abc")
	require.NoError(t, err)
	assert.Equal(t, "team@example.org", sawEmail)
	require.NotNil(t, paper.PDFURL)
	assert.Equal(t, "https://example.org/a.pdf", *paper.PDFURL)
}
