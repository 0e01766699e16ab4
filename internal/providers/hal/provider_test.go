package hal_test

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
	"research-master/internal/providers/hal"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("hal", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

const searchBody = `{
  "response": {
    "numFound": 1,
    "docs": [{
      "halId_s": "hal-01234567",
      "title_s": ["Un titre en français", "An English Title"],
      "abstract_s": ["Un résumé.", "An abstract."],
      "authFullName_s": ["Ada Lovelace"],
      "producedDate_s": "2020-05-01",
      "doiId_s": "10.1/hal",
      "files_s": ["https://hal.science/hal-01234567/document"]
    }]
  }
}`

func TestSearchPrefersEnglishLeadingTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchBody))
	}))
	defer server.Close()

	p := hal.New(newRuntime(), server.URL)
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "x", MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "An English Title", resp.Papers[0].Title)
	assert.Equal(t, "An abstract.", resp.Papers[0].Abstract)
}

func TestDownloadUsesFirstFileURL(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte(strings.Replace(searchBody, "https://hal.science/hal-01234567/document", "http://"+r.Host+"/document", 1)))
			return
		}
		w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer server.Close()

	p := hal.New(newRuntime(), server.URL)
	dir := t.TempDir()
	res, err := p.Download(context.Background(), models.DownloadRequest{PaperID: "hal-01234567", SavePath: dir + "/a.pdf"})
	require.NoError(t, err)
	assert.Greater(t, res.Bytes, int64(0))
}
