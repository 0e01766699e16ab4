package pubmed_test

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
	"research-master/internal/providers/pubmed"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("pubmed", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

const esearchBody = `{"esearchresult":{"count":"1","idlist":["12345"]}}`

const efetchBody = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>12345</PMID>
      <Article>
        <ArticleTitle>A Study Of Things</ArticleTitle>
        <Abstract><AbstractText>Background text.</AbstractText></Abstract>
        <AuthorList>
          <Author><LastName>Doe</LastName><ForeName>Jane</ForeName></Author>
        </AuthorList>
        <Journal>
          <JournalIssue><PubDate><Year>2021</Year><Month>03</Month><Day>04</Day></PubDate></JournalIssue>
        </Journal>
      </Article>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="doi">10.1/xyz</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
</PubmedArticleSet>`

func TestSearchRunsTwoStepEsearchEfetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "esearch") {
			w.Write([]byte(esearchBody))
			return
		}
		w.Write([]byte(efetchBody))
	}))
	defer server.Close()

	p := pubmed.New(newRuntime(), server.URL)
	resp, err := p.Search(context.Background(), models.DefaultSearchQuery("things"))
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "A Study Of Things", resp.Papers[0].Title)
	assert.Equal(t, []string{"Jane Doe"}, resp.Papers[0].AuthorList())
	require.NotNil(t, resp.Papers[0].DOI)
	assert.Equal(t, "10.1/xyz", *resp.Papers[0].DOI)
}

func TestSearchReturnsEmptyWhenNoIDsFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"esearchresult":{"count":"0","idlist":[]}}`))
	}))
	defer server.Close()

	p := pubmed.New(newRuntime(), server.URL)
	resp, err := p.Search(context.Background(), models.DefaultSearchQuery("nothing"))
	require.NoError(t, err)
	assert.Empty(t, resp.Papers)
}
