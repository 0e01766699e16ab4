package dblp_test

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
	"research-master/internal/providers/dblp"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("dblp", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

const wellFormedBody = `<?xml version="1.0"?>
<result>
  <hits total="1">
    <hit>
      <info>
        <title>A DBLP Paper</title>
        <authors><author>Ada Lovelace</author></authors>
        <venue>CACM</venue>
        <year>2018</year>
        <url>https://dblp.org/rec/x</url>
        <key>journals/cacm/x</key>
      </info>
    </hit>
  </hits>
</result>`

const malformedBody = `<result><hits total="1"><hit><info>
  <title>A Salvaged Paper</title>
  <authors><author>Bob Smith</author></authors>
  <year>2020</year>
  <url>https://dblp.org/rec/y</url>
  <info>
</result>`

func TestSearchParsesWellFormedXML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(wellFormedBody))
	}))
	defer server.Close()

	p := dblp.New(newRuntime(), server.URL)
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "x", MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "A DBLP Paper", resp.Papers[0].Title)
}

func TestSearchFallsBackToRegexOnMalformedXML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(malformedBody))
	}))
	defer server.Close()

	p := dblp.New(newRuntime(), server.URL)
	resp, err := p.Search(context.Background(), models.SearchQuery{Query: "x", MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "A Salvaged Paper", resp.Papers[0].Title)
	assert.Equal(t, []string{"Bob Smith"}, resp.Papers[0].AuthorList())
}
