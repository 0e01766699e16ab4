package pmc_test

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
	"research-master/internal/providers"
	"research-master/internal/providers/pmc"
)

func newRuntime() *providers.Runtime {
	client := httpclient.New(httpclient.DefaultConfig(), nil)
	breakers := fedErrors.NewCircuitBreakerManager(nil)
	return providers.NewRuntime("pmc", client, breakers, fedErrors.DefaultCircuitBreakerConfig(), fedErrors.DefaultRetryConfig(), nil)
}

const efetchBody = `<pmc-articleset>
  <article>
    <front>
      <article-meta>
        <article-id pub-id-type="doi">10.1/pmc</article-id>
        <title-group><article-title>A PMC Paper</article-title></title-group>
        <abstract>Some abstract.</abstract>
        <contrib-group>
          <contrib contrib-type="author"><name><surname>Smith</surname><given-names>Ann</given-names></name></contrib>
        </contrib-group>
      </article-meta>
    </front>
  </article>
</pmc-articleset>`

func TestGetByIDNormalizesBareNumericID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "efetch") {
			w.Write([]byte(efetchBody))
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	p := pmc.New(newRuntime(), server.URL)
	paper, err := p.GetByID(context.Background(), "1234567")
	require.NoError(t, err)
	assert.Equal(t, "A PMC Paper", paper.Title)
	assert.Equal(t, "PMC1234567", paper.PaperID)
	assert.Equal(t, []string{"Ann Smith"}, paper.AuthorList())
}

func TestValidateIDRejectsMalformed(t *testing.T) {
	p := pmc.New(newRuntime(), "")
	assert.Error(t, p.ValidateID("not-an-id"))
	assert.NoError(t, p.ValidateID("PMC123"))
}
