package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Echo-User-Agent", r.Header.Get("User-Agent"))
	w.Write([]byte("hello world"))
}

func TestClientSetsDefaultUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(echoHandler))
	defer srv.Close()

	c := New(Config{UserAgent: "research-master/test"}, nil)
	resp, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "research-master/test", resp.Header.Get("Echo-User-Agent"))
}

func TestReadBodyRejectsOversizedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(echoHandler))
	defer srv.Close()

	c := New(DefaultConfig(), nil)
	resp, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)

	_, err = ReadBody(resp, 3)
	require.Error(t, err)
}

func TestHostLimiterUnconfiguredHostPassesThrough(t *testing.T) {
	h := NewHostLimiter()
	err := h.Wait(context.Background(), "unconfigured.example.org")
	assert.NoError(t, err)
}

func TestHostLimiterThrottlesConfiguredHost(t *testing.T) {
	h := NewHostLimiter()
	h.SetRate("api.semanticscholar.org", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, h.Wait(ctx, "api.semanticscholar.org"))
	require.NoError(t, h.Wait(ctx, "api.semanticscholar.org"))
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}
