// Package httpclient provides the shared HTTP substrate (C1) every provider
// adapter builds its outbound calls on: one long-lived client with sane
// timeouts plus a per-host token-bucket rate gate.
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	fedErrors "research-master/internal/errors"
)

func bytesReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }

const (
	defaultRequestTimeout = 30 * time.Second
	defaultConnectTimeout = 10 * time.Second
	defaultIdleTimeout    = 90 * time.Second
	defaultUserAgent      = "research-master/0.1"
	maxRedirects          = 10
)

// Config tunes the shared client. Zero values fall back to spec.md §4.1
// defaults in New.
type Config struct {
	RequestTimeout  time.Duration
	ConnectTimeout  time.Duration
	IdleConnTimeout time.Duration
	UserAgent       string
	MaxRedirects    int
}

// DefaultConfig returns the spec.md §4.1 defaults.
func DefaultConfig() Config {
	return Config{
		RequestTimeout:  defaultRequestTimeout,
		ConnectTimeout:  defaultConnectTimeout,
		IdleConnTimeout: defaultIdleTimeout,
		UserAgent:       defaultUserAgent,
		MaxRedirects:    maxRedirects,
	}
}

// Client wraps *http.Client with a default User-Agent and an optional
// per-host rate gate. It is safe for concurrent use.
type Client struct {
	http      *http.Client
	userAgent string
	limiter   *HostLimiter
}

// New builds a Client from cfg, filling any zero field with its §4.1 default.
func New(cfg Config, limiter *HostLimiter) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = defaultIdleTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = maxRedirects
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: false},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		},
	}

	return &Client{http: httpClient, userAgent: cfg.UserAgent, limiter: limiter}
}

// Do executes req, waiting on the per-host rate gate (if any) before
// dispatch, and sets the default User-Agent when the caller left it unset.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context(), req.URL.Host); err != nil {
			return nil, fedErrors.NewNetworkError("rate limiter wait interrupted", err)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fedErrors.NewNetworkError("http request failed", err)
	}
	return resp, nil
}

// Get is a convenience wrapper around Do for the common GET-with-headers case.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fedErrors.NewInvalidRequestError("malformed request URL", "url", url)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.Do(req)
}

// Post is a convenience wrapper around Do for a JSON-bodied POST, used by
// adapters that speak GraphQL or another POST-based query form (Dimensions).
func (c *Client) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytesReader(body))
	if err != nil {
		return nil, fedErrors.NewInvalidRequestError("malformed request URL", "url", url)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.Do(req)
}

// ReadBody reads resp.Body up to maxBytes and closes it. maxBytes <= 0 means
// unbounded.
func ReadBody(resp *http.Response, maxBytes int64) ([]byte, error) {
	defer resp.Body.Close()
	var reader io.Reader = resp.Body
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fedErrors.NewNetworkError("failed reading response body", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fedErrors.NewError(fedErrors.KindIO, "DOWNLOAD_TOO_LARGE", "response exceeded size ceiling").
			WithDetail("max_bytes", maxBytes).
			Build()
	}
	return data, nil
}
