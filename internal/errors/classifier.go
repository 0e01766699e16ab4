package errors

import (
	"net/http"
	"strings"
)

// Classifier decides whether an error is worth retrying.
//
// Transient: network connect error, timeout, HTTP 429/503/504/5xx, or a
// stringly-typed API error containing "timeout", "temporarily unavailable"
// or "service unavailable". Everything else is permanent — notably
// Parse/InvalidRequest/NotFound.
type Classifier struct {
	timeoutPatterns    []string
	networkPatterns    []string
	rateLimitPatterns  []string
	transientSubstring []string
}

func NewClassifier() *Classifier {
	return &Classifier{
		timeoutPatterns: []string{
			"timeout",
			"deadline exceeded",
			"i/o timeout",
		},
		networkPatterns: []string{
			"connection refused",
			"no such host",
			"network unreachable",
			"connection reset",
			"broken pipe",
			"connection closed",
			"eof",
		},
		rateLimitPatterns: []string{
			"rate limit",
			"too many requests",
			"quota exceeded",
			"throttled",
		},
		transientSubstring: []string{
			"timeout",
			"temporarily unavailable",
			"service unavailable",
		},
	}
}

// Classify turns a raw error into a *FedError, inferring a kind from its
// text when it is not already a *FedError.
func (c *Classifier) Classify(err error) *FedError {
	if err == nil {
		return nil
	}
	var fe *FedError
	if As(err, &fe) {
		return fe
	}

	msg := strings.ToLower(err.Error())
	switch {
	case c.isTimeout(msg):
		return NewError(KindNetwork, "TIMEOUT", "operation timed out").WithCause(err).Retryable(true).Build()
	case c.isNetwork(msg):
		return NewNetworkError("network connectivity issue", err)
	case c.isRateLimit(msg):
		return NewRateLimitError("rate limit exceeded", 0)
	default:
		return NewError(KindOther, "UNKNOWN", "unclassified error").WithCause(err).Retryable(false).Build()
	}
}

// ClassifyHTTPStatus maps an upstream HTTP status code (plus body, for
// message context) to a FedError per spec.md §4.5 step 5: 404 → NotFound;
// 429/5xx → transient; everything else → Api.
func (c *Classifier) ClassifyHTTPStatus(provider string, statusCode int, body string) *FedError {
	switch {
	case statusCode == http.StatusNotFound:
		return NewNotFoundError(provider, "")
	case statusCode == http.StatusTooManyRequests:
		return NewRateLimitError("upstream rate limit", 0)
	case statusCode == http.StatusServiceUnavailable || statusCode == http.StatusGatewayTimeout || statusCode >= 500:
		return NewError(KindAPI, "UPSTREAM_ERROR", "upstream returned a server error").
			WithComponent(provider).
			WithDetail("status_code", statusCode).
			WithDetail("body", truncate(body, 500)).
			WithStatusCode(statusCode).
			Retryable(true).
			Build()
	default:
		return NewAPIError(provider, "upstream request failed", statusCode)
	}
}

// IsTransient reports whether err should be retried per spec.md §4.2 step 3.
func (c *Classifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var fe *FedError
	if As(err, &fe) {
		switch fe.Kind {
		case KindNetwork, KindRateLimit:
			return true
		case KindAPI:
			msg := strings.ToLower(fe.Message)
			for _, p := range c.transientSubstring {
				if strings.Contains(msg, p) {
					return true
				}
			}
			return fe.StatusCode == http.StatusTooManyRequests ||
				fe.StatusCode == http.StatusServiceUnavailable ||
				fe.StatusCode == http.StatusGatewayTimeout ||
				fe.StatusCode >= 500
		default:
			return false
		}
	}
	msg := strings.ToLower(err.Error())
	if c.isTimeout(msg) || c.isNetwork(msg) || c.isRateLimit(msg) {
		return true
	}
	for _, p := range c.transientSubstring {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func (c *Classifier) isTimeout(msg string) bool {
	return containsAny(msg, c.timeoutPatterns)
}

func (c *Classifier) isNetwork(msg string) bool {
	return containsAny(msg, c.networkPatterns)
}

func (c *Classifier) isRateLimit(msg string) bool {
	return containsAny(msg, c.rateLimitPatterns)
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
