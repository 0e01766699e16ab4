// Package restutil factors out the GET-then-classify-then-decode sequence
// repeated across the project's simpler REST/JSON provider adapters, so
// each of them only has to describe its own URL and response shape.
package restutil

import (
	"context"
	"encoding/json"

	fedErrors "research-master/internal/errors"
	"research-master/internal/providers"
)

// GetJSON executes operation through rt's breaker/retry stack, fetches
// url with headers, classifies the HTTP response, and decodes the body
// into out.
func GetJSON(ctx context.Context, rt *providers.Runtime, providerID, operation, url string, headers map[string]string, out interface{}) error {
	var body []byte
	err := rt.Call(ctx, operation, func() error {
		resp, callErr := rt.HTTP.Get(ctx, url, headers)
		if callErr != nil {
			return callErr
		}
		b, readErr := providers.ReadClassified(providerID, resp)
		if readErr != nil {
			return readErr
		}
		body = b
		return nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fedErrors.NewParseError(providerID, "malformed response", err)
	}
	return nil
}

// PostJSON is GetJSON's POST counterpart, for adapters (Dimensions) that
// speak a POST-based query form such as GraphQL.
func PostJSON(ctx context.Context, rt *providers.Runtime, providerID, operation, url string, headers map[string]string, reqBody []byte, out interface{}) error {
	var body []byte
	err := rt.Call(ctx, operation, func() error {
		resp, callErr := rt.HTTP.Post(ctx, url, headers, reqBody)
		if callErr != nil {
			return callErr
		}
		b, readErr := providers.ReadClassified(providerID, resp)
		if readErr != nil {
			return readErr
		}
		body = b
		return nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fedErrors.NewParseError(providerID, "malformed response", err)
	}
	return nil
}
