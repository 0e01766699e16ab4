// Package router implements the ID auto-router (C9): given an opaque paper
// id, decide which provider should handle it.
package router

import (
	"strings"

	fedErrors "research-master/internal/errors"
	"research-master/internal/providers"
)

// Lookup is the minimal registry surface the router needs, satisfied by
// *registry.Registry.
type Lookup interface {
	Get(id string) (providers.Provider, bool)
	WithCapability(want providers.Capability) []providers.Provider
}

// Route resolves id to exactly one provider, applying the decision table of
// spec.md §4.7 in order. Returns an error rather than guessing if no
// candidate provider is registered.
func Route(reg Lookup, id string) (providers.Provider, error) {
	trimmed := strings.TrimSpace(id)

	if looksLikeArxiv(trimmed) {
		if p, ok := reg.Get("arxiv"); ok {
			return p, nil
		}
	}

	if hasPrefixFold(trimmed, "PMC") {
		if p, ok := reg.Get("pmc"); ok {
			return p, nil
		}
	}

	if strings.HasPrefix(trimmed, "hal-") {
		if p, ok := reg.Get("hal"); ok {
			return p, nil
		}
	}

	if strings.Count(trimmed, "/") == 1 {
		if p, ok := reg.Get("iacr"); ok {
			return p, nil
		}
	}

	if strings.HasPrefix(trimmed, "10.") {
		if p, ok := reg.Get("semantic"); ok && p.Capabilities().Has(providers.CapDOILookup) {
			return p, nil
		}
		if candidates := reg.WithCapability(providers.CapDOILookup); len(candidates) > 0 {
			return candidates[0], nil
		}
	}

	if p, ok := reg.Get("arxiv"); ok {
		return p, nil
	}
	if p, ok := reg.Get("semantic"); ok {
		return p, nil
	}

	return nil, fedErrors.NewError(fedErrors.KindInvalidRequest, "NO_ROUTE", "no registered provider can handle this id").
		WithDetail("paper_id", id).
		Build()
}

// looksLikeArxiv matches a case-insensitive "arxiv:" prefix, or an id whose
// first 9 characters are all digits or dots (the bare "YYYY.NNNNN" shape).
func looksLikeArxiv(id string) bool {
	if hasPrefixFold(id, "arxiv:") {
		return true
	}
	if len(id) < 9 {
		return false
	}
	for _, r := range id[:9] {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
