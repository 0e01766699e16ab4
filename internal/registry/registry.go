// Package registry holds the provider_id → provider mapping (C8) and
// applies the enabled/disabled source filter from configuration.
package registry

import (
	"log/slog"
	"sort"
	"strings"

	fedErrors "research-master/internal/errors"
	"research-master/internal/providers"
)

// Registry is immutable after construction, per spec.md §5's shared-resource
// policy.
type Registry struct {
	byID map[string]providers.Provider
}

// Options configures which of the constructed adapters survive into the
// final registry.
type Options struct {
	EnabledSources  []string
	DisabledSources []string
}

// New registers every non-nil adapter in adapters (adapters whose factory
// failed are already left out by BuildAll). It then
// applies Options per spec.md §4.6: disabled always wins, enabled (if
// non-empty) restricts to that set, comparison is case-insensitive.
func New(adapters []providers.Provider, opts Options, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	byID := make(map[string]providers.Provider, len(adapters))
	for _, p := range adapters {
		if p == nil {
			continue
		}
		byID[p.ID()] = p
	}

	disabled := toLowerSet(opts.DisabledSources)
	enabled := toLowerSet(opts.EnabledSources)

	for id := range byID {
		lower := strings.ToLower(id)
		if disabled[lower] {
			delete(byID, id)
			continue
		}
		if len(enabled) > 0 && !enabled[lower] {
			delete(byID, id)
		}
	}

	if len(byID) == 0 {
		return nil, fedErrors.NewError(fedErrors.KindInvalidRequest, "NO_PROVIDERS",
			"no provider remained after applying enabled/disabled source filters").Build()
	}

	logger.Info("registry constructed", slog.Int("provider_count", len(byID)))
	return &Registry{byID: byID}, nil
}

func toLowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = true
		}
	}
	return set
}

// Get looks up id, case-sensitively on the adapter's own stable key.
func (r *Registry) Get(id string) (providers.Provider, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// GetRequired is Get but returns a NotFound error on miss instead of a bool.
func (r *Registry) GetRequired(id string) (providers.Provider, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, fedErrors.NewNotFoundError("provider", id)
	}
	return p, nil
}

// All returns every registered provider, sorted by id for deterministic
// iteration in callers that care (the orchestrator's fan-out does not).
func (r *Registry) All() []providers.Provider {
	out := make([]providers.Provider, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// WithCapability returns every provider whose bitset contains every bit in want.
func (r *Registry) WithCapability(want providers.Capability) []providers.Provider {
	var out []providers.Provider
	for _, p := range r.All() {
		if p.Capabilities().Has(want) {
			out = append(out, p)
		}
	}
	return out
}

func (r *Registry) Searchable() []providers.Provider { return r.WithCapability(providers.CapSearch) }
func (r *Registry) Downloadable() []providers.Provider {
	return r.WithCapability(providers.CapDownload)
}
func (r *Registry) WithCitations() []providers.Provider {
	return r.WithCapability(providers.CapCitations)
}

// Factory constructs one compiled-in adapter, returning an error if it
// cannot be initialized (e.g. an unresolvable dependency).
type Factory func() (providers.Provider, error)

// BuildAll runs every factory, skipping (with a warning, not a process
// failure) any that errors, per spec.md §4.6.
func BuildAll(factories map[string]Factory, logger *slog.Logger) []providers.Provider {
	if logger == nil {
		logger = slog.Default()
	}
	out := make([]providers.Provider, 0, len(factories))
	for id, factory := range factories {
		p, err := factory()
		if err != nil {
			logger.Warn("skipping provider adapter that failed to initialize",
				slog.String("provider", id), slog.String("error", err.Error()))
			continue
		}
		out = append(out, p)
	}
	return out
}
