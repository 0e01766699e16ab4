// Code generated by Google Wire would normally populate this file from
// wire.go's injector; `wire` isn't run in this environment, so this is the
// hand-maintained equivalent of its output, kept in sync with
// ApplicationSet by hand. Do not add business logic here beyond wiring.
package wire

import (
	"log/slog"
	"time"

	"research-master/internal/cache"
	"research-master/internal/config"
	fedErrors "research-master/internal/errors"
	"research-master/internal/events"
	"research-master/internal/healthstore"
	"research-master/internal/httpclient"
	"research-master/internal/orchestrator"
	"research-master/internal/providers"
	"research-master/internal/providers/acm"
	"research-master/internal/providers/arxiv"
	"research-master/internal/providers/base"
	"research-master/internal/providers/biorxiv"
	"research-master/internal/providers/connectedpapers"
	"research-master/internal/providers/core"
	"research-master/internal/providers/crossref"
	"research-master/internal/providers/dblp"
	"research-master/internal/providers/dimensions"
	"research-master/internal/providers/doaj"
	"research-master/internal/providers/europepmc"
	"research-master/internal/providers/googlescholar"
	"research-master/internal/providers/hal"
	"research-master/internal/providers/iacr"
	"research-master/internal/providers/ieeexplore"
	"research-master/internal/providers/jstor"
	"research-master/internal/providers/mdpi"
	"research-master/internal/providers/openalex"
	"research-master/internal/providers/osf"
	"research-master/internal/providers/pmc"
	"research-master/internal/providers/pubmed"
	"research-master/internal/providers/scispace"
	"research-master/internal/providers/semanticscholar"
	"research-master/internal/providers/springer"
	"research-master/internal/providers/ssrn"
	"research-master/internal/providers/unpaywall"
	"research-master/internal/providers/worldwidescience"
	"research-master/internal/providers/zenodo"
	"research-master/internal/registry"
	"research-master/internal/service"
)

type Application struct {
	Config   *config.Config
	Registry *registry.Registry
	Cache    *cache.Cache
	Orch     *orchestrator.Orchestrator
	Service  *service.Service
	Logger   *slog.Logger
	Events   *events.Bus
	Health   *healthstore.Store
}

// Close releases the application's long-lived resources (event bus
// connection, health store database). Safe to call on a zero-value
// Application or one with disabled components.
func (a *Application) Close() {
	if a == nil {
		return
	}
	if a.Events != nil {
		a.Events.Close()
	}
	if a.Health != nil {
		_ = a.Health.Close()
	}
}

func ProvideLogger(cfg *config.Config) *slog.Logger {
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return slog.Default()
	}
	return logger
}

// ProvideEventBus starts the internal pub/sub bus (disabled by default);
// a disabled bus is an inert no-op.
func ProvideEventBus(cfg *config.Config, logger *slog.Logger) (*events.Bus, error) {
	return events.Start(events.Config{
		Enabled:  cfg.Events.Enabled,
		Host:     cfg.Events.Host,
		Port:     cfg.Events.Port,
		StoreDir: cfg.Events.StoreDir,
	}, logger)
}

// ProvideHealthStore opens the optional provider-health persistence layer
// (disabled by default); a disabled Store is an inert no-op.
func ProvideHealthStore(cfg *config.Config, logger *slog.Logger) (*healthstore.Store, error) {
	return healthstore.Open(healthstore.Config{
		Enabled: cfg.HealthStore.Enabled,
		Type:    cfg.HealthStore.Type,
		DSN:     cfg.HealthStore.DSN,
	}, logger)
}

func ProvideCache(cfg *config.Config, logger *slog.Logger) *cache.Cache {
	cacheCfg := cache.Config{
		Enabled:      cfg.Cache.Enabled,
		Directory:    cfg.CacheDirectory(),
		SearchTTL:    time.Duration(cfg.Cache.SearchTTLSeconds) * time.Second,
		CitationTTL:  time.Duration(cfg.Cache.CitationTTLSeconds) * time.Second,
		MaxSizeBytes: int64(cfg.Cache.MaxSizeMB) * 1024 * 1024,
	}
	return cache.New(cacheCfg, logger)
}

// newRuntime builds the shared breaker/retry/HTTP runtime for one provider
// id, from the resolved Config, matching the breaker∘retry∘rate-limited
// HTTP composition of spec.md §4.4.
func newRuntime(id string, httpClient *httpclient.Client, breakers *fedErrors.CircuitBreakerManager, cfg *config.Config, logger *slog.Logger) *providers.Runtime {
	breakerCfg := fedErrors.DefaultCircuitBreakerConfig()
	if cfg.Circuit.FailureThreshold > 0 {
		breakerCfg.FailureThreshold = cfg.Circuit.FailureThreshold
	}
	if cfg.Circuit.SuccessThreshold > 0 {
		breakerCfg.SuccessThreshold = cfg.Circuit.SuccessThreshold
	}
	if d, err := time.ParseDuration(cfg.Circuit.OpenDuration); err == nil && d > 0 {
		breakerCfg.OpenDuration = d
	}
	if !cfg.Circuit.Enabled {
		// A disabled breaker never opens: thresholds effectively infinite.
		breakerCfg.FailureThreshold = 1 << 30
	}

	retryCfg := fedErrors.DefaultRetryConfig()
	if cfg.Retry.MaxAttempts > 0 {
		retryCfg.MaxAttempts = cfg.Retry.MaxAttempts
	}
	if d, err := time.ParseDuration(cfg.Retry.InitialDelay); err == nil && d > 0 {
		retryCfg.InitialDelay = d
	}
	if d, err := time.ParseDuration(cfg.Retry.MaxDelay); err == nil && d > 0 {
		retryCfg.MaxDelay = d
	}
	if cfg.Retry.BackoffFactor > 0 {
		retryCfg.Multiplier = cfg.Retry.BackoffFactor
	}
	retryCfg.Jitter = cfg.Retry.Jitter
	return providers.NewRuntime(id, httpClient, breakers, breakerCfg, retryCfg, logger)
}

// ProvideRegistry constructs the shared HTTP client, one Runtime per
// provider id, and every adapter named in spec.md §4.5's tables, then
// applies the enabled/disabled source filter from Config, per spec.md §4.6.
// It also returns the shared breaker manager so callers can subscribe to
// every provider's state transitions.
func ProvideRegistry(cfg *config.Config, logger *slog.Logger) (*registry.Registry, *fedErrors.CircuitBreakerManager, error) {
	limiter := httpclient.NewHostLimiter()
	httpClient := httpclient.New(httpclient.DefaultConfig(), limiter)
	breakers := fedErrors.NewCircuitBreakerManager(logger)

	rt := func(id string) *providers.Runtime { return newRuntime(id, httpClient, breakers, cfg, logger) }

	factories := map[string]registry.Factory{
		"arxiv": func() (providers.Provider, error) { return arxiv.New(rt("arxiv"), ""), nil },
		"semantic": func() (providers.Provider, error) {
			return semanticscholar.New(rt("semantic"), "", cfg.APIKeys.SemanticScholar), nil
		},
		"crossref": func() (providers.Provider, error) {
			return crossref.New(rt("crossref"), "", cfg.APIKeys.CrossrefMailto), nil
		},
		"pubmed": func() (providers.Provider, error) { return pubmed.New(rt("pubmed"), ""), nil },
		"pmc":    func() (providers.Provider, error) { return pmc.New(rt("pmc"), ""), nil },
		"zenodo": func() (providers.Provider, error) { return zenodo.New(rt("zenodo"), ""), nil },
		"openalex": func() (providers.Provider, error) {
			return openalex.New(rt("openalex"), "", cfg.APIKeys.OpenAlexEmail), nil
		},
		"unpaywall": func() (providers.Provider, error) {
			return unpaywall.New(rt("unpaywall"), "", cfg.APIKeys.UnpaywallEmail), nil
		},
		"doaj":             func() (providers.Provider, error) { return doaj.New(rt("doaj"), ""), nil },
		"dblp":             func() (providers.Provider, error) { return dblp.New(rt("dblp"), ""), nil },
		"hal":              func() (providers.Provider, error) { return hal.New(rt("hal"), ""), nil },
		"biorxiv":          func() (providers.Provider, error) { return biorxiv.New(rt("biorxiv"), "", "biorxiv"), nil },
		"medrxiv":          func() (providers.Provider, error) { return biorxiv.New(rt("medrxiv"), "", "medrxiv"), nil },
		"mdpi":             func() (providers.Provider, error) { return mdpi.New(rt("mdpi"), ""), nil },
		"iacr":             func() (providers.Provider, error) { return iacr.New(rt("iacr"), ""), nil },
		"ssrn":             func() (providers.Provider, error) { return ssrn.New(rt("ssrn"), ""), nil },
		"europepmc":        func() (providers.Provider, error) { return europepmc.New(rt("europepmc"), ""), nil },
		"core":             func() (providers.Provider, error) { return core.New(rt("core"), "", cfg.APIKeys.CORE), nil },
		"jstor":            func() (providers.Provider, error) { return jstor.New(rt("jstor"), ""), nil },
		"scispace":         func() (providers.Provider, error) { return scispace.New(rt("scispace"), ""), nil },
		"acm":              func() (providers.Provider, error) { return acm.New(rt("acm"), ""), nil },
		"connected_papers": func() (providers.Provider, error) { return connectedpapers.New(rt("connected_papers"), ""), nil },
		"worldwidescience": func() (providers.Provider, error) { return worldwidescience.New(rt("worldwidescience"), ""), nil },
		"osf":              func() (providers.Provider, error) { return osf.New(rt("osf"), ""), nil },
		"base":             func() (providers.Provider, error) { return base.New(rt("base"), ""), nil },
		"springer":         func() (providers.Provider, error) { return springer.New(rt("springer"), "", cfg.APIKeys.Springer), nil },
		"ieee_xplore": func() (providers.Provider, error) {
			return ieeexplore.New(rt("ieee_xplore"), "", cfg.APIKeys.IEEEXplore), nil
		},
		"dimensions": func() (providers.Provider, error) {
			return dimensions.New(rt("dimensions"), "", cfg.APIKeys.Dimensions), nil
		},
	}

	// Google Scholar is disabled by default and registered only when the
	// caller opts in, per spec.md §6's GOOGLE_SCHOLAR_ENABLED.
	if cfg.APIKeys.GoogleScholarOn {
		factories["google_scholar"] = func() (providers.Provider, error) { return googlescholar.New(rt("google_scholar"), ""), nil }
	}

	adapters := registry.BuildAll(factories, logger)
	reg, err := registry.New(adapters, registry.Options{
		EnabledSources:  cfg.Sources.EnabledSources,
		DisabledSources: cfg.Sources.DisabledSources,
	}, logger)
	return reg, breakers, err
}

// wireBreakerObservability attaches the event bus and health store to every
// breaker the registry built, so every Closed/Open/HalfOpen transition (per
// spec.md §4.3) is published and, when enabled, persisted.
func wireBreakerObservability(breakers *fedErrors.CircuitBreakerManager, bus *events.Bus, health *healthstore.Store) {
	for providerID, cb := range breakers.All() {
		id := providerID
		cb.SetOnStateChange(func(from, to fedErrors.State) {
			bus.PublishBreakerStateChanged(id, from.String(), to.String())
			health.RecordBreakerTransition(id, from.String(), to.String())
		})
	}
}

func ProvideOrchestrator(reg *registry.Registry, c *cache.Cache, cfg *config.Config, logger *slog.Logger) *orchestrator.Orchestrator {
	return orchestrator.New(reg, c, logger, cfg.RateLimits.MaxConcurrentRequests)
}

func ProvideService(reg *registry.Registry, orch *orchestrator.Orchestrator, c *cache.Cache, cfg *config.Config, logger *slog.Logger) *service.Service {
	return service.New(reg, orch, c, cfg.Downloads.DefaultPath, cfg.Downloads.OrganizeBySource, logger)
}

// InitializeApplication wires every collaborator from cfg, the hand-written
// equivalent of wire.go's generated injector.
func InitializeApplication(cfg *config.Config) (*Application, error) {
	logger := ProvideLogger(cfg)
	c := ProvideCache(cfg, logger)

	bus, err := ProvideEventBus(cfg, logger)
	if err != nil {
		return nil, err
	}
	health, err := ProvideHealthStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	reg, breakers, err := ProvideRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}
	wireBreakerObservability(breakers, bus, health)

	orch := ProvideOrchestrator(reg, c, cfg, logger)
	orch.SetOnFanOutComplete(bus.PublishFanOutCompleted)
	svc := ProvideService(reg, orch, c, cfg, logger)

	return &Application{
		Config:   cfg,
		Registry: reg,
		Cache:    c,
		Orch:     orch,
		Service:  svc,
		Logger:   logger,
		Events:   bus,
		Health:   health,
	}, nil
}
