//go:build wireinject
// +build wireinject

// Package wire declares the google/wire injector for the application's
// dependency graph. This file is never compiled into the binary (the
// wireinject build tag excludes it); wire_gen.go is its hand-maintained
// output, kept in sync by hand since `wire` isn't run in this environment.
package wire

import (
	"log/slog"

	"github.com/google/wire"

	"research-master/internal/cache"
	"research-master/internal/config"
	"research-master/internal/events"
	"research-master/internal/healthstore"
	"research-master/internal/orchestrator"
	"research-master/internal/registry"
	"research-master/internal/service"
)

// Application bundles every top-level collaborator cmd/server and cmd/cli
// construct once at startup.
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

var ApplicationSet = wire.NewSet(
	ProvideLogger,
	ProvideCache,
	ProvideEventBus,
	ProvideHealthStore,
	ProvideRegistry,
	ProvideOrchestrator,
	ProvideService,
	wire.Struct(new(Application), "*"),
)

func InitializeApplication(cfg *config.Config) (*Application, error) {
	wire.Build(ApplicationSet)
	return &Application{}, nil
}
