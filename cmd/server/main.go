// Package main research-master RPC server
//
//	@title			research-master RPC surface
//	@version		0.1.0
//	@description	Federated academic paper search and retrieval over HTTP and MCP stdio.
//	@host			localhost:8080
//	@BasePath		/
//	@schemes		http
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"research-master/internal/config"
	"research-master/internal/mcprpc"
	"research-master/internal/rpchttp"
	"research-master/internal/wire"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	app, err := wire.InitializeApplication(cfg)
	if err != nil {
		slog.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := app.Logger

	var mcpServer *mcprpc.Server
	if cfg.RPC.StdioEnabled {
		mcpServer = mcprpc.New(app.Service, logger)
		go func() {
			if err := mcpServer.ServeStdio(); err != nil {
				logger.Error("MCP stdio server stopped", slog.String("error", err.Error()))
			}
		}()
	}

	var httpServer *http.Server
	if cfg.RPC.HTTPEnabled {
		gin := rpchttp.NewRouter(app.Service, logger, cfg.Server.EnableCORS)
		timeouts, terr := cfg.GetTimeoutConfig()
		if terr != nil {
			logger.Error("invalid timeout configuration", slog.String("error", terr.Error()))
			os.Exit(1)
		}

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		httpServer = &http.Server{
			Addr:           addr,
			Handler:        gin,
			ReadTimeout:    timeouts.Server.Read,
			WriteTimeout:   timeouts.Server.Write,
			IdleTimeout:    timeouts.Server.Idle,
			MaxHeaderBytes: 1 << 20,
		}

		go func() {
			logger.Info("starting HTTP tool-RPC server", slog.String("addr", addr), slog.String("mode", cfg.Server.Mode))
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server failed", slog.String("error", err.Error()))
				os.Exit(1)
			}
		}()
	}

	logger.Info("research-master startup complete",
		slog.Bool("http_enabled", cfg.RPC.HTTPEnabled),
		slog.Bool("stdio_enabled", cfg.RPC.StdioEnabled),
		slog.Int("provider_count", len(app.Registry.All())))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down research-master")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server forced to shutdown", slog.String("error", err.Error()))
		} else {
			logger.Info("HTTP server shutdown gracefully")
		}
	}
	if mcpServer != nil {
		logger.Info("MCP stdio server shutdown - stdio connection closes automatically")
	}
	app.Close()

	logger.Info("research-master shutdown complete")
}
