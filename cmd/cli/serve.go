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

	"github.com/spf13/cobra"

	"research-master/internal/mcprpc"
	"research-master/internal/rpchttp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and MCP stdio tool-RPC servers in the foreground",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap()
		if err != nil {
			return reported(err)
		}
		cfg, logger := app.Config, app.Logger

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
			router := rpchttp.NewRouter(app.Service, logger, cfg.Server.EnableCORS)
			timeouts, terr := cfg.GetTimeoutConfig()
			if terr != nil {
				return reported(terr)
			}
			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			httpServer = &http.Server{
				Addr:           addr,
				Handler:        router,
				ReadTimeout:    timeouts.Server.Read,
				WriteTimeout:   timeouts.Server.Write,
				IdleTimeout:    timeouts.Server.Idle,
				MaxHeaderBytes: 1 << 20,
			}
			go func() {
				logger.Info("starting HTTP tool-RPC server", slog.String("addr", addr))
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server failed", slog.String("error", err.Error()))
				}
			}()
		}

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if httpServer != nil {
			_ = httpServer.Shutdown(shutdownCtx)
		}
		app.Close()
		return nil
	},
}
