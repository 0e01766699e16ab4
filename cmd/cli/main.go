// Package main implements the research-master command-line client: each
// subcommand mirrors one tool of spec.md §6's tool-RPC surface, sharing one
// bootstrap of the service facade. Exit codes follow spec.md §6: 0 success,
// 1 any reported error, 2 a command-line parse error.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"research-master/internal/config"
	"research-master/internal/service"
	"research-master/internal/wire"
)

// reportedError marks an error as having come from running a command
// (bad DOI, provider unreachable, cache I/O failure, ...) rather than from
// cobra's own flag/argument parsing. main uses this to choose between exit
// codes 1 and 2 per spec.md §6.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

var (
	verboseCount int
	quiet        bool
	outputFormat string
	configPath   string
	timeoutSecs  int
	noCache      bool
	envName      string
)

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)

	var re *reportedError
	if errors.As(err, &re) {
		os.Exit(1)
	}
	os.Exit(2)
}

var rootCmd = &cobra.Command{
	Use:           "research-master",
	Short:         "Federated search and retrieval across academic paper sources",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verboseCount, "verbose", "v", "increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "auto", "output format: auto, table, json, plain")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")
	rootCmd.PersistentFlags().IntVar(&timeoutSecs, "timeout", 30, "per-request timeout in seconds")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "bypass the disk cache for this invocation")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "named environment profile (accepted, but not applied to the loaded configuration)")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(authorCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(citationsCmd)
	rootCmd.AddCommand(referencesCmd)
	rootCmd.AddCommand(relatedCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dedupeCmd)
	rootCmd.AddCommand(cacheCmd)
}

// bootstrap loads configuration and wires the full application once per
// invocation; CLI processes are short-lived so there is no benefit to
// caching this across commands.
func bootstrap() (*wire.Application, error) {
	cfg, err := config.LoadConfigFromPath(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if verboseCount > 0 {
		cfg.Logging.Level = "debug"
	}
	if quiet {
		cfg.Logging.Level = "error"
	}

	return wire.InitializeApplication(cfg)
}

func timeout() time.Duration {
	if timeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(timeoutSecs) * time.Second
}

func quietLogger() *slog.Logger {
	if quiet {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	return slog.Default()
}

// withService bootstraps the application, runs fn against its service facade
// under the --timeout deadline, and reports fn's error directly so cobra
// propagates it to main's os.Exit(1) path.
func withService(fn func(ctx context.Context, svc *service.Service) error) error {
	app, err := bootstrap()
	if err != nil {
		return reported(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout())
	defer cancel()
	return reported(fn(ctx, app.Service))
}
