// Package main provides the Fala Search HTTP server binary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/falasearch/fala-search/internal/config"
	"github.com/falasearch/fala-search/internal/pkg/logger"
	"github.com/falasearch/fala-search/internal/server"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fala-search-server",
		Short: "Fala Search Server - Portuguese learner search over HTTP",
		Long: `Fala Search Server answers learner queries over a JSON API.

Endpoints:
  GET /v1/search?q=     intent, smart card and ranked results
  GET /v1/intent?q=     detected intent only
  GET /v1/normalize?q=  accent- and case-folded text
  GET /healthz, /readyz, /v1/version, /metrics

Examples:
  fala-search-server                          # Start with defaults
  fala-search-server --port 9000              # Custom port
  fala-search-server --content-dir ./content  # Serve a local dataset
  fala-search-server --content-dir ./content --watch  # Reload on edits`,
		RunE:         runServer,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringP("config", "c", "", "config file path")
	rootCmd.Flags().BoolP("verbose", "v", false, "verbose logging")
	rootCmd.Flags().Int("port", 8080, "HTTP server port")
	rootCmd.Flags().String("host", "0.0.0.0", "server host")
	rootCmd.Flags().String("content-dir", "", "content directory (overrides config)")
	rootCmd.Flags().Bool("watch", false, "reload the content directory when its files change")
	rootCmd.Flags().Duration("replay", 0, "rebuild metrics from the event log for this window (e.g. 1h)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fala-search-server %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	replay, _ := cmd.Flags().GetDuration("replay")

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override from flags
	if cmd.Flags().Changed("port") {
		appCfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("host") {
		appCfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("content-dir") {
		appCfg.Content.Dir, _ = cmd.Flags().GetString("content-dir")
	}
	if cmd.Flags().Changed("watch") {
		appCfg.Content.Watch, _ = cmd.Flags().GetBool("watch")
	}
	if verbose {
		appCfg.Log.Level = "debug"
	}
	if err := appCfg.Validate(); err != nil {
		return err
	}

	log := logger.New(appCfg.Log.Level, appCfg.Log.Format)
	log.Info("Starting Fala Search Server",
		"version", version,
		"addr", appCfg.Address(),
		"bus", appCfg.Bus.Type,
		"metrics", appCfg.Metrics.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srvCfg := server.DefaultConfig()
	srvCfg.Version = version

	srv, err := server.New(ctx, srvCfg, appCfg, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if replay > 0 {
		if _, err := srv.ReplayMetrics(ctx, time.Now().Add(-replay)); err != nil {
			log.Warn("Metrics replay failed", "error", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error { return srv.WatchContent(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutdown signal received")
		return srv.Stop(context.Background())
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server exited cleanly")
	return nil
}
