package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/falasearch/fala-search/internal/bus"
	"github.com/falasearch/fala-search/internal/client"
	"github.com/falasearch/fala-search/internal/config"
	"github.com/falasearch/fala-search/internal/content"
	"github.com/falasearch/fala-search/internal/evaluation"
	"github.com/falasearch/fala-search/internal/metrics"
	"github.com/falasearch/fala-search/internal/normalize"
	apperrors "github.com/falasearch/fala-search/internal/pkg/errors"
	"github.com/falasearch/fala-search/internal/pkg/logger"
	"github.com/falasearch/fala-search/internal/pkg/security"
	"github.com/falasearch/fala-search/internal/query"
	"github.com/falasearch/fala-search/internal/search"
)

// env is what every subcommand needs, built from the global flags.
type env struct {
	cfg    *config.Config
	log    *logger.Logger
	format string
	out    io.Writer

	// remote is set when --server points at a running server.
	remote *client.Client
}

func newEnv(cmd *cobra.Command) (*env, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	format, _ := cmd.Flags().GetString("format")

	if format != "text" && format != "json" {
		return nil, apperrors.ValidationError("format must be text or json").WithDetail("format", format)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("content-dir") {
		cfg.Content.Dir, _ = cmd.Flags().GetString("content-dir")
	}

	level := "warn"
	if verbose {
		level = "debug"
	}

	e := &env{
		cfg:    cfg,
		log:    logger.NewWithWriter(os.Stderr, level, "text"),
		format: format,
		out:    cmd.OutOrStdout(),
	}
	if server, _ := cmd.Flags().GetString("server"); server != "" {
		e.remote = client.New(client.Config{BaseURL: server})
	}
	return e, nil
}

func (e *env) collections(cmd *cobra.Command) (*content.Collections, error) {
	return content.LoadDir(cmd.Context(), e.cfg.Content.Dir)
}

func (e *env) service(cmd *cobra.Command) (*search.Service, error) {
	coll, err := e.collections(cmd)
	if err != nil {
		return nil, err
	}
	return search.NewService(coll, e.log, search.Config{
		MaxResults:     e.cfg.Search.MaxResults,
		MinQueryLength: e.cfg.Search.MinQueryLength,
	}), nil
}

// queryArg joins the positional arguments and validates them like the HTTP
// API does.
func (e *env) queryArg(args []string) (string, error) {
	q := strings.Join(args, " ")
	if err := security.ValidateQuery(q, e.cfg.Security.MaxQueryLength); err != nil {
		return "", err
	}
	return q, nil
}

func (e *env) writeJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query...>",
		Short: "Search vocabulary, verbs and grammar",
		Example: `  fala-search search how do you say house
  fala-search search conjugate falar --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			q, err := e.queryArg(args)
			if err != nil {
				return err
			}

			var resp search.Response
			if e.remote != nil {
				r, err := e.remote.Search(cmd.Context(), q)
				if err != nil {
					return err
				}
				resp = *r
			} else {
				svc, err := e.service(cmd)
				if err != nil {
					return err
				}
				resp = svc.Search(q)
			}

			if e.format == "json" {
				return e.writeJSON(resp)
			}
			printResponse(e.out, resp)
			return nil
		},
	}
}

func intentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "intent <query...>",
		Short: "Show the detected intent of a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			q, err := e.queryArg(args)
			if err != nil {
				return err
			}

			intent := query.DetectIntent(q)
			if e.remote != nil {
				r, err := e.remote.Intent(cmd.Context(), q)
				if err != nil {
					return err
				}
				intent = *r
			}
			if e.format == "json" {
				return e.writeJSON(intent)
			}
			printIntent(e.out, intent)
			return nil
		},
	}
}

func normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <text...>",
		Short: "Fold accents and case the way matching does",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			resp := search.NormalizeResponse{Input: text, Normalized: normalize.Normalize(text)}
			if e.remote != nil {
				r, err := e.remote.Normalize(cmd.Context(), text)
				if err != nil {
					return err
				}
				resp = *r
			}
			if e.format == "json" {
				return e.writeJSON(resp)
			}
			fmt.Fprintln(e.out, resp.Normalized)
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the loaded content",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			coll, err := e.collections(cmd)
			if err != nil {
				return err
			}

			m := metrics.New()
			defer m.Close()
			collector := metrics.NewCollector(m, coll)

			if e.format == "json" {
				return e.writeJSON(collector.Collect())
			}
			fmt.Fprint(e.out, collector.Summary())
			return nil
		},
	}
}

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List searches recorded in the server's event log",
		Example: `  fala-search events --since 1h
  fala-search events --log ./data/events.jsonl --limit 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("log")
			since, _ := cmd.Flags().GetDuration("since")
			limit, _ := cmd.Flags().GetInt("limit")

			if path == "" {
				path = e.cfg.Bus.EventLog
			}
			if path == "" {
				return apperrors.ValidationError("no event log configured").WithDetail("flag", "log")
			}

			if _, err := os.Stat(path); err != nil {
				return apperrors.ContentError("reading event log", err)
			}
			journal, err := bus.NewEventLogger(path, true)
			if err != nil {
				return apperrors.BusError("opening event log", err)
			}
			defer journal.Close()

			var from time.Time
			if since > 0 {
				from = time.Now().Add(-since)
			}
			events, err := journal.GetEvents(from, limit)
			if err != nil {
				return err
			}

			if e.format == "json" {
				return e.writeJSON(events)
			}
			printEvents(e.out, events)
			return nil
		},
	}

	cmd.Flags().String("log", "", "event log path (default: bus.event_log from config)")
	cmd.Flags().Duration("since", 0, "only events newer than this (e.g. 30m)")
	cmd.Flags().Int("limit", 50, "maximum events to show, 0 for all")
	return cmd
}

func evalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <suite.yaml>",
		Short: "Score intent, card and ranking quality against judged queries",
		Example: `  fala-search eval testdata/suite.yaml
  fala-search eval suite.yaml --k 1,5 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			ks, _ := cmd.Flags().GetIntSlice("k")
			for _, k := range ks {
				if k <= 0 {
					return apperrors.ValidationError("cutoffs must be positive").WithDetail("k", strconv.Itoa(k))
				}
			}

			suite, err := evaluation.LoadSuite(args[0])
			if err != nil {
				return err
			}
			svc, err := e.service(cmd)
			if err != nil {
				return err
			}

			report, err := evaluation.NewEvaluator(svc).Evaluate(cmd.Context(), suite, ks)
			if err != nil {
				return err
			}
			if e.format == "json" {
				return e.writeJSON(report)
			}
			printReport(e.out, report)
			return nil
		},
	}

	cmd.Flags().IntSlice("k", evaluation.DefaultKs, "ranking cutoffs")
	return cmd
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "health",
		Short:   "Show the readiness of a running server",
		Example: `  fala-search health --server http://localhost:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if e.remote == nil {
				return apperrors.ValidationError("health needs a server").WithDetail("flag", "server")
			}

			status, err := e.remote.Ready(cmd.Context())
			if err != nil {
				return err
			}
			if e.format == "json" {
				if err := e.writeJSON(status); err != nil {
					return err
				}
			} else {
				printHealth(e.out, e.remote.BaseURL(), status)
			}
			if status.Status == search.StatusUnhealthy {
				return fmt.Errorf("server is unhealthy")
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fala-search %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}
