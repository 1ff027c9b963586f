// Package main provides the fala-search command line client. It runs the
// engine in-process over the embedded or a local dataset.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fala-search",
		Short: "Fala Search - Portuguese learner search from the terminal",
		Long: `Fala Search understands learner queries such as "how do you say house",
"conjugate falar" or "ser vs estar" and answers with a smart card plus
ranked vocabulary, verb, conjugation and grammar results.

Run 'fala-search-server' for the HTTP API; pass --server to send search,
intent and normalize to it instead of running in-process.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("format", "text", "output format (text, json)")
	rootCmd.PersistentFlags().String("content-dir", "", "content directory (default: embedded dataset)")
	rootCmd.PersistentFlags().String("server", "", "query a running server at this URL instead of searching in-process")

	rootCmd.AddCommand(
		searchCmd(),
		intentCmd(),
		normalizeCmd(),
		statsCmd(),
		eventsCmd(),
		evalCmd(),
		healthCmd(),
		versionCmd(),
	)

	return rootCmd
}
