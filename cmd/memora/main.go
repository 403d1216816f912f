// Package main provides the entry point for the memora CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0-dev"
	globalUser string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:          "memora",
		Short:        "A memorial relationship graph with smart matching",
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalUser, "user", "u", os.Getenv("MEMORA_USER"),
		"User id to act as (defaults to $MEMORA_USER)")

	rootCmd.AddCommand(
		newInitCmd(),
		newMemorialsCmd(),
		newRelateCmd(),
		newRelationsCmd(),
		newTreeCmd(),
		newMatchesCmd(),
		newSuggestionsCmd(),
		newRegenerateCmd(),
		newImportCmd(),
		newSearchCmd(),
		newAnniversariesCmd(),
		newServeCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
