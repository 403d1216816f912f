package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/memora/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Serves the JSON API under /api and Prometheus metrics under /metrics.
The caller's user id is read from the X-User-ID header.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				if addr == "" {
					addr = d.Config.Server.Addr
				}
				return serve(cmd.Context(), d, addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func serve(ctx context.Context, d *Deps, addr string) error {
	handler := server.New(server.Deps{
		DB:            d.store,
		Memorials:     d.Memorials,
		Resolver:      d.Resolver,
		Tree:          d.Tree,
		Matching:      d.Matching,
		Suggestions:   d.Suggestions,
		Relationships: d.Relationships,
		Search:        d.Search,
		Anniversaries: d.Anniversaries,
		Import:        d.ImportHandler,
		TreeDepth:     d.Config.Tree.MaxDepth,
		MatchLimit:    d.Config.Matching.Limit,
	}, version, d.Logger)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		d.Logger.Info("memora serving", "addr", addr, "story_search", d.Search.Enabled())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	d.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
