package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/booklist/internal/catalog"
	"github.com/lehigh-university-libraries/booklist/internal/handlers"
	"github.com/lehigh-university-libraries/booklist/internal/store"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a read-only web API over all issues",
		Long: `Starts an HTTP server exposing the processed datasets, run reports,
failure logs and covers of every issue below paths.issues_dir.

When a catalog is configured, /api/preview/{isbn} shows the derived print
texts of a single ISBN without touching any issue cache.`,
		Example: `  # Start server on default port 8888
  booklist serve

  # Start server on custom port
  booklist serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var fetcher handlers.Fetcher
			if opts.cfg.Catalog.BaseURL != "" {
				fetcher = catalog.NewService(opts.catalogClient(), store.NewMemoryStore())
			}
			handler := handlers.New(opts.cfg.Paths.IssuesDir, fetcher)

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Booklist API available", "addr", addr, "url", "http://localhost"+addr, "preview", fetcher != nil)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")

	return cmd
}
