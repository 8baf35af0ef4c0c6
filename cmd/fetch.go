package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

func newFetchCmd(opts *rootOptions) *cobra.Command {
	var (
		concurrency int
		noCovers    bool
	)

	cmd := &cobra.Command{
		Use:   "fetch [category...]",
		Short: "Warm the catalog cache, download covers and review age ratings",
		Long: `Look up every ISBN of the issue once and store the records in the issue cache.

Cover images are saved to dist/images as <slug>.jpg unless disabled. Age
ratings the catalog leaves open or gives as a range are written to
meta/improper-ages.json and meta/age-ratings.txt; copy the reviewed values
into config/proper-ages.json before processing.`,
		Example: `  booklist fetch
  booklist fetch --no-covers --concurrency 4 weihnachten`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeFetch(cmd.Context(), opts, args, concurrency, noCovers, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel catalog lookups (defaults to pipeline.concurrency)")
	cmd.Flags().BoolVar(&noCovers, "no-covers", false, "Skip cover image downloads")

	return cmd
}

func executeFetch(ctx context.Context, opts *rootOptions, args []string, concurrency int, noCovers bool, out io.Writer) error {
	started := time.Now()

	s, err := opts.openSession(concurrency)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			slog.Warn("Failed to close cache", "error", err)
		}
	}()

	if noCovers {
		s.runner.Covers = nil
	}

	categories, err := opts.categories(s.layout, args)
	if err != nil {
		return err
	}

	slog.Info("Fetching issue", "issue", s.layout.ID, "categories", len(categories), "covers", s.runner.Covers != nil)
	stats, runErr := s.runner.Prefetch(ctx, categories)

	if err := finishReport(s, "fetch", FetchReportFile, started, stats, out); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}
