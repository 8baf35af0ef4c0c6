package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/booklist/internal/failures"
	"github.com/lehigh-university-libraries/booklist/internal/report"
	"github.com/spf13/cobra"
)

// ProcessReportFile and FetchReportFile are written into the issue's meta directory
const (
	ProcessReportFile = report.FileName
	FetchReportFile   = "fetch-report.yaml"
)

func newProcessCmd(opts *rootOptions) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "process [category...]",
		Short: "Build the sorted JSON and CSV datasets of an issue",
		Long: `Build the sorted JSON and CSV datasets of an issue.

Every category source is deduplicated against the issue's block-list and
duplicates overrides, looked up in the catalog (through the issue cache),
enriched with the derived print texts and sorted by author. Results are
written to dist/json and dist/csv; ISBNs that could not be looked up are
listed in meta/failures.json.

Without arguments every category of the issue's season with a source file
is processed in document order.`,
		Example: `  booklist process
  booklist process --issue 2026_02 bilderbuch ab6
  booklist process --concurrency 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeProcess(cmd.Context(), opts, args, concurrency, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel catalog lookups per category (defaults to pipeline.concurrency)")

	return cmd
}

func executeProcess(ctx context.Context, opts *rootOptions, args []string, concurrency int, out io.Writer) error {
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

	categories, err := opts.categories(s.layout, args)
	if err != nil {
		return err
	}

	slog.Info("Processing issue", "issue", s.layout.ID, "categories", len(categories), "concurrency", s.runner.Concurrency)
	stats, runErr := s.runner.Run(ctx, categories)

	if err := finishReport(s, "process", ProcessReportFile, started, stats, out); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func finishReport(s *session, command, fileName string, started time.Time, stats []report.CategoryStats, out io.Writer) error {
	r := report.New(command, s.layout.ID, started)
	r.Duration = time.Since(started).Round(time.Millisecond).String()
	r.Categories = stats
	cacheStats := s.service.Stats()
	r.Cache = report.CacheStats{Hits: cacheStats.Hits, Misses: cacheStats.Misses}
	r.Failures = report.FailureStats{
		Data:  s.runner.Failures.Len(failures.Data),
		Cover: s.runner.Failures.Len(failures.Cover),
	}

	path := s.layout.MetaPath(fileName)
	if err := r.Save(path); err != nil {
		return err
	}
	slog.Debug("Saved run report", "path", path, "runid", r.RunID)

	if err := r.Render(out); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
