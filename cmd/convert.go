package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/booklist/internal/dataset"
	"github.com/spf13/cobra"
)

func newConvertCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "convert [category...]",
		Short: "Convert CSV, XLSX and Parquet sources into JSON sources",
		Long: `Convert wholesaler exports into the JSON source files of an issue.

CSV files may be ISO-8859-1 encoded and separated by semicolons. Files without
a header line are read with the wholesaler's fixed column set.`,
		Example: `  booklist convert --issue 2026_02
  booklist convert bilderbuch ab6`,
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := opts.existingLayout()
			if err != nil {
				return err
			}

			wanted := make(map[string]bool, len(args))
			for _, arg := range args {
				wanted[arg] = true
			}

			converted := 0
			for _, format := range []string{"csv", "xlsx", "parquet"} {
				matches, err := filepath.Glob(filepath.Join(layout.SourceDir(format), "*."+format))
				if err != nil {
					return fmt.Errorf("failed to list %s sources: %w", format, err)
				}
				for _, src := range matches {
					category := strings.TrimSuffix(filepath.Base(src), "."+format)
					if len(wanted) > 0 && !wanted[category] {
						continue
					}

					dst := filepath.Join(layout.SourceDir("json"), category+".json")
					rows, err := dataset.Convert(src, dst)
					if err != nil {
						return fmt.Errorf("failed to convert %s: %w", src, err)
					}
					slog.Debug("Converted", "category", category, "rows", rows)
					converted++
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Converted %d source file(s) into %s\n", converted, layout.SourceDir("json"))
			return nil
		},
	}
}
