package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/booklist/internal/dataset"
	"github.com/lehigh-university-libraries/booklist/internal/overrides"
	"github.com/spf13/cobra"
)

func newDuplicatesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicates",
		Short: "Find ISBNs listed in more than one category",
		Long: `Find ISBNs listed in more than one category and write config/duplicates.json.

Each duplicate stays in the first category by document order and is skipped
in all others. The file may be edited by hand before processing; a readable
summary is written to meta/duplicates.txt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := opts.existingLayout()
			if err != nil {
				return err
			}

			order := opts.cfg.CategoryNames("")
			sources := make(map[string][]string)
			for _, category := range layout.Categories(order) {
				path, err := layout.FindSource(category)
				if err != nil {
					return err
				}
				table, err := dataset.Load(path)
				if err != nil {
					return err
				}
				sources[category] = table.ISBNs()
			}

			duplicates := overrides.FindDuplicates(sources, order)
			if err := overrides.WriteDuplicates(duplicates, layout.ConfigDir(), layout.MetaDir()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Found %d duplicate ISBN(s) across %d categories\n", len(duplicates), len(sources))
			return nil
		},
	}
}
