package cmd

import (
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/booklist/internal/issue"
	"github.com/spf13/cobra"
)

func newIssueCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Manage catalogue issues",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "new [id]",
		Short: "Create the directory skeleton of an issue",
		Long: `Create the directory skeleton of an issue.

Without an id the issue of the current season is created: January to June
belong to the spring issue YYYY_01, July to December to the autumn issue YYYY_02.
Existing files are left untouched.`,
		Example: `  booklist issue new
  booklist issue new 2027_01`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.issueID = args[0]
			}
			layout, err := opts.layout()
			if err != nil {
				return err
			}
			if err := layout.Create(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Issue %s (%s) ready at %s\n", layout.ID, layout.Season().German(), layout.Root)
			fmt.Fprintf(cmd.OutOrStdout(), "Place category sources in %s/{%s}\n", layout.SrcDir(), strings.Join(issue.SourceFormats, ","))
			return nil
		},
	})

	return cmd
}
