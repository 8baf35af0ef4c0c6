package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/booklist/internal/config"
	"github.com/lehigh-university-libraries/booklist/internal/issue"
	"github.com/lehigh-university-libraries/booklist/internal/logging"
	"github.com/spf13/cobra"
)

// rootOptions carries the global flags and the loaded configuration to the
// subcommands
type rootOptions struct {
	configPath string
	issueID    string
	verbose    bool

	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "booklist",
		Short: "Bibliographic data pipeline for printed book recommendation lists",
		Long: `Booklist turns curated per-category ISBN lists into the datasets a page layout
tool needs to print a book recommendation catalogue.

For every ISBN it fetches the bibliographic record from the remote catalog
(cached per issue), applies the issue's block-list, duplicate and age rating
overrides, derives the printed texts and writes sorted JSON and CSV files.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg, err := config.Load(opts.configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			opts.cfg = cfg

			level, err := logging.ParseLevel(cfg.Logging.Level)
			if err != nil {
				return err
			}
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(logging.New(os.Stderr, level, cfg.Logging.Format))

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "Path to the configuration file")
	cmd.PersistentFlags().StringVar(&opts.issueID, "issue", "", "Issue to work on, e.g. 2026_02 (defaults to the current season)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newIssueCmd(opts))
	cmd.AddCommand(newConvertCmd(opts))
	cmd.AddCommand(newDuplicatesCmd(opts))
	cmd.AddCommand(newFetchCmd(opts))
	cmd.AddCommand(newProcessCmd(opts))
	cmd.AddCommand(newCacheCmd(opts))
	cmd.AddCommand(newServeCmd(opts))

	return cmd
}

// layout resolves the issue selected by --issue or the current season
func (o *rootOptions) layout() (issue.Layout, error) {
	id := o.issueID
	if id == "" {
		id = issue.DefaultID(time.Now())
	}
	if err := issue.ValidateID(id); err != nil {
		return issue.Layout{}, err
	}
	return issue.New(o.cfg.Paths.IssuesDir, id), nil
}

// existingLayout is layout for commands that need the issue to exist
func (o *rootOptions) existingLayout() (issue.Layout, error) {
	layout, err := o.layout()
	if err != nil {
		return layout, err
	}
	if !layout.Exists() {
		return layout, fmt.Errorf("issue %s not found at %s (create it with 'booklist issue new %s')", layout.ID, layout.Root, layout.ID)
	}
	return layout, nil
}
