package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the catalog cache of an issue",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show the number of cached catalog records",
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := opts.existingLayout()
			if err != nil {
				return err
			}
			cache, err := opts.openCache(layout)
			if err != nil {
				return err
			}
			defer cache.Close()

			n, err := cache.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to count cache entries: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d record(s) cached for issue %s (%s backend, max age %s)\n",
				n, layout.ID, opts.cfg.Cache.Backend, maxAgeLabel(opts))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cached catalog records",
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := opts.existingLayout()
			if err != nil {
				return err
			}
			unlock, err := layout.Lock()
			if err != nil {
				return err
			}
			defer unlock()

			cache, err := opts.openCache(layout)
			if err != nil {
				return err
			}
			defer cache.Close()

			if err := cache.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared catalog cache of issue %s\n", layout.ID)
			return nil
		},
	})

	return cmd
}

func maxAgeLabel(opts *rootOptions) string {
	if age := opts.cfg.MaxAge(); age > 0 {
		return age.String()
	}
	return "unlimited"
}
