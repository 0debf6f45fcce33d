package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/cache"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/report"
)

var errCacheDisabled = &f1.ConfigError{Key: "general.use_cache", Reason: "is false; the response cache is disabled"}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune the API response cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Show the entry count, size and age range",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := responseCache(cmd)
				if err != nil {
					return err
				}
				st, err := c.Stats()
				if err != nil {
					return err
				}
				t := report.NewTable(cmd.OutOrStdout())
				t.AppendHeader(table.Row{"Directory", "Entries", "Bytes", "Oldest", "Newest"})
				t.AppendRow(table.Row{c.Dir(), st.Count, st.TotalSize, stamp(st.Oldest.IsZero(), st.Oldest.String()), stamp(st.Newest.IsZero(), st.Newest.String())})
				t.Render()
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear [PATTERN]",
			Short: "Remove entries whose key matches a glob pattern (all by default)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := responseCache(cmd)
				if err != nil {
					return err
				}
				var pattern string
				if len(args) == 1 {
					pattern = args[0]
				}
				n, err := c.Clear(pattern)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d cache entries\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "invalidate KEY",
			Short: "Remove a single entry, e.g. race_2023_1",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := responseCache(cmd)
				if err != nil {
					return err
				}
				if !c.Invalidate(args[0]) {
					return fmt.Errorf("cache key %q: %w", args[0], f1.ErrNotFound)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "invalidated %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func responseCache(cmd *cobra.Command) (*cache.Cache, error) {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return nil, err
	}
	c := a.Cache()
	if c == nil {
		return nil, errCacheDisabled
	}
	return c, nil
}

func stamp(zero bool, s string) string {
	if zero {
		return "-"
	}
	return s
}
