package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/collector"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/report"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/store"
)

func newLoadCmd() *cobra.Command {
	var (
		csvPath string
		reset   bool
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Import the CSV file into the relational database",
		Long: `Reads the collected CSV and imports it in a single transaction. Drivers,
constructors and races are only inserted when new; results, weather and
rankings are appended on every run. Use --reset to start from an empty schema.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if csvPath == "" {
				csvPath = a.CSVPath()
			}
			rows, err := collector.ReadCSV(csvPath)
			if err != nil {
				return err
			}
			s, err := a.Store(cmd.Context())
			if err != nil {
				return err
			}
			if reset {
				if err := s.Reset(cmd.Context()); err != nil {
					return err
				}
			}
			l, err := a.Loader(cmd.Context())
			if err != nil {
				return err
			}
			counts, err := l.Import(cmd.Context(), rows)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			t := report.NewTable(w)
			t.AppendHeader(table.Row{"Rows", "Processed", "Skipped", "Results", "Weather", "Rankings"})
			t.AppendRow(table.Row{counts.Rows, counts.Processed, counts.Skipped, counts.Results, counts.Weather, counts.Rankings})
			t.Render()
			return printTableCounts(cmd.Context(), w, s)
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV input path (default <data_dir>/f1_data_all_years.csv)")
	cmd.Flags().BoolVar(&reset, "reset", false, "drop and recreate the schema before importing")
	return cmd
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate every table of the relational schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			s, err := a.Store(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Reset(cmd.Context()); err != nil {
				return err
			}
			return printTableCounts(cmd.Context(), cmd.OutOrStdout(), s)
		},
	}
}

func newDeleteRaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-race YEAR ROUND",
		Short: "Delete one race together with its results, weather and rankings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year %q", args[0])
			}
			round, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid round %q", args[1])
			}
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			s, err := a.Store(cmd.Context())
			if err != nil {
				return err
			}
			deleted, err := s.DeleteRace(cmd.Context(), year, round)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("race %d round %d not found", year, round)
			}
			return printTableCounts(cmd.Context(), cmd.OutOrStdout(), s)
		},
	}
}

func printTableCounts(ctx context.Context, w io.Writer, s store.Reader) error {
	counts, err := s.TableCounts(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	t := report.NewTable(w)
	t.AppendHeader(table.Row{"Table", "Rows"})
	for _, name := range names {
		t.AppendRow(table.Row{name, counts[name]})
	}
	t.Render()
	return nil
}
