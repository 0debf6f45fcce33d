package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/collector"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/report"
)

func newCollectCmd() *cobra.Command {
	var (
		years []int
		out   string
	)
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch seasons, results, standings and weather into the CSV file",
		Long: `Collects every race of the configured seasons (general.years, or the
last general.years_to_collect seasons) and writes one row per classified
driver to <data_dir>/f1_data_all_years.csv. Upstream failures are logged
and counted; the command still writes what it gathered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if len(years) == 0 {
				years = a.Years()
			}
			if out == "" {
				out = a.CSVPath()
			}

			c, err := a.Collector()
			if err != nil {
				return err
			}
			a.Logger().Info("collection started", zap.Ints("years", years))
			rows, sum, err := c.Collect(cmd.Context(), years)
			if err != nil {
				return fmt.Errorf("collect: %w", err)
			}
			if err := collector.WriteCSV(out, rows); err != nil {
				return err
			}
			a.Logger().Info("collection finished",
				zap.String("csv", out),
				zap.Int("rows", sum.Rows),
				zap.Int("errors", sum.Errors),
			)

			w := cmd.OutOrStdout()
			t := report.NewTable(w)
			t.AppendHeader(table.Row{"Seasons", "Races", "Rows", "Errors", "Pages archived", "CSV"})
			t.AppendRow(table.Row{sum.Seasons, sum.Races, sum.Rows, sum.Errors, sum.PagesArchived, out})
			t.Render()
			report.StatsTable(w, f1.Summarize(rows)).Render()
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&years, "years", nil, "seasons to collect, e.g. --years 2022,2023")
	cmd.Flags().StringVar(&out, "out", "", "CSV output path (default <data_dir>/f1_data_all_years.csv)")
	return cmd
}
