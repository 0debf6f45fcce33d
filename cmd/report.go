package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/report"
)

func newReportCmd() *cobra.Command {
	var out, circuit string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the analysis queries as HTML tables",
		Long: `Writes top constructors, circuit performance, constructor evolution and
weather impact reports, plus a CSV of the races held since 2021. When
mongo.uri is set, the document store reports (rain versus dry speed,
circuit averages, collection statistics), the combined analysis and the
trend of the --circuit circuit are written too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(a.Config().General.DataDir, "reports")
			}
			s, err := a.Store(cmd.Context())
			if err != nil {
				return err
			}
			var docs report.Documents
			d, err := a.Documents(cmd.Context())
			if err != nil {
				return err
			}
			if d != nil {
				docs = d
			}

			written, err := report.New(s, docs, out, a.Logger(), report.WithCircuit(circuit)).Generate(cmd.Context())
			for _, path := range written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output directory (default <data_dir>/reports)")
	cmd.Flags().StringVar(&circuit, "circuit", report.DefaultCircuit, "circuit of the per-circuit trend report")
	return cmd
}
