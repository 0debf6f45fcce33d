package cmd

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/report"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/scrape"
)

func newScrapeCmd() *cobra.Command {
	var archive bool
	cmd := &cobra.Command{
		Use:   "scrape URL",
		Short: "Fetch a page politely and print its HTML tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			target := args[0]
			pages, err := a.PageFetcher()
			if err != nil {
				return err
			}
			html, err := pages.Fetch(cmd.Context(), target)
			if err != nil {
				return err
			}
			if archive {
				store, err := a.Archive()
				if err != nil {
					return err
				}
				name := scrapeObject(target)
				if err := store.Save(cmd.Context(), name, []byte(html)); err != nil {
					return err
				}
				a.Logger().Info("page archived", zap.String("url", target), zap.String("object", name))
			}

			tables, err := scrape.ExtractTables(target, html)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i, tbl := range tables {
				t := report.NewTable(w)
				title := tbl.Caption
				if title == "" {
					title = fmt.Sprintf("Table %d", i+1)
				}
				t.SetTitle(title)
				if len(tbl.Headers) > 0 {
					t.AppendHeader(toRow(tbl.Headers))
				}
				for _, r := range tbl.Rows {
					t.AppendRow(toRow(r))
				}
				t.Render()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&archive, "archive", true, "save the fetched HTML under <data_dir>/scrape")
	return cmd
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

var unsafeObjectChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// scrapeObject names the archived copy of rawURL, e.g.
// scrape/en.wikipedia.org/wiki_2023_Bahrain_Grand_Prix.html.
func scrapeObject(rawURL string) string {
	host, rest := "page", rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
		rest = strings.Trim(u.Path, "/")
		if u.RawQuery != "" {
			rest += "_" + u.RawQuery
		}
	}
	name := strings.Trim(unsafeObjectChars.ReplaceAllString(rest, "_"), "_.")
	if name == "" {
		name = "index"
	}
	return path.Join("scrape", strings.Trim(unsafeObjectChars.ReplaceAllString(host, "_"), "_."), name+".html")
}
