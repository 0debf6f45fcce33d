// Package scrape extracts tabular data from fetched HTML pages.
package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
)

// ErrNoTables is wrapped when a page contains no table element.
var ErrNoTables = fmt.Errorf("%w: no tables", f1.ErrNotFound)

// Table is one HTML table flattened to text cells.
type Table struct {
	Caption string
	Headers []string
	Rows    [][]string
}

// ExtractTables parses every <table> of html. Headers come from the thead,
// or from the first row when it holds only <th> cells. Failures are
// reported as *f1.DataExtractionError with source as context.
func ExtractTables(source, html string) ([]Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &f1.DataExtractionError{Source: source, Err: err}
	}
	var tables []Table
	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		tables = append(tables, parseTable(sel))
	})
	if len(tables) == 0 {
		return nil, &f1.DataExtractionError{Source: source, Err: ErrNoTables}
	}
	return tables, nil
}

func parseTable(sel *goquery.Selection) Table {
	t := Table{Caption: clean(sel.ChildrenFiltered("caption").First().Text())}

	// Nested tables are parsed separately.
	rows := sel.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(sel)
	})
	rows.Each(func(i int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("th, td")
		values := cells.Map(func(_ int, c *goquery.Selection) string { return clean(c.Text()) })
		inHead := tr.ParentsFiltered("thead").Length() > 0
		allTH := cells.Length() > 0 && cells.Length() == tr.ChildrenFiltered("th").Length()
		if t.Headers == nil && (inHead || (i == 0 && allTH)) {
			t.Headers = values
			return
		}
		if len(values) > 0 {
			t.Rows = append(t.Rows, values)
		}
	})
	return t
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
