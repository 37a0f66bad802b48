package scrape

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// Table is a parsed HTML table: rows of whitespace-collapsed cell text.
type Table struct {
	Rows [][]string
}

// Columns returns the widest row's cell count.
func (t Table) Columns() int {
	n := 0
	for _, r := range t.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// ParseTables parses every <table> in an HTML document.
func ParseTables(r io.Reader) ([]Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: parse html")
	}

	var tables []Table
	doc.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		var t Table
		tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var row []string
			tr.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
				row = append(row, collapse(cell.Text()))
			})
			if len(row) > 0 {
				t.Rows = append(t.Rows, row)
			}
		})
		tables = append(tables, t)
	})
	return tables, nil
}

// MatchKeywords scans tables with at least two columns, reading each row as
// consecutive (label, value) cell pairs. The first value whose label contains
// a keyword is recorded for that keyword. Matching is case-sensitive.
func MatchKeywords(tables []Table, keywords []string) map[string]string {
	out := make(map[string]string)
	for _, t := range tables {
		if t.Columns() < 2 {
			continue
		}
		for _, row := range t.Rows {
			for i := 0; i+1 < len(row); i += 2 {
				label, value := row[i], row[i+1]
				if label == "" || value == "" {
					continue
				}
				for _, kw := range keywords {
					if _, seen := out[kw]; seen {
						continue
					}
					if strings.Contains(label, kw) {
						out[kw] = value
					}
				}
			}
		}
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
