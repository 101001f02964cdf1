package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Numeric columns align right; maxWidth
// snips long cells with "...".
type column struct {
	title    string
	numeric  bool
	maxWidth int
}

func textCol(title string) column { return column{title: title} }

func numCol(title string) column { return column{title: title, numeric: true} }

func wideCol(title string, maxWidth int) column { return column{title: title, maxWidth: maxWidth} }

// renderTable draws rows in the rounded style. Missing trailing cells are
// left blank.
func renderTable(cols []column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		header[i] = c.title
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft, Align: text.AlignLeft}
		if c.numeric {
			configs[i].Align = text.AlignRight
		}
		if c.maxWidth > 0 {
			width := c.maxWidth
			configs[i].Transformer = func(v any) string {
				s, _ := v.(string)
				return snip(s, width)
			}
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render() + "\n"
}

func snip(s string, width int) string {
	return text.Snip(strings.TrimSpace(s), width, "...")
}
