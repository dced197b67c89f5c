package summary

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

var tableHeader = [fieldCount]string{"Variable", "Obs", "Mean", "Std. dev.", "Min", "Max"}

// Table renders records as an aligned text table. Widths are measured in
// terminal cells so labels with wide characters line up. The name column is
// left-aligned and the numeric columns right-aligned.
func Table(records []Record) string {
	rows := make([][fieldCount]string, 0, len(records)+1)
	rows = append(rows, tableHeader)
	for _, r := range records {
		rows = append(rows, [fieldCount]string{r.Name, r.Obs, r.Mean, r.StdDev, r.Min, r.Max})
	}

	var widths [fieldCount]int
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var sb strings.Builder
	for n, row := range rows {
		for i, cell := range row {
			if i > 0 {
				sb.WriteString(" | ")
			}
			if i == 0 {
				sb.WriteString(runewidth.FillRight(cell, widths[i]))
			} else {
				sb.WriteString(runewidth.FillLeft(cell, widths[i]))
			}
		}
		sb.WriteByte('\n')

		if n == 0 {
			for i, w := range widths {
				if i > 0 {
					sb.WriteString("-+-")
				}
				sb.WriteString(strings.Repeat("-", w))
			}
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}
