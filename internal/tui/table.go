package tui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	xansi "github.com/charmbracelet/x/ansi"
)

// MaxCell is the widest a table cell gets before it is truncated.
const MaxCell = 60

// Table renders rows under headers with a rounded border. Numeric cells
// are right-aligned; a zero in a column named "Failed" or "Errors" stays
// plain while any other count there is red.
func Table(headers []string, rows [][]string) string {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = make([]string, len(r))
		for j, c := range r {
			cells[i][j] = Truncate(c, MaxCell)
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleBorder).
		Headers(headers...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Inherit(StyleHeader)
			}
			if row < 0 || row >= len(cells) || col >= len(cells[row]) {
				return s
			}
			v := cells[row][col]
			n, err := strconv.Atoi(v)
			if err != nil {
				return s
			}
			s = s.Align(lipgloss.Right)
			if col < len(headers) && isFailureColumn(headers[col]) && n > 0 {
				return s.Inherit(StyleFail)
			}
			return s
		})
	return t.String()
}

func isFailureColumn(h string) bool {
	return h == "Failed" || h == "Errors"
}

// Truncate shortens s to width display cells, ending in an ellipsis.
func Truncate(s string, width int) string {
	if xansi.StringWidth(s) <= width {
		return s
	}
	return xansi.Truncate(s, width, "…")
}
