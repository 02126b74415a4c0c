// Package table lays out column-aligned rows and formats the cell values the
// listing shows.
package table

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

const gap = "  "

// Format joins each row's cells with a two space gap, padding every column
// to its widest cell. Widths ignore ANSI styling, so styled names line up
// with plain ones.
func Format(rows [][]string, align []Alignment) []string {
	widths := columnWidths(rows)
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(row))
		for c, cell := range row {
			a := AlignLeft
			if c < len(align) {
				a = align[c]
			}
			cells[c] = pad(cell, widths[c], a)
		}
		out = append(out, strings.Join(cells, gap))
	}
	return out
}

func columnWidths(rows [][]string) []int {
	var widths []int
	for _, row := range rows {
		for c, cell := range row {
			if c == len(widths) {
				widths = append(widths, 0)
			}
			widths[c] = max(widths[c], ansi.StringWidth(cell))
		}
	}
	return widths
}

func pad(cell string, width int, a Alignment) string {
	fill := strings.Repeat(" ", max(width-ansi.StringWidth(cell), 0))
	if a == AlignRight {
		return fill + cell
	}
	return cell + fill
}
