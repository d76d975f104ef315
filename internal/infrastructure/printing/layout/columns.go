package layout

import (
	"strings"
	"unicode/utf8"

	"github.com/binara/printsvc/internal/domain/printing"
)

const ellipsis = "..."

// Cell is one column value together with its column spec
type Cell struct {
	Text string
	Spec printing.ColumnSpec
}

// AlignColumns renders cells into one line. Each cell is padded or
// truncated to exactly its column width, so the result is always the sum
// of the widths long.
func AlignColumns(cells []Cell) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteString(Pad(c.Text, c.Spec.Width, c.Spec.Align))
	}
	return b.String()
}

// Pad fits text into width runes with the given alignment. Text longer
// than width keeps its first width runes. Centered text puts the odd
// padding rune on the right.
func Pad(text string, width int, align printing.Alignment) string {
	if width <= 0 {
		return ""
	}
	text = Truncate(text, width)
	gap := width - utf8.RuneCountInString(text)
	if gap == 0 {
		return text
	}
	switch align.OrDefault() {
	case printing.AlignRight:
		return strings.Repeat(" ", gap) + text
	case printing.AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + text + strings.Repeat(" ", gap-left)
	default:
		return text + strings.Repeat(" ", gap)
	}
}

// Truncate keeps the first width runes of text
func Truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= width {
		return text
	}
	return string([]rune(text)[:width])
}

// Ellipsize shortens text to width runes, ending in "..." when cut.
// Columns narrower than the marker are plainly truncated.
func Ellipsize(text string, width int) string {
	if utf8.RuneCountInString(text) <= width {
		return text
	}
	if width <= len(ellipsis) {
		return Truncate(text, width)
	}
	return string([]rune(text)[:width-len(ellipsis)]) + ellipsis
}

// Fit applies the column's overflow policy and returns the physical lines
// the cell occupies. Only wrapping produces more than one line.
func Fit(text string, spec printing.ColumnSpec) []string {
	switch spec.OverflowPolicy() {
	case printing.OverflowTruncate, printing.OverflowReject:
		return []string{Truncate(singleLine(text), spec.Width)}
	case printing.OverflowEllipsis:
		return []string{Ellipsize(singleLine(text), spec.Width)}
	default:
		return Wrap(text, spec.Width)
	}
}

// FitRow lays out one row and returns its physical lines. Cells that need
// fewer lines than the tallest cell are blank on continuation lines.
func FitRow(row printing.Row, columns []printing.ColumnSpec) []string {
	fitted := make([][]string, len(columns))
	height := 1
	for i, spec := range columns {
		text := ""
		if i < len(row) {
			text = row[i]
		}
		fitted[i] = Fit(text, spec)
		if len(fitted[i]) > height {
			height = len(fitted[i])
		}
	}

	lines := make([]string, height)
	cells := make([]Cell, len(columns))
	for l := 0; l < height; l++ {
		for i, spec := range columns {
			text := ""
			if l < len(fitted[i]) {
				text = fitted[i][l]
			}
			cells[i] = Cell{Text: text, Spec: spec}
		}
		lines[l] = AlignColumns(cells)
	}
	return lines
}

// HeaderLine renders the column labels aligned like their cells
func HeaderLine(columns []printing.ColumnSpec) string {
	cells := make([]Cell, len(columns))
	for i, spec := range columns {
		cells[i] = Cell{Text: spec.Label, Spec: spec}
	}
	return AlignColumns(cells)
}

func singleLine(text string) string {
	return strings.TrimSpace(normalizeSpace(text))
}
