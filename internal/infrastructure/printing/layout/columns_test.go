package layout

import (
	"testing"
	"unicode/utf8"

	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryColumns() []printing.ColumnSpec {
	return []printing.ColumnSpec{
		{Label: "Service Name", Width: 26},
		{Label: "Qty", Width: 10, Align: printing.AlignRight},
		{Label: "Total", Width: 12, Align: printing.AlignRight},
	}
}

func TestPad(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		align printing.Alignment
		want  string
	}{
		{"left", "ab", 5, printing.AlignLeft, "ab   "},
		{"default is left", "ab", 4, "", "ab  "},
		{"right", "ab", 5, printing.AlignRight, "   ab"},
		{"center even", "ab", 6, printing.AlignCenter, "  ab  "},
		{"center odd puts extra right", "ab", 5, printing.AlignCenter, " ab  "},
		{"truncate", "abcdef", 3, printing.AlignRight, "abc"},
		{"exact", "abc", 3, printing.AlignCenter, "abc"},
		{"zero width", "abc", 0, printing.AlignLeft, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Pad(tt.text, tt.width, tt.align))
		})
	}
}

func TestAlignColumns_ExactWidth(t *testing.T) {
	cols := summaryColumns()
	rows := [][]string{
		{"Consultation", "1", "1500.00"},
		{"A very long service name that is cut", "12345678901", "1234567890123"},
		{"", "", ""},
		{"Ménière test", "2", "10.00"},
	}
	for _, row := range rows {
		cells := make([]Cell, len(cols))
		for i := range cols {
			cells[i] = Cell{Text: row[i], Spec: cols[i]}
		}
		line := AlignColumns(cells)
		assert.Equal(t, 48, utf8.RuneCountInString(line), "row %v", row)
	}
}

func TestEllipsize(t *testing.T) {
	assert.Equal(t, "short", Ellipsize("short", 10))
	assert.Equal(t, "Compre...", Ellipsize("Comprehensive", 9))
	assert.Equal(t, "Co", Ellipsize("Comprehensive", 2))
}

func TestFit(t *testing.T) {
	long := "Comprehensive Metabolic Panel"
	assert.Equal(t, []string{"Comprehensive", "Metabolic Panel"}, Fit(long, printing.ColumnSpec{Width: 15}))
	assert.Equal(t, []string{"Comprehensive M"}, Fit(long, printing.ColumnSpec{Width: 15, Overflow: printing.OverflowTruncate}))
	assert.Equal(t, []string{"Comprehensiv..."}, Fit(long, printing.ColumnSpec{Width: 15, Overflow: printing.OverflowEllipsis}))
}

func TestFitRow_ContinuationCellsBlank(t *testing.T) {
	row := printing.Row{"Comprehensive Metabolic Panel with Lipid", "2", "4500.00"}
	require.Len(t, row[0], 40)

	lines := FitRow(row, summaryColumns())

	require.Len(t, lines, 2)
	first, second := lines[0], lines[1]
	assert.Equal(t, "Comprehensive Metabolic   ", first[:26])
	assert.Equal(t, "         2", first[26:36])
	assert.Equal(t, "     4500.00", first[36:])
	assert.Equal(t, "Panel with Lipid          ", second[:26])
	assert.Equal(t, "                      ", second[26:], "qty and total blank on continuation")
}

func TestHeaderLine(t *testing.T) {
	line := HeaderLine(summaryColumns())
	assert.Equal(t, "Service Name                     Qty       Total", line)
}
