package printing

import "unicode/utf8"

// Field is a labelled value such as "Bill No.: 1042"
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// String renders the field as a single line
func (f Field) String() string {
	if f.Label == "" {
		return f.Value
	}
	return f.Label + ": " + f.Value
}

// ColumnSpec describes one column of a tabular section
type ColumnSpec struct {
	Label    string    `json:"label"`
	Width    int       `json:"width"`
	Align    Alignment `json:"align"`
	Overflow Overflow  `json:"overflow"`
}

// OverflowPolicy returns the column's overflow policy, wrap when unset
func (c ColumnSpec) OverflowPolicy() Overflow {
	if c.Overflow == "" {
		return OverflowWrap
	}
	return c.Overflow
}

// Row is one record of cells, positionally matched to the section's columns
type Row []string

// Section is a headed block of tabular rows
type Section struct {
	Heading    string       `json:"heading"`
	Columns    []ColumnSpec `json:"columns"`
	Rows       []Row        `json:"rows"`
	ShowHeader bool         `json:"show_header"`
	Divider    bool         `json:"divider"`
}

// TotalWidth returns the sum of column widths
func (s Section) TotalWidth() int {
	total := 0
	for _, c := range s.Columns {
		total += c.Width
	}
	return total
}

// Document is the structured content of one print request.
// It is built fresh per request and not modified after construction.
type Document struct {
	Title    string    `json:"title"`
	Metadata []Field   `json:"metadata"`
	Sections []Section `json:"sections"`
	Totals   []Field   `json:"totals"`
	Footer   []string  `json:"footer"`
}

// Validate checks the document's tables against a page width in character columns
func (d Document) Validate(pageWidth int) error {
	for i, s := range d.Sections {
		for j, c := range s.Columns {
			if c.Width < 1 {
				return NewConfigurationError("section %d column %d (%q): width must be at least 1", i, j, c.Label)
			}
			if !c.OverflowPolicy().IsValid() {
				return NewConfigurationError("section %d column %d (%q): unknown overflow policy %q", i, j, c.Label, c.Overflow)
			}
			if c.Align != "" && !c.Align.IsValid() {
				return NewConfigurationError("section %d column %d (%q): unknown alignment %q", i, j, c.Label, c.Align)
			}
		}
		if w := s.TotalWidth(); w > pageWidth {
			return NewConfigurationError("section %d (%q): column widths total %d exceed page width %d", i, s.Heading, w, pageWidth)
		}
		for r, row := range s.Rows {
			if len(row) != len(s.Columns) {
				return NewConfigurationError("section %d (%q) row %d: has %d cells, expected %d",
					i, s.Heading, r, len(row), len(s.Columns))
			}
			for j, c := range s.Columns {
				if c.OverflowPolicy() == OverflowReject && utf8.RuneCountInString(row[j]) > c.Width {
					return NewConfigurationError("section %d (%q) row %d: %s %q does not fit %d columns",
						i, s.Heading, r, c.Label, row[j], c.Width)
				}
			}
		}
	}
	return nil
}
