package printing

import (
	"fmt"
	"strconv"
	"strings"
)

// StyleDirective describes how a line should look. Backends honor what they
// can and silently drop the rest.
type StyleDirective struct {
	Weight    Weight        `json:"weight"`
	Underline bool          `json:"underline"`
	Align     Alignment     `json:"align"`
	Size      FontSizeClass `json:"size"`
}

// Bold reports whether the style is bold
func (s StyleDirective) Bold() bool {
	return s.Weight == WeightBold
}

// FontKey identifies the concrete font a style needs
func (s StyleDirective) FontKey() FontKey {
	return FontKey{Size: s.Size, Bold: s.Bold(), Underline: s.Underline}
}

// FontKey is the part of a style that selects a font object
type FontKey struct {
	Size      FontSizeClass
	Bold      bool
	Underline bool
}

// String returns a compact form such as "title/bold/underline"
func (k FontKey) String() string {
	s := string(k.Size)
	if k.Bold {
		s += "/bold"
	}
	if k.Underline {
		s += "/underline"
	}
	return s
}

// OpKind is the tag of an Instruction
type OpKind int

const (
	OpPlaceText OpKind = iota + 1
	OpAdvance
	OpPageBreak
	OpSetFont
)

// String returns the instruction name
func (o OpKind) String() string {
	switch o {
	case OpPlaceText:
		return "PlaceText"
	case OpAdvance:
		return "Advance"
	case OpPageBreak:
		return "PageBreak"
	case OpSetFont:
		return "SetFont"
	default:
		return "Op(" + strconv.Itoa(int(o)) + ")"
	}
}

// Instruction is one backend-agnostic drawing step
type Instruction struct {
	Op     OpKind
	X      float64
	Y      float64
	Text   string
	Style  StyleDirective
	DeltaY float64
}

// PlaceText draws text at an absolute position
func PlaceText(x, y float64, text string, style StyleDirective) Instruction {
	return Instruction{Op: OpPlaceText, X: x, Y: y, Text: text, Style: style}
}

// Advance moves the cursor down by dy
func Advance(dy float64) Instruction {
	return Instruction{Op: OpAdvance, DeltaY: dy}
}

// PageBreak ends the current page
func PageBreak() Instruction {
	return Instruction{Op: OpPageBreak}
}

// SetFont switches the active font
func SetFont(style StyleDirective) Instruction {
	return Instruction{Op: OpSetFont, Style: style}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// String returns a stable textual form used in logs and golden tests
func (i Instruction) String() string {
	switch i.Op {
	case OpPlaceText:
		return fmt.Sprintf("PlaceText(%s,%s,%q,%s,%s)",
			formatFloat(i.X), formatFloat(i.Y), i.Text, i.Style.FontKey(), i.Style.Align.OrDefault())
	case OpAdvance:
		return "Advance(" + formatFloat(i.DeltaY) + ")"
	case OpPageBreak:
		return "PageBreak"
	case OpSetFont:
		return "SetFont(" + i.Style.FontKey().String() + ")"
	default:
		return i.Op.String()
	}
}

// LayoutOverflow records content that did not fit a single-page profile
type LayoutOverflow struct {
	Lines     int     `json:"lines"`
	FirstLine string  `json:"first_line"`
	Budget    float64 `json:"budget"`
	Used      float64 `json:"used"`
}

// Warning renders the overflow as a caller-facing warning
func (o LayoutOverflow) Warning() string {
	return fmt.Sprintf("%s: %d line(s) beyond the page budget of %s starting at %q may not be printed",
		KindLayoutOverflow, o.Lines, formatFloat(o.Budget), o.FirstLine)
}

// Plan is the ordered instruction list produced for one document and profile
type Plan struct {
	Title        string
	Instructions []Instruction
	Pages        int
	Overflow     *LayoutOverflow
}

// String renders one instruction per line
func (p *Plan) String() string {
	lines := make([]string, len(p.Instructions))
	for i, in := range p.Instructions {
		lines[i] = in.String()
	}
	return strings.Join(lines, "\n")
}

// Texts returns the text of every PlaceText instruction in order
func (p *Plan) Texts() []string {
	var texts []string
	for _, in := range p.Instructions {
		if in.Op == OpPlaceText {
			texts = append(texts, in.Text)
		}
	}
	return texts
}

// Count returns how many instructions have the given op
func (p *Plan) Count(op OpKind) int {
	n := 0
	for _, in := range p.Instructions {
		if in.Op == op {
			n++
		}
	}
	return n
}
