// Package plan turns a Document into a backend-agnostic render plan for a
// given device profile.
package plan

import (
	"strings"
	"unicode/utf8"

	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/binara/printsvc/internal/infrastructure/printing/layout"
)

// Line styles for each part of a document
var (
	StyleTitle        = printing.StyleDirective{Weight: printing.WeightBold, Size: printing.SizeTitle, Align: printing.AlignCenter}
	StyleMetadata     = printing.StyleDirective{Weight: printing.WeightNormal, Size: printing.SizeNormal, Align: printing.AlignLeft}
	StyleHeading      = printing.StyleDirective{Weight: printing.WeightBold, Size: printing.SizeNormal, Align: printing.AlignLeft, Underline: true}
	StyleColumnHeader = printing.StyleDirective{Weight: printing.WeightBold, Size: printing.SizeSmall, Align: printing.AlignLeft}
	StyleRow          = printing.StyleDirective{Weight: printing.WeightNormal, Size: printing.SizeSmall, Align: printing.AlignLeft}
	StyleTotals       = printing.StyleDirective{Weight: printing.WeightBold, Size: printing.SizeNormal, Align: printing.AlignLeft}
	StyleFooter       = printing.StyleDirective{Weight: printing.WeightNormal, Size: printing.SizeSmall, Align: printing.AlignLeft}
)

// Builder produces render plans. The zero value places blocks back to back;
// NewBuilder separates them with one blank line.
type Builder struct {
	// BlockGap is the number of blank normal-height lines between the title,
	// metadata, sections, totals and footer.
	BlockGap int
}

// NewBuilder creates a builder with the default block spacing
func NewBuilder() *Builder {
	return &Builder{BlockGap: 1}
}

// Build lays out doc for profile. The result depends only on its inputs.
func (b *Builder) Build(doc printing.Document, profile printing.DeviceProfile) (*printing.Plan, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := doc.Validate(profile.PageWidth); err != nil {
		return nil, err
	}

	s := &state{
		profile: profile,
		cursor:  layout.NewPageCursor(profile.PageLength),
		multi:   profile.MultiPage(),
	}

	if doc.Title != "" {
		s.block(b.BlockGap)
		s.text(doc.Title, StyleTitle)
	}
	if len(doc.Metadata) > 0 {
		s.block(b.BlockGap)
		for _, f := range doc.Metadata {
			s.text(f.String(), StyleMetadata)
		}
	}
	for _, sec := range doc.Sections {
		s.block(b.BlockGap)
		s.section(sec)
	}
	if len(doc.Totals) > 0 {
		s.block(b.BlockGap)
		for _, f := range doc.Totals {
			s.text(f.String(), StyleTotals)
		}
	}
	if len(doc.Footer) > 0 {
		s.block(b.BlockGap)
		for _, line := range doc.Footer {
			s.text(line, StyleFooter)
		}
	}

	return &printing.Plan{
		Title:        doc.Title,
		Instructions: s.out,
		Pages:        s.cursor.Pages(),
		Overflow:     s.overflow,
	}, nil
}

type state struct {
	profile  printing.DeviceProfile
	cursor   *layout.PageCursor
	multi    bool
	out      []printing.Instruction
	font     *printing.FontKey
	started  bool
	overflow *printing.LayoutOverflow
}

// block inserts the gap before a new block, except at the top of a page
func (s *state) block(gap int) {
	if !s.started || gap <= 0 || s.cursor.Offset() == 0 {
		return
	}
	dy := float64(gap) * s.profile.LineHeights.Normal
	s.out = append(s.out, printing.Advance(dy))
	s.cursor.Advance(dy)
}

func (s *state) section(sec printing.Section) {
	if sec.Heading != "" {
		s.text(sec.Heading, StyleHeading)
	}
	divider := strings.Repeat("-", sec.TotalWidth())
	if sec.ShowHeader && len(sec.Columns) > 0 {
		s.line(layout.HeaderLine(sec.Columns), StyleColumnHeader)
	}
	if sec.Divider && len(sec.Columns) > 0 {
		s.line(divider, StyleRow)
	}
	for _, row := range sec.Rows {
		for _, l := range layout.FitRow(row, sec.Columns) {
			s.line(l, StyleRow)
		}
	}
	if sec.Divider && len(sec.Columns) > 0 && len(sec.Rows) > 0 {
		s.line(divider, StyleRow)
	}
}

// text wraps free text to the page width and places each resulting line
func (s *state) text(text string, style printing.StyleDirective) {
	for _, l := range layout.Wrap(text, s.profile.PageWidth) {
		s.line(l, style)
	}
}

// line places one physical line, breaking the page first when it does not fit
func (s *state) line(text string, style printing.StyleDirective) {
	s.started = true
	h := s.profile.LineHeights.For(style.Size)

	if !s.cursor.Fits(h) {
		switch {
		case s.multi && s.cursor.Offset() > 0:
			s.out = append(s.out, printing.PageBreak())
			s.cursor.NewPage()
		case !s.multi:
			s.recordOverflow(text, h)
		}
	}

	key := style.FontKey()
	if s.font == nil || *s.font != key {
		s.out = append(s.out, printing.SetFont(style))
		s.font = &key
	}

	s.out = append(s.out,
		printing.PlaceText(s.x(text, style.Align), s.y(), strings.TrimRight(text, " "), style),
		printing.Advance(h),
	)
	s.cursor.Advance(h)
}

func (s *state) recordOverflow(text string, h float64) {
	if s.overflow == nil {
		s.overflow = &printing.LayoutOverflow{
			FirstLine: strings.TrimSpace(text),
			Budget:    s.cursor.Budget(),
		}
	}
	s.overflow.Lines++
	s.overflow.Used = s.cursor.Offset() + h
}

// x returns the horizontal position of a line aligned within the page width
func (s *state) x(text string, align printing.Alignment) float64 {
	col := 0
	n := utf8.RuneCountInString(strings.TrimRight(text, " "))
	switch align {
	case printing.AlignCenter:
		col = (s.profile.PageWidth - n) / 2
	case printing.AlignRight:
		col = s.profile.PageWidth - n
	}
	if col < 0 {
		col = 0
	}
	return s.profile.Origin.X + float64(col)*s.profile.CharWidth
}

func (s *state) y() float64 {
	if s.profile.Origin.BottomLeft {
		return s.profile.Origin.Y - s.cursor.Offset()
	}
	return s.profile.Origin.Y + s.cursor.Offset()
}
