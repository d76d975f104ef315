package backend

import (
	"bytes"
	"context"
	"strings"

	"github.com/binara/printsvc/internal/domain/printing"
	"golang.org/x/text/encoding/charmap"
)

// ESC/POS control codes
const (
	posESC byte = 0x1B
	posGS  byte = 0x1D
	posLF  byte = 0x0A
)

// Sizes for GS ! n
const (
	posSizeNormal       byte = 0x00
	posSizeDoubleHeight byte = 0x01
)

// trailingFeed is the number of blank lines fed before the cut so the last
// line clears the cutter
const trailingFeed = 3

// ESCPOSEncoder writes ESC/POS streams for receipt printers. Receipts are a
// continuous strip, so page breaks are ignored.
type ESCPOSEncoder struct{}

// NewESCPOSEncoder creates an ESC/POS encoder
func NewESCPOSEncoder() *ESCPOSEncoder {
	return &ESCPOSEncoder{}
}

// Kind returns BackendESCPOS
func (e *ESCPOSEncoder) Kind() printing.BackendKind {
	return printing.BackendESCPOS
}

type posState struct {
	align     printing.Alignment
	bold      bool
	underline bool
	size      byte
}

// Encode writes the receipt. Alignment, bold, underline and title height are
// switched only when they change.
func (e *ESCPOSEncoder) Encode(ctx context.Context, plan *printing.Plan, profile printing.DeviceProfile) (*printing.Output, error) {
	if err := checkKind(printing.BackendESCPOS, profile); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table := charmap.CodePage437
	var buf bytes.Buffer
	buf.Write([]byte{posESC, '@'})
	if cp, ok := escposCodePages[profile.CodePage]; ok {
		buf.Write([]byte{posESC, 't', cp.selector})
		table = cp.table
	}

	st := posState{align: printing.AlignLeft}
	for _, in := range plan.Instructions {
		switch in.Op {
		case printing.OpPlaceText:
			if err := e.placeText(&buf, &st, in, profile, table); err != nil {
				return nil, err
			}
		case printing.OpAdvance:
			buf.Write(bytes.Repeat([]byte{posLF}, lineFeeds(in.DeltaY, profile)))
		}
	}

	e.switchStyle(&buf, &st, posState{align: printing.AlignLeft})
	buf.Write(bytes.Repeat([]byte{posLF}, trailingFeed))
	switch profile.Cut {
	case printing.CutNone:
	case printing.CutPartial:
		buf.Write([]byte{posGS, 'V', 0x01})
	default:
		buf.Write([]byte{posGS, 'V', 0x00})
	}

	return &printing.Output{
		Kind:        printing.BackendESCPOS,
		Data:        buf.Bytes(),
		ContentType: "application/vnd.epson.escpos",
		Pages:       1,
	}, nil
}

func (e *ESCPOSEncoder) placeText(buf *bytes.Buffer, st *posState, in printing.Instruction, profile printing.DeviceProfile, table *charmap.Charmap) error {
	want := posState{
		align:     in.Style.Align.OrDefault(),
		bold:      in.Style.Bold(),
		underline: in.Style.Underline,
		size:      posSizeNormal,
	}
	if in.Style.Size == printing.SizeTitle {
		want.size = posSizeDoubleHeight
	}

	text := in.Text
	indent := 0
	if want.align == printing.AlignLeft {
		indent = column(in.X, profile)
	} else {
		text = strings.TrimSpace(text)
	}

	var encoded []byte
	var err error
	if profile.ASCIIOnly {
		encoded, err = encodeASCII(printing.BackendESCPOS, text)
	} else {
		encoded, err = encodeCharmap(printing.BackendESCPOS, table, text)
	}
	if err != nil {
		return err
	}

	e.switchStyle(buf, st, want)
	buf.Write(bytes.Repeat([]byte{' '}, indent))
	buf.Write(encoded)
	return nil
}

func (e *ESCPOSEncoder) switchStyle(buf *bytes.Buffer, st *posState, want posState) {
	if want.align != st.align {
		var n byte
		switch want.align {
		case printing.AlignCenter:
			n = 1
		case printing.AlignRight:
			n = 2
		}
		buf.Write([]byte{posESC, 'a', n})
	}
	if want.bold != st.bold {
		buf.Write([]byte{posESC, 'E', flag(want.bold)})
	}
	if want.underline != st.underline {
		buf.Write([]byte{posESC, '-', flag(want.underline)})
	}
	if want.size != st.size {
		buf.Write([]byte{posGS, '!', want.size})
	}
	*st = want
}

func flag(on bool) byte {
	if on {
		return 1
	}
	return 0
}

var _ Encoder = (*ESCPOSEncoder)(nil)
