package backend

import (
	"bytes"
	"context"

	"github.com/binara/printsvc/internal/domain/printing"
)

// ESC/P control codes
const (
	escpESC byte = 0x1B
	escpLF  byte = 0x0A
	escpFF  byte = 0x0C
)

var (
	escpInit         = []byte{escpESC, '@'}
	escpLineSpacing6 = []byte{escpESC, '2'}
)

// ESCPEncoder writes ESC/P streams for dot-matrix form printers. Text is
// limited to printable ASCII and styles are not rendered.
type ESCPEncoder struct{}

// NewESCPEncoder creates an ESC/P encoder
func NewESCPEncoder() *ESCPEncoder {
	return &ESCPEncoder{}
}

// Kind returns BackendESCP
func (e *ESCPEncoder) Kind() printing.BackendKind {
	return printing.BackendESCP
}

// Encode writes the init block (reset, 1/6" spacing, page length in lines),
// one LF per line advance and a form feed per page.
func (e *ESCPEncoder) Encode(ctx context.Context, plan *printing.Plan, profile printing.DeviceProfile) (*printing.Output, error) {
	if err := checkKind(printing.BackendESCP, profile); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writeInit := func() {
		buf.Write(escpInit)
		buf.Write(escpLineSpacing6)
		buf.Write([]byte{escpESC, 'C', byte(profile.PageLength)})
	}

	writeInit()
	for _, in := range plan.Instructions {
		switch in.Op {
		case printing.OpPlaceText:
			text, err := encodeASCII(printing.BackendESCP, in.Text)
			if err != nil {
				return nil, err
			}
			buf.Write(bytes.Repeat([]byte{' '}, column(in.X, profile)))
			buf.Write(text)
		case printing.OpAdvance:
			buf.Write(bytes.Repeat([]byte{escpLF}, lineFeeds(in.DeltaY, profile)))
		case printing.OpPageBreak:
			buf.WriteByte(escpFF)
			writeInit()
		}
	}
	buf.WriteByte(escpFF)

	return &printing.Output{
		Kind:        printing.BackendESCP,
		Data:        buf.Bytes(),
		ContentType: "application/vnd.epson.escp",
		Pages:       plan.Pages,
	}, nil
}

var _ Encoder = (*ESCPEncoder)(nil)
