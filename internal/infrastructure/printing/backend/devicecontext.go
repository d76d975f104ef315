package backend

import (
	"context"
	"math"

	"github.com/binara/printsvc/internal/domain/printing"
)

// Font weights as used by CreateFont
const (
	fontWeightNormal = 400
	fontWeightBold   = 700
)

const defaultDeviceFace = "Courier New"

// DeviceContextEncoder produces the call stream for a GDI-style device
// context. Each distinct font is created once and reselected on demand.
type DeviceContextEncoder struct{}

// NewDeviceContextEncoder creates a device-context encoder
func NewDeviceContextEncoder() *DeviceContextEncoder {
	return &DeviceContextEncoder{}
}

// Kind returns BackendDeviceContext
func (e *DeviceContextEncoder) Kind() printing.BackendKind {
	return printing.BackendDeviceContext
}

// Encode wraps the plan in StartDoc/StartPage ... EndPage/EndDoc and
// places text with TextOut at absolute device coordinates.
func (e *DeviceContextEncoder) Encode(ctx context.Context, plan *printing.Plan, profile printing.DeviceProfile) (*printing.Output, error) {
	if err := checkKind(printing.BackendDeviceContext, profile); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	face := profile.FontName
	if face == "" {
		face = defaultDeviceFace
	}
	docName := plan.Title
	if docName == "" {
		docName = profile.Name
	}

	calls := []printing.DeviceCall{
		{Op: printing.CallStartDoc, DocName: docName},
		{Op: printing.CallStartPage},
	}
	fonts := make(map[printing.FontKey]int)
	selected := 0

	for _, in := range plan.Instructions {
		switch in.Op {
		case printing.OpSetFont:
			key := in.Style.FontKey()
			id, ok := fonts[key]
			if !ok {
				id = len(fonts) + 1
				fonts[key] = id
				calls = append(calls, printing.DeviceCall{
					Op:     printing.CallCreateFont,
					FontID: id,
					Font:   fontSpec(face, key, profile),
				})
			}
			calls = append(calls, printing.DeviceCall{Op: printing.CallSelectObject, FontID: id})
			selected = id
		case printing.OpPlaceText:
			if profile.ASCIIOnly {
				if _, err := encodeASCII(printing.BackendDeviceContext, in.Text); err != nil {
					return nil, err
				}
			}
			calls = append(calls, printing.DeviceCall{
				Op:   printing.CallTextOut,
				X:    int(math.Round(in.X)),
				Y:    int(math.Round(in.Y)),
				Text: in.Text,
			})
		case printing.OpPageBreak:
			calls = append(calls,
				printing.DeviceCall{Op: printing.CallEndPage},
				printing.DeviceCall{Op: printing.CallStartPage},
			)
			if selected != 0 {
				calls = append(calls, printing.DeviceCall{Op: printing.CallSelectObject, FontID: selected})
			}
		}
	}

	calls = append(calls,
		printing.DeviceCall{Op: printing.CallEndPage},
		printing.DeviceCall{Op: printing.CallEndDoc},
		printing.DeviceCall{Op: printing.CallDeleteDC},
	)

	return &printing.Output{
		Kind:        printing.BackendDeviceContext,
		Calls:       calls,
		ContentType: "application/x-ndjson",
		Pages:       plan.Pages,
	}, nil
}

func fontSpec(face string, key printing.FontKey, profile printing.DeviceProfile) *printing.FontSpec {
	weight := fontWeightNormal
	if key.Bold {
		weight = fontWeightBold
	}
	return &printing.FontSpec{
		Face:      face,
		Height:    int(math.Round(profile.FontSizes.For(key.Size))),
		Weight:    weight,
		Underline: key.Underline,
	}
}

var _ Encoder = (*DeviceContextEncoder)(nil)
