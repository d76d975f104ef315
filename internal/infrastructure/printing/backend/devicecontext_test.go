package backend

import (
	"context"
	"testing"

	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dcProfile() printing.DeviceProfile {
	return printing.DeviceProfile{
		Name:        "EPSON LQ-310",
		Kind:        printing.BackendDeviceContext,
		PageWidth:   80,
		PageLength:  3000,
		CharWidth:   18,
		Origin:      printing.Origin{X: 30, Y: 30},
		LineHeights: printing.LineHeights{Title: 60, Normal: 40, Small: 30},
		FontSizes:   printing.FontSizes{Title: 45, Normal: 30, Small: 26},
	}
}

func callStrings(calls []printing.DeviceCall) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

func TestDeviceContextEncoder_Calls(t *testing.T) {
	p := &printing.Plan{
		Title: "BILL",
		Pages: 2,
		Instructions: []printing.Instruction{
			printing.SetFont(styleNormal),
			printing.PlaceText(30, 30, "Bill No.: 1", styleNormal),
			printing.Advance(40),
			printing.SetFont(styleBold),
			printing.PlaceText(30.4, 70.6, "Total", styleBold),
			printing.Advance(40),
			printing.PageBreak(),
			printing.SetFont(styleNormal),
			printing.PlaceText(30, 30, "Thanks", styleNormal),
			printing.Advance(40),
		},
	}

	out, err := NewDeviceContextEncoder().Encode(context.Background(), p, dcProfile())
	require.NoError(t, err)

	assert.Equal(t, []string{
		`StartDoc("BILL")`,
		"StartPage",
		"CreateFont#1(Courier New,30,400,false)",
		"SelectObject#1",
		`TextOut(30,30,"Bill No.: 1")`,
		"CreateFont#2(Courier New,30,700,false)",
		"SelectObject#2",
		`TextOut(30,71,"Total")`,
		"EndPage",
		"StartPage",
		"SelectObject#2",
		"SelectObject#1",
		`TextOut(30,30,"Thanks")`,
		"EndPage",
		"EndDoc",
		"DeleteDC",
	}, callStrings(out.Calls))
	assert.Equal(t, 2, out.Pages)
	assert.Equal(t, len(out.Calls), out.Size())
}

func TestDeviceContextEncoder_Bill(t *testing.T) {
	profile := dcProfile()
	out, err := NewDeviceContextEncoder().Encode(context.Background(), buildPlan(t, billDocument(), profile), profile)
	require.NoError(t, err)

	created := 0
	var texts []string
	for _, c := range out.Calls {
		switch c.Op {
		case printing.CallCreateFont:
			created++
			assert.Equal(t, "Courier New", c.Font.Face)
		case printing.CallTextOut:
			texts = append(texts, c.Text)
		}
	}
	assert.Equal(t, 4, created, "title, metadata, rows and totals fonts")
	assert.Equal(t, "BINARA MEDICAL CENTRE", texts[0])
	assert.Equal(t, "Bill No.: 100", texts[1])
	assert.Equal(t, printing.CallStartDoc, out.Calls[0].Op)
	assert.Equal(t, "BINARA MEDICAL CENTRE", out.Calls[0].DocName)
	assert.Equal(t, printing.CallDeleteDC, out.Calls[len(out.Calls)-1].Op)
}

func TestDeviceContextEncoder_ASCIIOnly(t *testing.T) {
	profile := dcProfile()
	profile.ASCIIOnly = true
	p := &printing.Plan{Instructions: []printing.Instruction{printing.PlaceText(0, 0, "Zoë", styleNormal)}}

	_, err := NewDeviceContextEncoder().Encode(context.Background(), p, profile)
	assert.ErrorIs(t, err, printing.ErrUnsupportedCharacter)

	profile.ASCIIOnly = false
	out, err := NewDeviceContextEncoder().Encode(context.Background(), p, profile)
	require.NoError(t, err)
	assert.Equal(t, `StartDoc("EPSON LQ-310")`, out.Calls[0].String())
}
