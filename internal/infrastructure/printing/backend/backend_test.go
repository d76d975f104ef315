package backend

import (
	"context"
	"testing"

	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/binara/printsvc/internal/infrastructure/printing/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	styleTitle  = printing.StyleDirective{Weight: printing.WeightBold, Size: printing.SizeTitle, Align: printing.AlignCenter}
	styleNormal = printing.StyleDirective{Weight: printing.WeightNormal, Size: printing.SizeNormal, Align: printing.AlignLeft}
	styleBold   = printing.StyleDirective{Weight: printing.WeightBold, Size: printing.SizeNormal, Align: printing.AlignLeft}
)

func rawProfile(kind printing.BackendKind) printing.DeviceProfile {
	return printing.DeviceProfile{
		Name:        "raw",
		Kind:        kind,
		PageWidth:   80,
		PageLength:  30,
		CharWidth:   1,
		LineHeights: printing.LineHeights{Title: 1, Normal: 1, Small: 1},
	}
}

func billDocument() printing.Document {
	return printing.Document{
		Title:    "BINARA MEDICAL CENTRE",
		Metadata: []printing.Field{{Label: "Bill No.", Value: "100"}},
		Sections: []printing.Section{{
			Columns: []printing.ColumnSpec{
				{Label: "Service", Width: 30},
				{Label: "Amount", Width: 12, Align: printing.AlignRight},
			},
			Rows: []printing.Row{{"Consultation", "1500"}, {"Injection", "500"}},
		}},
		Totals: []printing.Field{{Label: "Total", Value: "2000"}},
	}
}

func buildPlan(t *testing.T, doc printing.Document, profile printing.DeviceProfile) *printing.Plan {
	t.Helper()
	p, err := plan.NewBuilder().Build(doc, profile)
	require.NoError(t, err)
	return p
}

func TestRegistry(t *testing.T) {
	r := NewDefaultRegistry(VectorOptions{})
	assert.Equal(t, []printing.BackendKind{
		printing.BackendDeviceContext,
		printing.BackendESCP,
		printing.BackendESCPOS,
		printing.BackendVectorCanvas,
	}, r.Kinds())

	for _, kind := range printing.AllBackendKinds() {
		e, err := r.Get(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, e.Kind())
	}

	_, err := NewRegistry(NewESCPEncoder()).Get(printing.BackendESCPOS)
	assert.ErrorIs(t, err, printing.ErrConfiguration)
}

func TestEncoders_RejectProfileOfOtherKind(t *testing.T) {
	p := &printing.Plan{Pages: 1}
	for _, e := range []Encoder{NewESCPEncoder(), NewESCPOSEncoder(), NewDeviceContextEncoder(), NewVectorEncoder(VectorOptions{})} {
		t.Run(string(e.Kind()), func(t *testing.T) {
			profile := rawProfile(printing.BackendESCP)
			if e.Kind() == printing.BackendESCP {
				profile.Kind = printing.BackendESCPOS
			}
			_, err := e.Encode(context.Background(), p, profile)
			assert.ErrorIs(t, err, printing.ErrConfiguration)
		})
	}
}

func TestEncoders_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewESCPEncoder().Encode(ctx, &printing.Plan{}, rawProfile(printing.BackendESCP))
	assert.ErrorIs(t, err, context.Canceled)
}
