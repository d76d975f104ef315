// Package backend contains the encoders that turn a render plan into output
// for a specific target: a vector PDF canvas, a device-context call stream,
// or raw ESC/P and ESC/POS byte streams.
package backend

import (
	"context"
	"math"
	"sort"

	"github.com/binara/printsvc/internal/domain/printing"
)

// Encoder translates a plan into the output of one backend kind.
// Styles the backend cannot express are dropped, never rejected.
type Encoder interface {
	Kind() printing.BackendKind
	Encode(ctx context.Context, plan *printing.Plan, profile printing.DeviceProfile) (*printing.Output, error)
}

// Registry maps backend kinds to encoders
type Registry struct {
	encoders map[printing.BackendKind]Encoder
}

// NewRegistry creates a registry holding the given encoders. A later
// encoder replaces an earlier one of the same kind.
func NewRegistry(encoders ...Encoder) *Registry {
	r := &Registry{encoders: make(map[printing.BackendKind]Encoder, len(encoders))}
	for _, e := range encoders {
		r.encoders[e.Kind()] = e
	}
	return r
}

// NewDefaultRegistry registers one encoder per backend kind
func NewDefaultRegistry(opts VectorOptions) *Registry {
	return NewRegistry(
		NewVectorEncoder(opts),
		NewDeviceContextEncoder(),
		NewESCPEncoder(),
		NewESCPOSEncoder(),
	)
}

// Get returns the encoder for kind
func (r *Registry) Get(kind printing.BackendKind) (Encoder, error) {
	e, ok := r.encoders[kind]
	if !ok {
		return nil, printing.NewConfigurationError("no encoder registered for backend %q", kind)
	}
	return e, nil
}

// Kinds returns the registered kinds in sorted order
func (r *Registry) Kinds() []printing.BackendKind {
	kinds := make([]printing.BackendKind, 0, len(r.encoders))
	for k := range r.encoders {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// checkKind rejects a profile meant for another backend
func checkKind(want printing.BackendKind, profile printing.DeviceProfile) error {
	if profile.Kind != want {
		return printing.NewConfigurationError("profile %q is for %s, not %s", profile.Name, profile.Kind, want)
	}
	return nil
}

// column converts a horizontal position into a character column
func column(x float64, profile printing.DeviceProfile) int {
	col := int(math.Round(x / profile.CharWidth))
	if col < 0 {
		return 0
	}
	return col
}

// lineFeeds converts a vertical advance into whole lines of the normal height
func lineFeeds(dy float64, profile printing.DeviceProfile) int {
	if dy <= 0 {
		return 0
	}
	n := int(math.Round(dy / profile.LineHeights.Normal))
	if n < 1 {
		n = 1
	}
	return n
}
