package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/binara/printsvc/internal/domain/printing"
)

// ErrUnknownDevice is returned by Open for a name that is not configured
var ErrUnknownDevice = errors.New("unknown device")

// Handle is an open connection to one device. Close completes the job;
// Abort discards it where the transport allows.
type Handle interface {
	io.Writer
	Device() string
	Close() error
	Abort() error
}

// Writer opens devices by name and writes encoded output to them
type Writer interface {
	Open(ctx context.Context, name string) (Handle, error)
	Write(ctx context.Context, h Handle, out *printing.Output) error
}

// callStreamer is implemented by handles that accept device-context call
// streams
type callStreamer interface {
	acceptsCalls() bool
}

// WriteOutput writes out to h. Byte streams are written as is; call
// streams are written one JSON object per line.
func WriteOutput(ctx context.Context, h Handle, out *printing.Output) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if out.Calls == nil {
		_, err := h.Write(out.Data)
		return err
	}

	if cs, ok := h.(callStreamer); !ok || !cs.acceptsCalls() {
		return printing.NewConfigurationError("device %q cannot accept %s output", h.Device(), out.Kind)
	}
	enc := json.NewEncoder(h)
	for i, call := range out.Calls {
		if err := enc.Encode(call); err != nil {
			return fmt.Errorf("write call %d (%s): %w", i, call.Op, err)
		}
	}
	return nil
}
