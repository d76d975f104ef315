package device

import (
	"errors"
	"fmt"
	"net"
	"os"

	"go.uber.org/zap"
)

// spoolHandle writes to a temporary file renamed into place on Close,
// so a spool directory never holds a partial job
type spoolHandle struct {
	name   string
	file   *os.File
	final  string
	logger *zap.Logger
	done   bool
}

func (h *spoolHandle) Device() string              { return h.name }
func (h *spoolHandle) Write(p []byte) (int, error) { return h.file.Write(p) }
func (h *spoolHandle) acceptsCalls() bool          { return true }

func (h *spoolHandle) Close() error {
	if h.done {
		return nil
	}
	h.done = true
	if err := h.file.Sync(); err != nil {
		_ = h.discard()
		return fmt.Errorf("sync spool file: %w", err)
	}
	if err := h.file.Close(); err != nil {
		_ = os.Remove(h.file.Name())
		return fmt.Errorf("close spool file: %w", err)
	}
	if err := os.Rename(h.file.Name(), h.final); err != nil {
		_ = os.Remove(h.file.Name())
		return fmt.Errorf("commit spool file: %w", err)
	}
	h.logger.Debug("Spool job committed", zap.String("device", h.name), zap.String("path", h.final))
	return nil
}

func (h *spoolHandle) Abort() error {
	if h.done {
		return nil
	}
	h.done = true
	return h.discard()
}

func (h *spoolHandle) discard() error {
	closeErr := h.file.Close()
	removeErr := os.Remove(h.file.Name())
	if removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		return removeErr
	}
	if closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
		return closeErr
	}
	return nil
}

// fileHandle appends to an existing device file. Bytes already written to a
// device cannot be recalled, so Abort only closes it.
type fileHandle struct {
	name string
	file *os.File
}

func (h *fileHandle) Device() string              { return h.name }
func (h *fileHandle) Write(p []byte) (int, error) { return h.file.Write(p) }
func (h *fileHandle) Close() error                { return h.file.Close() }
func (h *fileHandle) Abort() error                { return h.file.Close() }
func (h *fileHandle) acceptsCalls() bool          { return true }

// tcpHandle streams raw bytes to a network printer
type tcpHandle struct {
	name string
	conn net.Conn
}

func (h *tcpHandle) Device() string              { return h.name }
func (h *tcpHandle) Write(p []byte) (int, error) { return h.conn.Write(p) }
func (h *tcpHandle) Close() error                { return h.conn.Close() }
func (h *tcpHandle) Abort() error                { return h.conn.Close() }
