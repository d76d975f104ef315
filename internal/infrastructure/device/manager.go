package device

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/binara/printsvc/internal/domain/printing"
	"go.uber.org/zap"
)

// Transport is how a device is reached
type Transport string

const (
	// TransportSpool writes each job to a file in a spool directory
	TransportSpool Transport = "spool"
	// TransportFile writes to an existing file or character device such as /dev/usb/lp0
	TransportFile Transport = "file"
	// TransportTCP writes to a raw socket, typically port 9100
	TransportTCP Transport = "tcp"
)

// Config describes one named device
type Config struct {
	Name         string
	Transport    Transport
	Target       string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// Manager implements Writer for a fixed set of configured devices
type Manager struct {
	devices map[string]Config
	logger  *zap.Logger
	now     func() time.Time
	seq     atomic.Uint64
}

// NewManager creates a manager for the given devices
func NewManager(devices []Config, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		devices: make(map[string]Config, len(devices)),
		logger:  logger,
		now:     time.Now,
	}
	for _, d := range devices {
		if d.Name == "" {
			return nil, fmt.Errorf("device name is required")
		}
		if _, dup := m.devices[d.Name]; dup {
			return nil, fmt.Errorf("device %q configured twice", d.Name)
		}
		switch d.Transport {
		case TransportSpool, TransportFile, TransportTCP:
		default:
			return nil, fmt.Errorf("device %q: unknown transport %q", d.Name, d.Transport)
		}
		if d.Target == "" {
			return nil, fmt.Errorf("device %q: target is required", d.Name)
		}
		if d.DialTimeout <= 0 {
			d.DialTimeout = 5 * time.Second
		}
		if d.WriteTimeout <= 0 {
			d.WriteTimeout = 30 * time.Second
		}
		m.devices[d.Name] = d
	}
	return m, nil
}

// Names returns the configured device names
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.devices))
	for n := range m.devices {
		names = append(names, n)
	}
	return names
}

// Open connects to the named device
func (m *Manager) Open(ctx context.Context, name string) (Handle, error) {
	cfg, ok := m.devices[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDevice, name)
	}

	switch cfg.Transport {
	case TransportSpool:
		return m.openSpool(cfg)
	case TransportFile:
		f, err := os.OpenFile(cfg.Target, os.O_WRONLY|os.O_APPEND, 0)
		if err != nil {
			return nil, fmt.Errorf("open device file: %w", err)
		}
		return &fileHandle{name: name, file: f}, nil
	default:
		dialer := net.Dialer{Timeout: cfg.DialTimeout}
		conn, err := dialer.DialContext(ctx, "tcp", cfg.Target)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", cfg.Target, err)
		}
		if err := conn.SetWriteDeadline(m.now().Add(cfg.WriteTimeout)); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set write deadline: %w", err)
		}
		return &tcpHandle{name: name, conn: conn}, nil
	}
}

// Write writes encoded output to an open handle
func (m *Manager) Write(ctx context.Context, h Handle, out *printing.Output) error {
	if err := WriteOutput(ctx, h, out); err != nil {
		return err
	}
	m.logger.Debug("Output written to device",
		zap.String("device", h.Device()),
		zap.String("backend", out.Kind.String()),
		zap.Int("size", out.Size()),
	)
	return nil
}

func (m *Manager) openSpool(cfg Config) (Handle, error) {
	info, err := os.Stat(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("spool directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("spool target %s is not a directory", cfg.Target)
	}
	tmp, err := os.CreateTemp(cfg.Target, ".job-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}
	final := filepath.Join(cfg.Target, fmt.Sprintf("%s-%s-%d.prn",
		SafeName(cfg.Name), m.now().UTC().Format("20060102T150405.000000000"), m.seq.Add(1)))
	return &spoolHandle{name: cfg.Name, file: tmp, final: final, logger: m.logger}, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SafeName turns a device name into a string usable in file names
func SafeName(name string) string {
	s := strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_")
	if s == "" {
		return "device"
	}
	return s
}

var _ Writer = (*Manager)(nil)
