package device

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func escpOutput(data string) *printing.Output {
	return &printing.Output{Kind: printing.BackendESCP, Data: []byte(data)}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestNewManager_Validation(t *testing.T) {
	tests := []struct {
		name    string
		devices []Config
		wantErr string
	}{
		{"ok", []Config{{Name: "a", Transport: TransportSpool, Target: "/tmp"}}, ""},
		{"missing name", []Config{{Transport: TransportSpool, Target: "/tmp"}}, "name is required"},
		{"duplicate", []Config{
			{Name: "a", Transport: TransportSpool, Target: "/tmp"},
			{Name: "a", Transport: TransportTCP, Target: "host:9100"},
		}, "configured twice"},
		{"bad transport", []Config{{Name: "a", Transport: "usb", Target: "x"}}, "unknown transport"},
		{"missing target", []Config{{Name: "a", Transport: TransportFile}}, "target is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager(tt.devices, nil)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestManager_SpoolCommit(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager([]Config{{Name: "EPSON LQ-310", Transport: TransportSpool, Target: dir}}, zaptest.NewLogger(t))
	require.NoError(t, err)

	h, err := m.Open(context.Background(), "EPSON LQ-310")
	require.NoError(t, err)
	assert.Equal(t, "EPSON LQ-310", h.Device())

	require.NoError(t, m.Write(context.Background(), h, escpOutput("\x1b@hello\x0c")))
	require.NoError(t, h.Close())
	require.NoError(t, h.Close(), "second close is a no-op")

	files := listDir(t, dir)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(files[0], "EPSON_LQ-310-"))
	assert.True(t, strings.HasSuffix(files[0], ".prn"))

	data, err := os.ReadFile(filepath.Join(dir, files[0]))
	require.NoError(t, err)
	assert.Equal(t, "\x1b@hello\x0c", string(data))
}

func TestManager_SpoolAbortLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager([]Config{{Name: "receipt", Transport: TransportSpool, Target: dir}}, nil)
	require.NoError(t, err)

	h, err := m.Open(context.Background(), "receipt")
	require.NoError(t, err)
	_, err = h.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, h.Abort())

	assert.Empty(t, listDir(t, dir))
}

func TestManager_OpenFailures(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager([]Config{
		{Name: "missing-spool", Transport: TransportSpool, Target: filepath.Join(dir, "nope")},
		{Name: "missing-file", Transport: TransportFile, Target: filepath.Join(dir, "lp0")},
	}, nil)
	require.NoError(t, err)

	_, err = m.Open(context.Background(), "not-configured")
	assert.ErrorIs(t, err, ErrUnknownDevice)

	_, err = m.Open(context.Background(), "missing-spool")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = m.Open(context.Background(), "missing-file")
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.Empty(t, listDir(t, dir))
}

func TestManager_FileTransportAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lp0")
	require.NoError(t, os.WriteFile(path, []byte("A"), 0o644))

	m, err := NewManager([]Config{{Name: "lp0", Transport: TransportFile, Target: path}}, nil)
	require.NoError(t, err)

	for _, chunk := range []string{"B", "C"} {
		h, err := m.Open(context.Background(), "lp0")
		require.NoError(t, err)
		require.NoError(t, m.Write(context.Background(), h, escpOutput(chunk)))
		require.NoError(t, h.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ABC", string(data))
}

func TestManager_DeviceContextCallsAsJSONLines(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager([]Config{{Name: "dc", Transport: TransportSpool, Target: dir}}, nil)
	require.NoError(t, err)

	out := &printing.Output{Kind: printing.BackendDeviceContext, Calls: []printing.DeviceCall{
		{Op: printing.CallStartDoc, DocName: "Bill"},
		{Op: printing.CallTextOut, X: 30, Y: 30, Text: "Bill No.: 1"},
		{Op: printing.CallEndDoc},
	}}

	h, err := m.Open(context.Background(), "dc")
	require.NoError(t, err)
	require.NoError(t, m.Write(context.Background(), h, out))
	require.NoError(t, h.Close())

	files := listDir(t, dir)
	require.Len(t, files, 1)
	f, err := os.Open(filepath.Join(dir, files[0]))
	require.NoError(t, err)
	defer f.Close()

	var got []printing.DeviceCall
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var c printing.DeviceCall
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &c))
		got = append(got, c)
	}
	assert.Equal(t, out.Calls, got)
}

func TestManager_TCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	m, err := NewManager([]Config{{Name: "net", Transport: TransportTCP, Target: ln.Addr().String()}}, nil)
	require.NoError(t, err)

	h, err := m.Open(context.Background(), "net")
	require.NoError(t, err)

	calls := &printing.Output{Kind: printing.BackendDeviceContext, Calls: []printing.DeviceCall{{Op: printing.CallStartDoc}}}
	assert.ErrorIs(t, m.Write(context.Background(), h, calls), printing.ErrConfiguration)

	require.NoError(t, m.Write(context.Background(), h, escpOutput("\x1b@receipt")))
	require.NoError(t, h.Close())

	assert.Equal(t, "\x1b@receipt", string(<-received))
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "EPSON_LQ-310", SafeName("EPSON LQ-310"))
	assert.Equal(t, "a_b", SafeName("a/../b"))
	assert.Equal(t, "device", SafeName("///"))
}

func TestWriteOutput_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, WriteOutput(ctx, &fileHandle{name: "x"}, escpOutput("x")), context.Canceled)
}
