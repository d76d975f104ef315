package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "printsvc", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8000", cfg.App.Port)
	assert.Equal(t, "local", cfg.Lock.Backend)
	assert.Equal(t, 2*time.Minute, cfg.Lock.TTL)
	assert.Equal(t, 40*time.Second, cfg.Lock.RenewInterval)
	assert.Equal(t, "filesystem", cfg.Storage.Backend)
	assert.Equal(t, "/api/v1/print/files", cfg.Storage.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Dispatch.AcquireTimeout)
	assert.Equal(t, 3, cfg.Dispatch.OpenAttempts)
	assert.Equal(t, "lq310", cfg.Print.BillTarget)
	assert.Equal(t, "a4-pdf", cfg.Print.SummaryTarget)
	assert.Equal(t, "BINARA MEDICAL CENTRE", cfg.Print.ClinicName)
	assert.Len(t, cfg.Print.Footer, 3)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.binara.live"}, cfg.HTTP.CORSAllowOrigins)
	assert.False(t, cfg.Database.Enabled)

	require.Len(t, cfg.Devices, 2)
	for _, name := range []string{"a4-pdf", "lq310", "lq310-raw", "receipt-80mm"} {
		p, ok := cfg.Profiles[name]
		require.True(t, ok, name)
		assert.Equal(t, name, p.Name)
		assert.NoError(t, p.Validate(), name)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PRINTSVC_APP_PORT", "9100")
	t.Setenv("PRINTSVC_STORAGE_BASE_PATH", "/srv/prints")
	t.Setenv("PRINTSVC_DISPATCH_ACQUIRE_TIMEOUT", "5s")
	t.Setenv("PRINTSVC_PRINT_BILL_TARGET", "receipt-80mm")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.App.Port)
	assert.Equal(t, "/srv/prints", cfg.Storage.BasePath)
	assert.Equal(t, 5*time.Second, cfg.Dispatch.AcquireTimeout)
	assert.Equal(t, "receipt-80mm", cfg.Print.BillTarget)
}

func TestLoadFile_DevicesAndProfiles(t *testing.T) {
	path := writeConfig(t, `
[app]
env = "testing"

[print]
bill_target = "counter"

[[devices]]
name = "counter"
transport = "tcp"
target = "10.0.0.5:9100"
dial_timeout = "2s"

[profiles.counter]
kind = "escpos"
device = "counter"
page_width = 32
char_width = 1
code_page = "PC437"
cut = "full"

[profiles.counter.line_heights]
title = 1
normal = 1
small = 1

[profiles.a4-pdf]
kind = "vector_canvas"
page_width = 60
page_length = 700
char_width = 8
font_name = "Helvetica"

[profiles.a4-pdf.origin]
x = 40
y = 780
bottom_left = true

[profiles.a4-pdf.line_heights]
title = 20
normal = 16
small = 12

[profiles.a4-pdf.font_sizes]
title = 14
normal = 11
small = 9

[profiles.a4-pdf.page_size]
width = 595.28
height = 841.89
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	require.Len(t, cfg.Devices, 1)
	assert.Equal(t, DeviceConfig{Name: "counter", Transport: "tcp", Target: "10.0.0.5:9100", DialTimeout: 2 * time.Second}, cfg.Devices[0])

	counter := cfg.Profiles["counter"]
	assert.Equal(t, "counter", counter.Name)
	assert.Equal(t, printing.BackendESCPOS, counter.Kind)
	assert.Equal(t, 32, counter.PageWidth)
	assert.Equal(t, printing.CutFull, counter.Cut)
	assert.Equal(t, 1.0, counter.LineHeights.Title)

	pdf := cfg.Profiles["a4-pdf"]
	assert.Equal(t, "Helvetica", pdf.FontName)
	assert.Equal(t, printing.Origin{X: 40, Y: 780, BottomLeft: true}, pdf.Origin)
	assert.Equal(t, 595.28, pdf.PageSize.Width)

	_, ok := cfg.Profiles["lq310-raw"]
	assert.True(t, ok, "built-in profiles stay available")
}

func TestLoadFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown lock backend",
			body:    "[lock]\nbackend = \"etcd\"\n",
			wantErr: "Lock.Backend",
		},
		{
			name:    "unknown device transport",
			body:    "[[devices]]\nname = \"x\"\ntransport = \"usb\"\ntarget = \"/dev/x\"\n",
			wantErr: "Transport",
		},
		{
			name:    "target without profile",
			body:    "[print]\nsummary_target = \"missing\"\n",
			wantErr: `print.summary_target: unknown profile "missing"`,
		},
		{
			name:    "invalid profile",
			body:    "[profiles.bad]\nkind = \"escp\"\npage_width = 80\nchar_width = 1\npage_length = 200\n[profiles.bad.line_heights]\ntitle = 1\nnormal = 1\nsmall = 1\n",
			wantErr: "profiles.bad",
		},
		{
			name:    "s3 without bucket",
			body:    "[storage]\nbackend = \"s3\"\n",
			wantErr: "storage.s3.bucket is required",
		},
		{
			name:    "sampling ratio out of range",
			body:    "[telemetry]\nsampling_ratio = 1.5\n",
			wantErr: "sampling_ratio",
		},
		{
			name:    "wildcard CORS in production",
			body:    "[app]\nenv = \"production\"\n[http]\ncors_allow_origins = [\"*\"]\n",
			wantErr: "cors_allow_origins",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("postgres escapes credentials", func(t *testing.T) {
		d := DatabaseConfig{
			Driver:   "postgres",
			Host:     "db",
			Port:     5432,
			User:     "print",
			Password: "p@ss/word",
			DBName:   "printsvc",
			SSLMode:  "disable",
		}
		assert.Equal(t, "postgres://print:p%40ss%2Fword@db:5432/printsvc?sslmode=disable", d.DSN())
	})

	t.Run("sqlite uses the file path", func(t *testing.T) {
		d := DatabaseConfig{Driver: "sqlite", Path: "/var/lib/printsvc.db"}
		assert.Equal(t, "/var/lib/printsvc.db", d.DSN())
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
