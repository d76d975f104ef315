package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	app "github.com/binara/printsvc/internal/application/printing"
	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/binara/printsvc/internal/infrastructure/device"
	"github.com/binara/printsvc/internal/infrastructure/printing/backend"
	"github.com/binara/printsvc/internal/infrastructure/storage"
	"github.com/binara/printsvc/internal/interfaces/http/dto"
	"github.com/binara/printsvc/internal/interfaces/http/handler"
	"github.com/binara/printsvc/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type printServer struct {
	engine   *gin.Engine
	spoolDir string
}

func newPrintServer(t *testing.T, withStorage bool) *printServer {
	t.Helper()
	log := zaptest.NewLogger(t)

	spoolDir := t.TempDir()
	devices, err := device.NewManager([]device.Config{
		{Name: "lq310", Transport: device.TransportSpool, Target: spoolDir},
		{Name: "receipt", Transport: device.TransportSpool, Target: spoolDir},
		{Name: "offline", Transport: device.TransportSpool, Target: filepath.Join(spoolDir, "missing")},
	}, log)
	require.NoError(t, err)

	opts := []app.DispatcherOption{
		app.WithDeviceWriter(devices),
		app.WithDispatchLogger(log),
		app.WithDispatchConfig(app.DispatchConfig{
			AcquireTimeout:      time.Second,
			OpenAttempts:        2,
			OpenInitialInterval: time.Millisecond,
			OpenMaxInterval:     2 * time.Millisecond,
		}),
	}
	svcOpts := []app.ServiceOption{app.WithServiceLogger(log)}
	if withStorage {
		store, err := storage.NewFileSystemStorage(&storage.FileSystemConfig{
			BasePath: t.TempDir(),
			Now:      func() time.Time { return time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC) },
		})
		require.NoError(t, err)
		opts = append(opts, app.WithOutputStorage(store))
		svcOpts = append(svcOpts, app.WithOutputs(store))
	}
	dispatcher := app.NewDispatcher(backend.NewDefaultRegistry(backend.VectorOptions{}), opts...)

	raw := printing.DeviceProfile{
		Kind:        printing.BackendESCP,
		Device:      "lq310",
		PageWidth:   80,
		PageLength:  30,
		CharWidth:   1,
		LineHeights: printing.LineHeights{Title: 1, Normal: 1, Small: 1},
		ASCIIOnly:   true,
	}
	offline := raw
	offline.Device = "offline"
	profiles := map[string]printing.DeviceProfile{
		"a4-pdf": {
			Kind:        printing.BackendVectorCanvas,
			PageWidth:   70,
			PageLength:  750,
			CharWidth:   7,
			Origin:      printing.Origin{X: 50, Y: 800, BottomLeft: true},
			LineHeights: printing.LineHeights{Title: 24, Normal: 18, Small: 14},
			FontSizes:   printing.FontSizes{Title: 16, Normal: 12, Small: 10},
			FontName:    "Courier",
			PageSize:    printing.PageSize{Width: 595.28, Height: 841.89},
		},
		"lq310-raw": raw,
		"offline":   offline,
		"receipt-80mm": {
			Kind:        printing.BackendESCPOS,
			Device:      "receipt",
			PageWidth:   48,
			CharWidth:   1,
			LineHeights: printing.LineHeights{Title: 1, Normal: 1, Small: 1},
			CodePage:    printing.CodePagePC858,
			Cut:         printing.CutPartial,
		},
	}

	docs := app.NewDocumentFactory("BINARA MEDICAL CENTRE", []string{"Thank you"}, time.UTC)
	svc := app.NewPrintService(dispatcher, docs, profiles,
		app.Targets{Bill: "a4-pdf", Summary: "receipt-80mm", ServiceCost: "a4-pdf"},
		svcOpts...,
	)

	engine := gin.New()
	h := handler.NewPrintHandler(svc)
	router.NewRouter(engine).
		RegisterRoot(handler.LegacyPrintRoutes(h)).
		Register(handler.PrintRoutes(h)).
		Setup()

	return &printServer{engine: engine, spoolDir: spoolDir}
}

func (s *printServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *printServer) spooled(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(s.spoolDir, "*.prn"))
	require.NoError(t, err)
	return matches
}

func billBody() map[string]any {
	return map[string]any{
		"bill_id":        1042,
		"bill_reference": "A7",
		"payment_type":   "Cash",
		"customer_name":  "K. Perera",
		"doctor_name":    "Dr. Silva",
		"items": []map[string]any{
			{"name": "Consultation", "price": "1500"},
			{"name": "Injection", "price": 500.5},
		},
	}
}

func decodeOutcome(t *testing.T, w *httptest.ResponseRecorder) printing.PrintOutcome {
	t.Helper()
	var out printing.PrintOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestPrintHandler_PrintBill(t *testing.T) {
	srv := newPrintServer(t, true)

	for _, path := range []string{"/api/v1/print/bill", "/api/v1/print", "/print"} {
		t.Run(path, func(t *testing.T) {
			w := srv.do(http.MethodPost, path, billBody())
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			out := decodeOutcome(t, w)
			assert.Equal(t, printing.OutcomeSuccess, out.Status)
			assert.Equal(t, "a4-pdf", out.Target)
			assert.Equal(t, "2025/03/bill_1042-A7.pdf", out.OutputPath)
			assert.Equal(t, "/api/v1/print/files/2025/03/bill_1042-A7.pdf", out.FileURL)
		})
	}
}

func TestPrintHandler_TargetOverrides(t *testing.T) {
	srv := newPrintServer(t, true)

	t.Run("target in body", func(t *testing.T) {
		body := billBody()
		body["target"] = "lq310-raw"
		w := srv.do(http.MethodPost, "/api/v1/print/bill", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, printing.BackendESCP, decodeOutcome(t, w).Backend)
	})

	t.Run("query overrides body", func(t *testing.T) {
		before := len(srv.spooled(t))
		body := billBody()
		body["target"] = "a4-pdf"
		w := srv.do(http.MethodPost, "/api/v1/print/bill?target=lq310-raw&copies=2", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "lq310-raw", decodeOutcome(t, w).Target)
		assert.Len(t, srv.spooled(t), before+2)
	})
}

func TestPrintHandler_PrintSummaryToReceipt(t *testing.T) {
	srv := newPrintServer(t, false)

	w := srv.do(http.MethodPost, "/print-summary", map[string]any{
		"start_date": "2025-03-01",
		"end_date":   "2025-03-14",
		"items": []map[string]any{
			{"service_name": "ECG", "quantity": 1, "total": 800},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, printing.BackendESCPOS, decodeOutcome(t, w).Backend)

	files := srv.spooled(t)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Grand Total: Rs.800.00")
}

func TestPrintHandler_Failures(t *testing.T) {
	srv := newPrintServer(t, true)

	tests := []struct {
		name       string
		path       string
		body       any
		raw        string
		wantStatus int
		wantCode   string
		wantJob    bool
	}{
		{
			name:       "malformed json",
			path:       "/api/v1/print/bill",
			raw:        `{"bill_id":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeBadRequest,
		},
		{
			name:       "missing items",
			path:       "/api/v1/print/bill",
			body:       map[string]any{"bill_id": 1, "customer_name": "A"},
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidation,
		},
		{
			name:       "unknown target",
			path:       "/api/v1/print/bill?target=laserjet",
			body:       billBody(),
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeInvalidInput,
		},
		{
			name:       "device unavailable",
			path:       "/api/v1/print/bill?target=offline",
			body:       billBody(),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "DEVICE_UNAVAILABLE",
			wantJob:    true,
		},
		{
			name: "report too wide for receipt",
			path: "/api/v1/print/service-cost?target=receipt-80mm",
			body: map[string]any{
				"start_date": "2025-03-01",
				"end_date":   "2025-03-14",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "CONFIGURATION_ERROR",
			wantJob:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tt.raw != "" {
				req := httptest.NewRequest(http.MethodPost, tt.path, bytes.NewBufferString(tt.raw))
				req.Header.Set("Content-Type", "application/json")
				w = httptest.NewRecorder()
				srv.engine.ServeHTTP(w, req)
			} else {
				w = srv.do(http.MethodPost, tt.path, tt.body)
			}

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "failure", body["status"])
			assert.Equal(t, tt.wantCode, body["error_code"])
			assert.NotEmpty(t, body["message"])
			if tt.wantJob {
				assert.NotEmpty(t, body["job_id"])
			} else {
				assert.NotContains(t, body, "job_id")
			}
		})
	}
}

func TestPrintHandler_ListTargets(t *testing.T) {
	srv := newPrintServer(t, false)

	w := srv.do(http.MethodGet, "/api/v1/print/targets", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                 `json:"success"`
		Data    []app.TargetResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 4)
	assert.Equal(t, "a4-pdf", resp.Data[0].Name)
	assert.ElementsMatch(t, []string{"BILL", "SERVICE_COST_REPORT"}, resp.Data[0].DefaultOf)
	assert.True(t, resp.Data[0].MultiPage)
}

func TestPrintHandler_JobsWithoutHistory(t *testing.T) {
	srv := newPrintServer(t, false)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"list", "/api/v1/print/jobs", http.StatusNotFound, dto.ErrCodeNotFound},
		{"get", "/api/v1/print/jobs/6f1c2d9e-8a53-4c1e-9d27-3b8f5b1a0e42", http.StatusNotFound, dto.ErrCodeNotFound},
		{"bad id", "/api/v1/print/jobs/not-a-uuid", http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"bad page size", "/api/v1/print/jobs?page_size=500", http.StatusBadRequest, dto.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestPrintHandler_DownloadFile(t *testing.T) {
	srv := newPrintServer(t, true)

	w := srv.do(http.MethodPost, "/api/v1/print/bill", billBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decodeOutcome(t, w)

	t.Run("stored pdf", func(t *testing.T) {
		w := srv.do(http.MethodGet, out.FileURL, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="bill_1042-A7.pdf"`, w.Header().Get("Content-Disposition"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
	})

	t.Run("missing file", func(t *testing.T) {
		w := srv.do(http.MethodGet, "/api/v1/print/files/2025/03/nope.pdf", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("traversal is not found", func(t *testing.T) {
		w := srv.do(http.MethodGet, "/api/v1/print/files/..%2F..%2Fetc%2Fpasswd", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
