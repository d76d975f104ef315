package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthEnvelope struct {
	Success bool           `json:"success"`
	Data    HealthResponse `json:"data"`
}

func serveHealth(t *testing.T, h *SystemHandler) (int, HealthResponse) {
	t.Helper()
	engine := gin.New()
	engine.GET("/health", h.Health)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp healthEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	return w.Code, resp.Data
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("ok without checks", func(t *testing.T) {
		h := NewSystemHandler("printsvc", "1.2.0", []string{"receipt", "lq310"}, nil)
		code, resp := serveHealth(t, h)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "printsvc", resp.Name)
		assert.Equal(t, "1.2.0", resp.Version)
		assert.NotEmpty(t, resp.GoVersion)
		assert.Equal(t, []string{"lq310", "receipt"}, resp.Devices)
		assert.Empty(t, resp.Checks)
	})

	t.Run("degraded when a check fails", func(t *testing.T) {
		checks := map[string]HealthCheck{
			"database": func(ctx context.Context) error { return nil },
			"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
		}
		h := NewSystemHandler("printsvc", "1.2.0", nil, checks)
		code, resp := serveHealth(t, h)

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "ok", resp.Checks["database"])
		assert.Equal(t, "connection refused", resp.Checks["redis"])
	})

	t.Run("checks receive a deadline", func(t *testing.T) {
		var hasDeadline bool
		checks := map[string]HealthCheck{
			"storage": func(ctx context.Context) error {
				_, hasDeadline = ctx.Deadline()
				return nil
			},
		}
		code, _ := serveHealth(t, NewSystemHandler("printsvc", "dev", nil, checks))

		assert.Equal(t, http.StatusOK, code)
		assert.True(t, hasDeadline)
	})

	t.Run("configured device list is not reordered", func(t *testing.T) {
		devices := []string{"b", "a"}
		serveHealth(t, NewSystemHandler("printsvc", "dev", devices, nil))
		assert.Equal(t, []string{"b", "a"}, devices)
	})
}
