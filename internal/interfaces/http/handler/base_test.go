package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/binara/printsvc/internal/domain/shared"
	"github.com/binara/printsvc/internal/interfaces/http/dto"
	"github.com/binara/printsvc/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name: "from context",
			setup: func(c *gin.Context) {
				c.Set(middleware.RequestIDKey, "ctx-request-id")
			},
			expectedID: "ctx-request-id",
		},
		{
			name: "from header when context empty",
			setup: func(c *gin.Context) {
				c.Request.Header.Set(middleware.RequestIDHeader, "header-request-id")
			},
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set(middleware.RequestIDKey, "ctx-id")
				c.Request.Header.Set(middleware.RequestIDHeader, "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext()
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.Success(c, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.SuccessWithMeta(c, []string{"a", "b"}, 100, 1, 10)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(100), resp.Meta.Total)
}

func TestBaseHandlerErrorMethods(t *testing.T) {
	h := &BaseHandler{}
	tests := []struct {
		name         string
		call         func(c *gin.Context)
		expectedCode int
		expectedErr  string
	}{
		{"BadRequest", func(c *gin.Context) { h.BadRequest(c, "bad") }, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"NotFound", func(c *gin.Context) { h.NotFound(c, "missing") }, http.StatusNotFound, dto.ErrCodeNotFound},
		{"InternalError", func(c *gin.Context) { h.InternalError(c, "oops") }, http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()
			c.Set(middleware.RequestIDKey, "req-42")
			tt.call(c)

			assert.Equal(t, tt.expectedCode, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
			assert.Equal(t, "req-42", resp.Error.RequestID)
		})
	}
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
		expectedMsg  string
	}{
		{
			name:         "not found",
			err:          shared.ErrNotFound,
			expectedCode: http.StatusNotFound,
			expectedErr:  dto.ErrCodeNotFound,
			expectedMsg:  "Resource not found",
		},
		{
			name:         "invalid input",
			err:          shared.NewDomainError("INVALID_INPUT", "Unknown print target \"x\""),
			expectedCode: http.StatusBadRequest,
			expectedErr:  dto.ErrCodeInvalidInput,
			expectedMsg:  "Unknown print target \"x\"",
		},
		{
			name:         "wrapped domain error",
			err:          fmt.Errorf("lookup: %w", shared.ErrInvalidState),
			expectedCode: http.StatusUnprocessableEntity,
			expectedErr:  dto.ErrCodeInvalidState,
		},
		{
			name:         "device busy",
			err:          printing.NewDeviceBusyError("lq310", errors.New("lock timeout")),
			expectedCode: http.StatusConflict,
			expectedErr:  "DEVICE_BUSY",
		},
		{
			name:         "unknown error hides details",
			err:          errors.New("disk on fire"),
			expectedCode: http.StatusInternalServerError,
			expectedErr:  dto.ErrCodeInternal,
			expectedMsg:  "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext()
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, resp.Error.Message)
			}
		})
	}

	t.Run("nil error writes nothing", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext()
		h.HandleError(c, nil)
		assert.Empty(t, w.Body.String())
	})
}

func TestBaseHandlerPrintFailure(t *testing.T) {
	jobID := uuid.New()
	tests := []struct {
		name         string
		outcome      *printing.PrintOutcome
		err          error
		expectedCode int
		expectedKind string
		expectJobID  bool
		expectTarget string
	}{
		{
			name:         "device unavailable",
			err:          printing.NewDeviceUnavailableError("lq310", errors.New("no such file")),
			expectedCode: http.StatusServiceUnavailable,
			expectedKind: "DEVICE_UNAVAILABLE",
		},
		{
			name: "write failed keeps job",
			outcome: printing.FailureOutcome(jobID,
				printing.NewWriteFailedError("lq310", errors.New("short write"))),
			err:          printing.NewWriteFailedError("lq310", errors.New("short write")),
			expectedCode: http.StatusBadGateway,
			expectedKind: "WRITE_FAILED",
			expectJobID:  true,
			expectTarget: "lq310",
		},
		{
			name:         "configuration error",
			err:          printing.NewConfigurationError("table needs %d columns, profile has %d", 90, 48),
			expectedCode: http.StatusUnprocessableEntity,
			expectedKind: "CONFIGURATION_ERROR",
		},
		{
			name:         "invalid request",
			err:          shared.NewDomainError("INVALID_INPUT", "Invalid print request: items failed required"),
			expectedCode: http.StatusBadRequest,
			expectedKind: dto.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext()
			h.PrintFailure(c, tt.outcome, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "failure", body["status"])
			assert.Equal(t, tt.expectedKind, body["error_code"])
			assert.NotEmpty(t, body["message"])

			if tt.expectJobID {
				assert.Equal(t, jobID.String(), body["job_id"])
			} else {
				assert.NotContains(t, body, "job_id")
			}
			if tt.expectTarget != "" {
				assert.Equal(t, tt.expectTarget, body["target"])
			} else {
				assert.NotContains(t, body, "target")
			}
		})
	}
}

func TestClassifyValidationErrors(t *testing.T) {
	type payload struct {
		Name string `validate:"required"`
	}
	err := validator.New().Struct(payload{})
	require.Error(t, err)

	status, code, msg := classifyError(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, dto.ErrCodeValidation, code)
	assert.Equal(t, "Request validation failed: Name failed required", msg)
}

func TestBindError(t *testing.T) {
	err := bindError(errors.New("unexpected EOF"))
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "BAD_REQUEST", domainErr.Code)
	assert.Contains(t, domainErr.Message, "unexpected EOF")
}
