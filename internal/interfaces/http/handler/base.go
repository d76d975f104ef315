package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/binara/printsvc/internal/domain/shared"
	"github.com/binara/printsvc/internal/infrastructure/logger"
	"github.com/binara/printsvc/internal/interfaces/http/dto"
	"github.com/binara/printsvc/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context, falling back to the header
func getRequestID(c *gin.Context) string {
	if id := middleware.GetRequestID(c); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts domain and print errors to HTTP responses.
// Anything else is logged and reported as an internal error.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, code, message := classifyError(err)
	if status >= http.StatusInternalServerError {
		logger.GetGinLogger(c).Error("Request failed", zap.Error(err))
	}
	h.Error(c, status, code, message)
}

// PrintFailure sends the print failure shape: status, message, error_code
// and, when a job was recorded, job_id
func (h *BaseHandler) PrintFailure(c *gin.Context, outcome *printing.PrintOutcome, err error) {
	status, code, message := classifyError(err)
	if outcome == nil {
		outcome = &printing.PrintOutcome{Status: printing.OutcomeFailure}
	}
	outcome.Message = message
	outcome.ErrorCode = printing.ErrorKind(code)
	if status >= http.StatusInternalServerError {
		logger.GetGinLogger(c).Error("Print request failed", zap.Error(err))
	}
	c.JSON(status, newPrintFailureResponse(outcome))
}

// classifyError maps an error to status, error code and client message.
// Print errors keep their kind as the code and their full message.
func classifyError(err error) (int, string, string) {
	if status, kind, ok := dto.PrintErrorStatus(err); ok {
		return status, kind.String(), err.Error()
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		return dto.GetHTTPStatus(code), code, domainErr.Message
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest, dto.ErrCodeValidation, validationMessage(verrs)
	}

	return http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"
}

// bindError converts a gin binding error into a client error
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs
	}
	return shared.NewDomainError("BAD_REQUEST", "Invalid request body: "+err.Error())
}

func validationMessage(verrs validator.ValidationErrors) string {
	msgs := make([]string, len(verrs))
	for i, e := range verrs {
		msgs[i] = fmt.Sprintf("%s failed %s", e.Field(), e.Tag())
	}
	return "Request validation failed: " + strings.Join(msgs, "; ")
}
