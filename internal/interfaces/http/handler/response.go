package handler

import (
	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/binara/printsvc/internal/interfaces/http/dto"
	"github.com/google/uuid"
)

// APIResponse is the envelope every non-print endpoint returns
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the envelope with only the error set
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// PrintFailureResponse is the body of a failed print request. It mirrors
// the success outcome so clients read status and message the same way.
// @Description Print failure
type PrintFailureResponse struct {
	Status    printing.OutcomeStatus `json:"status" example:"failure"`
	Message   string                 `json:"message"`
	ErrorCode string                 `json:"error_code" example:"DEVICE_UNAVAILABLE"`
	JobID     string                 `json:"job_id,omitempty"`
	Target    string                 `json:"target,omitempty"`
}

func newPrintFailureResponse(o *printing.PrintOutcome) PrintFailureResponse {
	resp := PrintFailureResponse{
		Status:    o.Status,
		Message:   o.Message,
		ErrorCode: o.ErrorCode.String(),
		Target:    o.Target,
	}
	if o.JobID != uuid.Nil {
		resp.JobID = o.JobID.String()
	}
	return resp
}
