package printing

import (
	"errors"

	"github.com/google/uuid"
)

// PrintOutcome is the result reported for one print request
type PrintOutcome struct {
	Status     OutcomeStatus `json:"status"`
	Message    string        `json:"message"`
	OutputPath string        `json:"file_path,omitempty"`
	FileURL    string        `json:"file_url,omitempty"`
	JobID      uuid.UUID     `json:"job_id"`
	Target     string        `json:"target,omitempty"`
	Backend    BackendKind   `json:"backend,omitempty"`
	Pages      int           `json:"pages,omitempty"`
	Bytes      int           `json:"bytes,omitempty"`
	ErrorCode  ErrorKind     `json:"error_code,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
}

// Succeeded reports whether the outcome is a success
func (o *PrintOutcome) Succeeded() bool {
	return o.Status == OutcomeSuccess
}

// FailureOutcome converts an error into the failure outcome shape
func FailureOutcome(jobID uuid.UUID, err error) *PrintOutcome {
	out := &PrintOutcome{
		Status:  OutcomeFailure,
		Message: err.Error(),
		JobID:   jobID,
	}
	var pe *PrintError
	if errors.As(err, &pe) {
		out.ErrorCode = pe.Kind
		out.Target = pe.Device
	}
	return out
}
