package printing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrintJob(t *testing.T) {
	tests := []struct {
		name     string
		docType  DocType
		number   string
		target   string
		backend  BackendKind
		errorMsg string
	}{
		{"valid", DocTypeBill, "1042", "bill-pdf", BackendVectorCanvas, ""},
		{"invalid doc type", DocType("INVOICE"), "1042", "bill-pdf", BackendVectorCanvas, "Invalid document type"},
		{"empty number", DocTypeBill, "", "bill-pdf", BackendVectorCanvas, "Document number cannot be empty"},
		{"empty target", DocTypeBill, "1042", "", BackendVectorCanvas, "Target cannot be empty"},
		{"invalid backend", DocTypeBill, "1042", "bill-pdf", BackendKind("laser"), "Invalid backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := NewPrintJob(tt.docType, tt.number, tt.target, tt.backend)
			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, job)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, JobStatusPending, job.Status)
			assert.Equal(t, 1, job.Copies)
			assert.Equal(t, 1, job.Version)
		})
	}
}

func TestPrintJob_Lifecycle(t *testing.T) {
	job, err := NewPrintJob(DocTypeBill, "1042", "bill-pdf", BackendVectorCanvas)
	require.NoError(t, err)

	require.Error(t, job.Complete(&PrintOutcome{Status: OutcomeSuccess}), "cannot complete before rendering")

	require.NoError(t, job.StartRendering())
	assert.Equal(t, JobStatusRendering, job.Status)

	require.Error(t, job.Complete(&PrintOutcome{Status: OutcomeFailure}))

	outcome := &PrintOutcome{Status: OutcomeSuccess, OutputPath: "bills/bill_1042.pdf", Pages: 1, Bytes: 900}
	require.NoError(t, job.Complete(outcome))
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.True(t, job.HasOutputFile())
	assert.NotNil(t, job.PrintedAt)
	assert.True(t, job.IsTerminal())

	assert.Error(t, job.Fail(errors.New("late")))
	assert.Error(t, job.StartRendering())
}

func TestPrintJob_Fail(t *testing.T) {
	job, err := NewPrintJob(DocTypeServiceSummary, "2024-01-01..2024-01-31", "receipt", BackendESCPOS)
	require.NoError(t, err)
	require.NoError(t, job.StartRendering())

	require.NoError(t, job.Fail(NewDeviceBusyError("receipt", nil)))
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, KindDeviceBusy, job.ErrorCode)
	assert.Contains(t, job.ErrorMessage, "DEVICE_BUSY")
}

func TestPrintJob_SetCopies(t *testing.T) {
	job, err := NewPrintJob(DocTypeBill, "1", "t", BackendESCP)
	require.NoError(t, err)

	assert.Error(t, job.SetCopies(0))
	assert.Error(t, job.SetCopies(101))
	assert.NoError(t, job.SetCopies(3))
	assert.Equal(t, 3, job.Copies)
}

func TestJobStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, JobStatusPending.CanTransitionTo(JobStatusRendering))
	assert.True(t, JobStatusPending.CanTransitionTo(JobStatusFailed))
	assert.False(t, JobStatusPending.CanTransitionTo(JobStatusCompleted))
	assert.True(t, JobStatusRendering.CanTransitionTo(JobStatusCompleted))
	assert.False(t, JobStatusCompleted.CanTransitionTo(JobStatusFailed))
}
