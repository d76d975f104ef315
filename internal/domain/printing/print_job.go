package printing

import (
	"time"

	"github.com/binara/printsvc/internal/domain/shared"
	"github.com/google/uuid"
)

// PrintJob records one document dispatched to one target
type PrintJob struct {
	shared.BaseAggregateRoot
	DocumentType   DocType     // Type of document being printed
	DocumentNumber string      // Bill or report reference (for display)
	Target         string      // Profile name the job was sent to
	Backend        BackendKind // Encoder used for the target
	Status         JobStatus   // Current job status
	Copies         int         // Number of copies to print
	Pages          int         // Pages produced by the layout
	Bytes          int         // Encoded size
	OutputPath     string      // Path of the generated file, for file targets
	ErrorCode      ErrorKind   // Error kind if job failed
	ErrorMessage   string      // Error message if job failed
	Warnings       []string    // Non-fatal warnings such as layout overflow
	PrintedAt      *time.Time  // When the job was printed
}

// NewPrintJob creates a new print job
func NewPrintJob(docType DocType, documentNumber, target string, backend BackendKind) (*PrintJob, error) {
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOC_TYPE", "Invalid document type: "+docType.String())
	}
	if documentNumber == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_NUMBER", "Document number cannot be empty")
	}
	if target == "" {
		return nil, shared.NewDomainError("INVALID_TARGET", "Target cannot be empty")
	}
	if !backend.IsValid() {
		return nil, shared.NewDomainError("INVALID_BACKEND", "Invalid backend: "+backend.String())
	}

	return &PrintJob{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DocumentType:      docType,
		DocumentNumber:    documentNumber,
		Target:            target,
		Backend:           backend,
		Status:            JobStatusPending,
		Copies:            1,
	}, nil
}

// SetCopies sets the number of copies to print
func (j *PrintJob) SetCopies(copies int) error {
	if copies < 1 {
		return shared.NewDomainError("INVALID_COPIES", "Number of copies must be at least 1")
	}
	if copies > 100 {
		return shared.NewDomainError("INVALID_COPIES", "Number of copies cannot exceed 100")
	}

	j.Copies = copies
	j.UpdatedAt = time.Now()

	return nil
}

// StartRendering marks the job as rendering
func (j *PrintJob) StartRendering() error {
	if !j.Status.CanTransitionTo(JobStatusRendering) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot start rendering from status: "+j.Status.String())
	}

	j.Status = JobStatusRendering
	j.Touch(time.Now())

	return nil
}

// Complete marks the job as completed from the dispatch outcome
func (j *PrintJob) Complete(outcome *PrintOutcome) error {
	if !j.Status.CanTransitionTo(JobStatusCompleted) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot complete from status: "+j.Status.String())
	}
	if outcome == nil || !outcome.Succeeded() {
		return shared.NewDomainError("INVALID_OUTCOME", "Only a successful outcome can complete a job")
	}

	j.Status = JobStatusCompleted
	j.Pages = outcome.Pages
	j.Bytes = outcome.Bytes
	j.OutputPath = outcome.OutputPath
	j.Warnings = outcome.Warnings
	now := time.Now()
	j.PrintedAt = &now
	j.Touch(now)

	return nil
}

// Fail marks the job as failed with the error that stopped it
func (j *PrintJob) Fail(err error) error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot fail a job that is already in terminal status: "+j.Status.String())
	}

	j.Status = JobStatusFailed
	j.ErrorCode = KindOf(err)
	j.ErrorMessage = err.Error()
	j.Touch(time.Now())

	return nil
}

// IsTerminal returns true if the job is in a terminal state
func (j *PrintJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// HasOutputFile returns true if the job produced a file
func (j *PrintJob) HasOutputFile() bool {
	return j.OutputPath != ""
}

// WithID overrides the generated ID, used when the caller already assigned one
func (j *PrintJob) WithID(id uuid.UUID) *PrintJob {
	if id != uuid.Nil {
		j.ID = id
	}
	return j
}
