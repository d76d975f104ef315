package printing

import (
	"context"

	"github.com/binara/printsvc/internal/domain/shared"
	"github.com/google/uuid"
)

// PrintJobRepository defines the interface for print job persistence
type PrintJobRepository interface {
	// FindByID finds a job by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PrintJob, error)

	// FindAll finds jobs with optional filtering by "target", "status" and "document_type"
	FindAll(ctx context.Context, filter shared.Filter) ([]PrintJob, error)

	// Count returns the number of jobs matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save saves a job (insert or update)
	Save(ctx context.Context, job *PrintJob) error
}
