package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/binara/printsvc/internal/domain/shared"
	"github.com/binara/printsvc/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// printJobSortFields are the columns a job listing may be ordered by
var printJobSortFields = map[string]bool{
	"created_at":      true,
	"updated_at":      true,
	"document_type":   true,
	"document_number": true,
	"target":          true,
	"status":          true,
	"printed_at":      true,
}

// GormPrintJobRepository implements PrintJobRepository using GORM
type GormPrintJobRepository struct {
	db *gorm.DB
}

// NewGormPrintJobRepository creates a new GormPrintJobRepository
func NewGormPrintJobRepository(db *gorm.DB) *GormPrintJobRepository {
	return &GormPrintJobRepository{db: db}
}

// FindByID finds a job by ID
func (r *GormPrintJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*printing.PrintJob, error) {
	var model models.PrintJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds jobs matching the filter, newest first unless ordered otherwise
func (r *GormPrintJobRepository) FindAll(ctx context.Context, filter shared.Filter) ([]printing.PrintJob, error) {
	var jobModels []models.PrintJobModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PrintJobModel{}), filter)
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	query = query.Order(orderClause(filter))

	if err := query.Find(&jobModels).Error; err != nil {
		return nil, err
	}

	jobs := make([]printing.PrintJob, len(jobModels))
	for i := range jobModels {
		jobs[i] = *jobModels[i].ToDomain()
	}
	return jobs, nil
}

// Count returns the total count of jobs matching the filter
func (r *GormPrintJobRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PrintJobModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save saves a job (insert or update)
func (r *GormPrintJobRepository) Save(ctx context.Context, job *printing.PrintJob) error {
	return r.db.WithContext(ctx).Save(models.PrintJobModelFromDomain(job)).Error
}

// applyFilter applies the column filters in a fixed order so generated SQL is stable
func (r *GormPrintJobRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for _, key := range []string{"document_type", "target", "status"} {
		if value, ok := filter.Filters[key]; ok && value != nil && value != "" {
			query = query.Where(key+" = ?", value)
		}
	}
	return query
}

// orderClause whitelists the sort column and direction. Unknown columns fall
// back to created_at, and anything but ASC sorts descending.
func orderClause(filter shared.Filter) string {
	column := strings.TrimSpace(filter.OrderBy)
	if !printJobSortFields[column] {
		column = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(filter.OrderDir), "ASC") {
		dir = "ASC"
	}
	return column + " " + dir
}

var _ printing.PrintJobRepository = (*GormPrintJobRepository)(nil)
