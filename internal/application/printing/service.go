package printing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/binara/printsvc/internal/domain/shared"
	"github.com/binara/printsvc/internal/infrastructure/logger"
	"github.com/binara/printsvc/internal/infrastructure/storage"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrHistoryDisabled is returned by job queries when no repository is configured
var ErrHistoryDisabled = shared.NewDomainError("NOT_FOUND", "Print job history is not enabled")

// Targets names the default profile for each document type
type Targets struct {
	Bill        string
	Summary     string
	ServiceCost string
}

// PrintService turns print requests into documents, dispatches them to the
// requested target and records each attempt as a print job
type PrintService struct {
	dispatcher *Dispatcher
	documents  *DocumentFactory
	profiles   map[string]printing.DeviceProfile
	targets    Targets
	jobRepo    printing.PrintJobRepository
	outputs    storage.OutputStorage
	validate   *validator.Validate
	logger     *zap.Logger
}

// ServiceOption configures a PrintService
type ServiceOption func(*PrintService)

// WithJobRepository enables print job history
func WithJobRepository(repo printing.PrintJobRepository) ServiceOption {
	return func(s *PrintService) { s.jobRepo = repo }
}

// WithOutputs enables file downloads and cleanup of stored PDFs
func WithOutputs(outputs storage.OutputStorage) ServiceOption {
	return func(s *PrintService) { s.outputs = outputs }
}

// WithServiceLogger sets the logger
func WithServiceLogger(l *zap.Logger) ServiceOption {
	return func(s *PrintService) { s.logger = l }
}

// NewPrintService creates a new PrintService. Profile names are matched
// case-insensitively.
func NewPrintService(
	dispatcher *Dispatcher,
	documents *DocumentFactory,
	profiles map[string]printing.DeviceProfile,
	targets Targets,
	opts ...ServiceOption,
) *PrintService {
	byName := make(map[string]printing.DeviceProfile, len(profiles))
	for name, p := range profiles {
		if p.Name == "" {
			p.Name = name
		}
		byName[strings.ToLower(name)] = p
	}
	s := &PrintService{
		dispatcher: dispatcher,
		documents:  documents,
		profiles:   byName,
		targets:    targets,
		validate:   newRequestValidator(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// newRequestValidator validates the same binding tags gin checks, so
// requests that do not come through HTTP get the same rules
func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *PrintService) validateRequest(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, len(verrs))
		for i, e := range verrs {
			msgs[i] = fmt.Sprintf("%s failed %s", e.Namespace(), e.Tag())
		}
		return shared.NewDomainError("INVALID_INPUT", "Invalid print request: "+strings.Join(msgs, "; "))
	}
	return fmt.Errorf("failed to validate request: %w", err)
}

// Profile returns the profile for target, or the fallback target when empty
func (s *PrintService) Profile(target, fallback string) (printing.DeviceProfile, error) {
	name := target
	if name == "" {
		name = fallback
	}
	p, ok := s.profiles[strings.ToLower(name)]
	if !ok {
		return printing.DeviceProfile{}, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown print target %q", name))
	}
	return p, nil
}

// =============================================================================
// Printing
// =============================================================================

// printRequest is one document ready for dispatch
type printRequest struct {
	docType  printing.DocType
	number   string
	fileName string
	copies   int
	profile  printing.DeviceProfile
	doc      printing.Document
}

// PrintBill prints a patient bill. PDF targets store bill_<id>[-<ref>].pdf.
// When dispatch fails the returned outcome is the failure for the recorded
// job; requests rejected before a job exists return a nil outcome.
func (s *PrintService) PrintBill(ctx context.Context, req PrintBillRequest) (*printing.PrintOutcome, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	profile, err := s.Profile(req.Target, s.targets.Bill)
	if err != nil {
		return nil, err
	}
	return s.print(ctx, printRequest{
		docType:  printing.DocTypeBill,
		number:   BillNumber(req.BillID, req.BillReference),
		fileName: BillFileName(req.BillID, req.BillReference),
		copies:   req.Copies,
		profile:  profile,
		doc:      s.documents.Bill(req, profile.PageWidth),
	})
}

// PrintSummary prints the service summary for a date range
func (s *PrintService) PrintSummary(ctx context.Context, req PrintSummaryRequest) (*printing.PrintOutcome, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	profile, err := s.Profile(req.Target, s.targets.Summary)
	if err != nil {
		return nil, err
	}
	return s.print(ctx, printRequest{
		docType:  printing.DocTypeServiceSummary,
		number:   req.StartDate + " to " + req.EndDate,
		fileName: ReportFileName(printing.DocTypeServiceSummary, req.StartDate, req.EndDate),
		copies:   req.Copies,
		profile:  profile,
		doc:      s.documents.Summary(req),
	})
}

// PrintServiceCost prints the detailed service cost report
func (s *PrintService) PrintServiceCost(ctx context.Context, req PrintServiceCostRequest) (*printing.PrintOutcome, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	profile, err := s.Profile(req.Target, s.targets.ServiceCost)
	if err != nil {
		return nil, err
	}
	return s.print(ctx, printRequest{
		docType:  printing.DocTypeServiceCostReport,
		number:   req.StartDate + " to " + req.EndDate,
		fileName: ReportFileName(printing.DocTypeServiceCostReport, req.StartDate, req.EndDate),
		copies:   req.Copies,
		profile:  profile,
		doc:      s.documents.ServiceCost(req),
	})
}

func (s *PrintService) print(ctx context.Context, req printRequest) (*printing.PrintOutcome, error) {
	job, err := printing.NewPrintJob(req.docType, req.number, req.profile.Name, req.profile.Kind)
	if err != nil {
		return nil, err
	}
	if req.copies > 1 {
		if err := job.SetCopies(req.copies); err != nil {
			return nil, err
		}
	}
	if err := job.StartRendering(); err != nil {
		return nil, err
	}
	s.saveJob(ctx, job)

	outcome, err := s.dispatcher.Dispatch(ctx, req.doc, req.profile, DispatchOptions{
		JobID:    job.ID,
		FileName: req.fileName,
		Copies:   job.Copies,
	})
	if err != nil {
		_ = job.Fail(err)
		s.saveJob(ctx, job)
		return printing.FailureOutcome(job.ID, err), err
	}

	_ = job.Complete(outcome)
	s.saveJob(ctx, job)
	return outcome, nil
}

// saveJob records the job. History is best effort and never fails a print.
func (s *PrintService) saveJob(ctx context.Context, job *printing.PrintJob) {
	if s.jobRepo == nil {
		return
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		logger.For(ctx, s.logger).Warn("Failed to save print job",
			zap.String("job_id", job.ID.String()),
			zap.String("status", job.Status.String()),
			zap.Error(err))
	}
}

// =============================================================================
// Jobs
// =============================================================================

// GetJob retrieves a print job by ID
func (s *PrintService) GetJob(ctx context.Context, jobID uuid.UUID) (*PrintJobResponse, error) {
	if s.jobRepo == nil {
		return nil, ErrHistoryDisabled
	}
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Print job not found")
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return s.toJobResponse(job), nil
}

// ListJobs lists print jobs, newest first unless ordered otherwise
func (s *PrintService) ListJobs(ctx context.Context, req ListJobsRequest) (*ListJobsResponse, error) {
	if s.jobRepo == nil {
		return nil, ErrHistoryDisabled
	}
	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	if req.DocType != "" {
		filter.Filters["document_type"] = strings.ToUpper(req.DocType)
	}
	if req.Target != "" {
		filter.Filters["target"] = strings.ToLower(req.Target)
	}
	if req.Status != "" {
		filter.Filters["status"] = strings.ToUpper(req.Status)
	}

	jobs, err := s.jobRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	total, err := s.jobRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	items := make([]PrintJobResponse, len(jobs))
	for i := range jobs {
		items[i] = *s.toJobResponse(&jobs[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &ListJobsResponse{
		Items:      page.Items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

func (s *PrintService) toJobResponse(j *printing.PrintJob) *PrintJobResponse {
	resp := &PrintJobResponse{
		ID:             j.ID.String(),
		DocumentType:   j.DocumentType.String(),
		DocumentNumber: j.DocumentNumber,
		Target:         j.Target,
		Backend:        j.Backend.String(),
		Status:         j.Status.String(),
		Copies:         j.Copies,
		Pages:          j.Pages,
		Bytes:          j.Bytes,
		FilePath:       j.OutputPath,
		ErrorCode:      j.ErrorCode.String(),
		ErrorMessage:   j.ErrorMessage,
		Warnings:       j.Warnings,
		PrintedAt:      j.PrintedAt,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	}
	if j.HasOutputFile() && s.outputs != nil {
		resp.FileURL = s.outputs.GetURL(j.OutputPath)
	}
	return resp
}

// =============================================================================
// Targets and files
// =============================================================================

// Targets lists the configured profiles in name order
func (s *PrintService) Targets() []TargetResponse {
	defaults := map[string][]string{}
	add := func(target string, docType printing.DocType) {
		key := strings.ToLower(target)
		defaults[key] = append(defaults[key], docType.String())
	}
	add(s.targets.Bill, printing.DocTypeBill)
	add(s.targets.Summary, printing.DocTypeServiceSummary)
	add(s.targets.ServiceCost, printing.DocTypeServiceCostReport)

	out := make([]TargetResponse, 0, len(s.profiles))
	for key, p := range s.profiles {
		resp := TargetResponse{
			Name:      p.Name,
			Backend:   p.Kind.String(),
			PageWidth: p.PageWidth,
			MultiPage: p.MultiPage(),
			DefaultOf: defaults[key],
		}
		if p.Kind.WritesToDevice() {
			resp.Device = p.DeviceName()
		}
		out = append(out, resp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// OpenFile opens a stored PDF by its relative path
func (s *PrintService) OpenFile(ctx context.Context, path string) (io.ReadCloser, error) {
	if s.outputs == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "File storage is not enabled")
	}
	rc, err := s.outputs.Get(ctx, path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidPath) {
			return nil, shared.NewDomainError("NOT_FOUND", "File not found")
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return rc, nil
}

// RunCleanup deletes stored PDFs older than retention every interval until
// ctx is done. It returns immediately when retention is not positive.
func (s *PrintService) RunCleanup(ctx context.Context, interval, retention time.Duration) {
	if s.outputs == nil || retention <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.outputs.CleanupOlderThan(ctx, retention)
			if err != nil {
				s.logger.Warn("Output cleanup failed", zap.Error(err))
				continue
			}
			if deleted > 0 {
				s.logger.Info("Old output files removed", zap.Int("deleted", deleted))
			}
		}
	}
}
