package handler

import (
	"net/http"
	"path"
	"strings"

	printingapp "github.com/binara/printsvc/internal/application/printing"
	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/binara/printsvc/internal/interfaces/http/dto"
	"github.com/binara/printsvc/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PrintHandler handles print-related API endpoints
type PrintHandler struct {
	BaseHandler
	printService *printingapp.PrintService
}

// NewPrintHandler creates a new PrintHandler
func NewPrintHandler(printService *printingapp.PrintService) *PrintHandler {
	return &PrintHandler{
		printService: printService,
	}
}

// =============================================================================
// Print Endpoints
// =============================================================================

// PrintBill godoc
//
//	@Summary		Print a patient bill
//	@Description	Lay out a bill and send it to the requested or default target
//	@Tags			print
//	@Accept			json
//	@Produce		json
//	@Param			target	query		string						false	"Profile name, overrides the body"
//	@Param			request	body		printingapp.PrintBillRequest	true	"Bill"
//	@Success		200		{object}	printing.PrintOutcome
//	@Failure		400		{object}	PrintFailureResponse
//	@Failure		409		{object}	PrintFailureResponse
//	@Failure		422		{object}	PrintFailureResponse
//	@Failure		503		{object}	PrintFailureResponse
//	@Router			/print [post]
func (h *PrintHandler) PrintBill(c *gin.Context) {
	var req printingapp.PrintBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.PrintFailure(c, nil, bindError(err))
		return
	}
	h.applyQuery(c, &req.DeliveryOptions)

	outcome, err := h.printService.PrintBill(c.Request.Context(), req)
	h.respondPrint(c, outcome, err)
}

// PrintSummary godoc
//
//	@Summary		Print the service summary
//	@Tags			print
//	@Accept			json
//	@Produce		json
//	@Param			request	body		printingapp.PrintSummaryRequest	true	"Summary"
//	@Success		200		{object}	printing.PrintOutcome
//	@Router			/print-summary [post]
func (h *PrintHandler) PrintSummary(c *gin.Context) {
	var req printingapp.PrintSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.PrintFailure(c, nil, bindError(err))
		return
	}
	h.applyQuery(c, &req.DeliveryOptions)

	outcome, err := h.printService.PrintSummary(c.Request.Context(), req)
	h.respondPrint(c, outcome, err)
}

// PrintServiceCost godoc
//
//	@Summary		Print the service cost report
//	@Tags			print
//	@Accept			json
//	@Produce		json
//	@Param			request	body		printingapp.PrintServiceCostRequest	true	"Report"
//	@Success		200		{object}	printing.PrintOutcome
//	@Router			/print-service-cost [post]
func (h *PrintHandler) PrintServiceCost(c *gin.Context) {
	var req printingapp.PrintServiceCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.PrintFailure(c, nil, bindError(err))
		return
	}
	h.applyQuery(c, &req.DeliveryOptions)

	outcome, err := h.printService.PrintServiceCost(c.Request.Context(), req)
	h.respondPrint(c, outcome, err)
}

// applyQuery lets ?target= and ?copies= override the body
func (h *PrintHandler) applyQuery(c *gin.Context, opts *printingapp.DeliveryOptions) {
	var q printingapp.DeliveryOptions
	if err := c.ShouldBindQuery(&q); err != nil {
		return
	}
	if q.Target != "" {
		opts.Target = q.Target
	}
	if q.Copies > 0 {
		opts.Copies = q.Copies
	}
}

func (h *PrintHandler) respondPrint(c *gin.Context, outcome *printing.PrintOutcome, err error) {
	if outcome != nil && outcome.Target != "" {
		c.Set(middleware.PrintTargetKey, outcome.Target)
	}
	if err != nil {
		h.PrintFailure(c, outcome, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// =============================================================================
// Targets, Jobs and Files
// =============================================================================

// ListTargets godoc
//
//	@Summary		List print targets
//	@Description	Configured profiles with the document types they print by default
//	@Tags			print
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]printingapp.TargetResponse]
//	@Router			/print/targets [get]
func (h *PrintHandler) ListTargets(c *gin.Context) {
	h.Success(c, h.printService.Targets())
}

// GetJob godoc
//
//	@Summary		Get print job by ID
//	@Tags			print-jobs
//	@Produce		json
//	@Param			id	path		string	true	"Job ID"	format(uuid)
//	@Success		200	{object}	APIResponse[printingapp.PrintJobResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/print/jobs/{id} [get]
func (h *PrintHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID format")
		return
	}

	result, err := h.printService.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListJobs godoc
//
//	@Summary		List print jobs
//	@Tags			print-jobs
//	@Produce		json
//	@Param			page		query		int		false	"Page number"		default(1)
//	@Param			page_size	query		int		false	"Page size"			default(20)
//	@Param			order_by	query		string	false	"Order by field"	default(created_at)
//	@Param			order_dir	query		string	false	"Order direction"	Enums(asc, desc)	default(desc)
//	@Param			doc_type	query		string	false	"Filter by document type"
//	@Param			target		query		string	false	"Filter by target"
//	@Param			status		query		string	false	"Filter by status"
//	@Success		200			{object}	APIResponse[[]printingapp.PrintJobResponse]
//	@Router			/print/jobs [get]
func (h *PrintHandler) ListJobs(c *gin.Context) {
	defaults := dto.DefaultListRequest()
	req := printingapp.ListJobsRequest{
		Page:     defaults.Page,
		PageSize: defaults.PageSize,
		OrderBy:  defaults.OrderBy,
		OrderDir: defaults.OrderDir,
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.HandleError(c, bindError(err))
		return
	}

	result, err := h.printService.ListJobs(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// DownloadFile godoc
//
//	@Summary		Download a generated PDF
//	@Tags			print-jobs
//	@Produce		application/pdf
//	@Param			path	path		string	true	"Storage path, e.g. 2025/03/bill_1042.pdf"
//	@Success		200		{file}		binary	"PDF file"
//	@Failure		404		{object}	ErrorResponse
//	@Router			/print/files/{path} [get]
func (h *PrintHandler) DownloadFile(c *gin.Context) {
	p := strings.TrimPrefix(c.Param("path"), "/")
	if p == "" {
		h.NotFound(c, "File not found")
		return
	}

	rc, err := h.printService.OpenFile(c.Request.Context(), p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, "application/pdf", rc, map[string]string{
		"Content-Disposition": `attachment; filename="` + path.Base(p) + `"`,
	})
}
