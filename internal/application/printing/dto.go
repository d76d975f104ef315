package printing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// Print request DTOs
// =============================================================================

// DeliveryOptions selects where and how often a document is printed
type DeliveryOptions struct {
	// Target is a configured profile name. Empty selects the default target
	// for the document type.
	Target string `json:"target" form:"target"`
	Copies int    `json:"copies" form:"copies" binding:"omitempty,min=1,max=100"`
}

// BillItem is one billed service
type BillItem struct {
	Name  string          `json:"name" binding:"required"`
	Price decimal.Decimal `json:"price"`
}

// PrintBillRequest represents a request to print a patient bill
type PrintBillRequest struct {
	BillID        int64      `json:"bill_id" binding:"required,min=1"`
	BillReference string     `json:"bill_reference" binding:"max=50"`
	PaymentType   string     `json:"payment_type" binding:"max=50"`
	CustomerName  string     `json:"customer_name" binding:"required,max=200"`
	DoctorName    string     `json:"doctor_name" binding:"max=200"`
	Items         []BillItem `json:"items" binding:"required,min=1,dive"`
	// Total is printed as given. When omitted it is the sum of item prices.
	Total *decimal.Decimal `json:"total"`
	DeliveryOptions
}

// SummaryItem is one line of the service summary
type SummaryItem struct {
	ServiceName string          `json:"service_name" binding:"required"`
	Quantity    int             `json:"quantity" binding:"min=0"`
	Total       decimal.Decimal `json:"total"`
}

// PrintSummaryRequest represents a request to print the service summary for a date range
type PrintSummaryRequest struct {
	StartDate string        `json:"start_date" binding:"required"`
	EndDate   string        `json:"end_date" binding:"required"`
	Items     []SummaryItem `json:"items" binding:"dive"`
	DeliveryOptions
}

// ServiceCostItem is one service line of the cost report
type ServiceCostItem struct {
	ServiceID         int64           `json:"service_id"`
	ServiceName       string          `json:"service_name" binding:"required"`
	ServiceKey        string          `json:"service_key"`
	TotalBillAmount   decimal.Decimal `json:"total_bill_amount"`
	TotalSystemAmount decimal.Decimal `json:"total_system_amount"`
	ItemCount         int             `json:"item_count" binding:"min=0"`
}

// PrintServiceCostRequest represents a request to print the service cost report
type PrintServiceCostRequest struct {
	StartDate         string            `json:"start_date" binding:"required"`
	EndDate           string            `json:"end_date" binding:"required"`
	TotalServices     int               `json:"total_services" binding:"min=0"`
	TotalBillAmount   decimal.Decimal   `json:"total_bill_amount"`
	TotalSystemAmount decimal.Decimal   `json:"total_system_amount"`
	Items             []ServiceCostItem `json:"items" binding:"dive"`
	DeliveryOptions
}

// =============================================================================
// Job DTOs
// =============================================================================

// ListJobsRequest represents a request to list print jobs
type ListJobsRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	DocType  string `form:"doc_type"`
	Target   string `form:"target"`
	Status   string `form:"status"`
}

// PrintJobResponse represents a print job response
type PrintJobResponse struct {
	ID             string     `json:"id"`
	DocumentType   string     `json:"document_type"`
	DocumentNumber string     `json:"document_number"`
	Target         string     `json:"target"`
	Backend        string     `json:"backend"`
	Status         string     `json:"status"`
	Copies         int        `json:"copies"`
	Pages          int        `json:"pages"`
	Bytes          int        `json:"bytes"`
	FilePath       string     `json:"file_path,omitempty"`
	FileURL        string     `json:"file_url,omitempty"`
	ErrorCode      string     `json:"error_code,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	Warnings       []string   `json:"warnings,omitempty"`
	PrintedAt      *time.Time `json:"printed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ListJobsResponse represents a paginated list of print jobs
type ListJobsResponse struct {
	Items      []PrintJobResponse `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// =============================================================================
// Target DTOs
// =============================================================================

// TargetResponse describes one configured print target
type TargetResponse struct {
	Name      string   `json:"name"`
	Backend   string   `json:"backend"`
	Device    string   `json:"device,omitempty"`
	PageWidth int      `json:"page_width"`
	MultiPage bool     `json:"multi_page"`
	DefaultOf []string `json:"default_for,omitempty"`
}
