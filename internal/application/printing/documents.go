package printing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/shopspring/decimal"
)

// Date format printed on bills and reports
const printedAtLayout = "02/01/2006 15:04:05"

// Width of the price column on bills
const billPriceWidth = 14

// DocumentFactory builds documents from print requests. It holds the clinic
// header and footer so requests only carry their own data.
type DocumentFactory struct {
	ClinicName string
	Footer     []string
	Location   *time.Location
	Now        func() time.Time
}

// NewDocumentFactory creates a factory. A nil location means time.Local.
func NewDocumentFactory(clinicName string, footer []string, loc *time.Location) *DocumentFactory {
	if loc == nil {
		loc = time.Local
	}
	return &DocumentFactory{
		ClinicName: clinicName,
		Footer:     footer,
		Location:   loc,
		Now:        time.Now,
	}
}

func (f *DocumentFactory) printedAt() string {
	return f.Now().In(f.Location).Format(printedAtLayout)
}

// Money formats an amount as the clinic prints it, e.g. Rs.1500.00
func Money(d decimal.Decimal) string {
	return "Rs." + d.StringFixed(2)
}

// BillNumber is the bill ID with the reference appended when present
func BillNumber(id int64, reference string) string {
	n := strconv.FormatInt(id, 10)
	if reference != "" {
		n += "-" + reference
	}
	return n
}

// BillFileName is the stored PDF name for a bill
func BillFileName(id int64, reference string) string {
	return "bill_" + fileSafe(BillNumber(id, reference)) + ".pdf"
}

// Bill builds a patient bill laid out for the given page width. The service
// name column takes whatever the price column leaves.
func (f *DocumentFactory) Bill(req PrintBillRequest, pageWidth int) printing.Document {
	meta := []printing.Field{
		{Label: "Bill No.", Value: BillNumber(req.BillID, req.BillReference)},
		{Label: "Date", Value: f.printedAt()},
		{Label: "Customer", Value: req.CustomerName},
	}
	if req.DoctorName != "" {
		meta = append(meta, printing.Field{Label: "Doctor", Value: req.DoctorName})
	}

	rows := make([]printing.Row, len(req.Items))
	sum := decimal.Zero
	for i, item := range req.Items {
		rows[i] = printing.Row{item.Name, Money(item.Price)}
		sum = sum.Add(item.Price)
	}
	total := sum
	if req.Total != nil {
		total = *req.Total
	}

	totals := []printing.Field{{Label: "Total", Value: Money(total)}}
	if req.PaymentType != "" {
		totals = append(totals, printing.Field{Label: "Payment type", Value: req.PaymentType})
	}

	return printing.Document{
		Title:    f.ClinicName,
		Metadata: meta,
		Sections: []printing.Section{{
			Heading: "Services",
			Columns: []printing.ColumnSpec{
				{Label: "Service", Width: pageWidth - billPriceWidth, Overflow: printing.OverflowWrap},
				{Label: "Price", Width: billPriceWidth, Align: printing.AlignRight, Overflow: printing.OverflowReject},
			},
			Rows: rows,
		}},
		Totals: totals,
		Footer: f.Footer,
	}
}

// Summary builds the service summary for a date range
func (f *DocumentFactory) Summary(req PrintSummaryRequest) printing.Document {
	rows := make([]printing.Row, len(req.Items))
	quantity := 0
	grand := decimal.Zero
	for i, item := range req.Items {
		rows[i] = printing.Row{item.ServiceName, strconv.Itoa(item.Quantity), item.Total.StringFixed(2)}
		quantity += item.Quantity
		grand = grand.Add(item.Total)
	}

	return printing.Document{
		Title: "SERVICE COST REPORT",
		Metadata: []printing.Field{
			{Label: "Date Range", Value: req.StartDate + " to " + req.EndDate},
			{Label: "Generated", Value: f.printedAt()},
		},
		Sections: []printing.Section{{
			Columns: []printing.ColumnSpec{
				{Label: "Service Name", Width: 26, Overflow: printing.OverflowWrap},
				{Label: "Qty", Width: 10, Align: printing.AlignRight, Overflow: printing.OverflowReject},
				{Label: "Total", Width: 12, Align: printing.AlignRight, Overflow: printing.OverflowReject},
			},
			Rows:       rows,
			ShowHeader: true,
			Divider:    true,
		}},
		Totals: []printing.Field{
			{Label: "Total Quantity", Value: strconv.Itoa(quantity)},
			{Label: "Grand Total", Value: Money(grand)},
		},
	}
}

// ServiceCost builds the detailed service cost report
func (f *DocumentFactory) ServiceCost(req PrintServiceCostRequest) printing.Document {
	rows := make([]printing.Row, len(req.Items))
	for i, item := range req.Items {
		rows[i] = printing.Row{
			item.ServiceName,
			item.ServiceKey,
			strconv.Itoa(item.ItemCount),
			Money(item.TotalBillAmount),
			Money(item.TotalSystemAmount),
		}
	}

	return printing.Document{
		Title: "SERVICE COST REPORT",
		Metadata: []printing.Field{
			{Label: "Date Range", Value: req.StartDate + " to " + req.EndDate},
			{Label: "Generated", Value: f.printedAt()},
			{Label: "Total Services", Value: strconv.Itoa(req.TotalServices)},
			{Label: "Total Bill Amount", Value: Money(req.TotalBillAmount)},
			{Label: "Total System Amount", Value: Money(req.TotalSystemAmount)},
		},
		Sections: []printing.Section{{
			Heading: "SERVICE DETAILS",
			Columns: []printing.ColumnSpec{
				{Label: "Service Name", Width: 30, Overflow: printing.OverflowEllipsis},
				{Label: "ID", Width: 10, Overflow: printing.OverflowTruncate},
				{Label: "Items", Width: 6, Align: printing.AlignRight, Overflow: printing.OverflowReject},
				{Label: "Bill Amt", Width: 12, Align: printing.AlignRight, Overflow: printing.OverflowReject},
				{Label: "Sys Amt", Width: 12, Align: printing.AlignRight, Overflow: printing.OverflowReject},
			},
			Rows:       rows,
			ShowHeader: true,
			Divider:    true,
		}},
		Footer: []string{"End of Report", strings.Repeat("-", 40)},
	}
}

// ReportFileName is the stored PDF name for a report over a date range
func ReportFileName(kind printing.DocType, start, end string) string {
	name := strings.ToLower(kind.String())
	return fmt.Sprintf("%s_%s_%s.pdf", name, fileSafe(start), fileSafe(end))
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, s)
}
