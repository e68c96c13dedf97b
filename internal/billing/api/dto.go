package api

import (
	"time"

	"github.com/roomio/roomio/internal/billing"
	"github.com/roomio/roomio/internal/shared"
)

// ListParams filters an invoice listing.
type ListParams struct {
	Page       int
	Limit      int
	Status     billing.Status
	ContractID string
}

// InvoicePage is one page of invoices.
type InvoicePage struct {
	Invoices   []billing.Invoice `json:"invoices"`
	Pagination shared.Pagination `json:"pagination"`
}

// CreateInvoiceRequest creates an invoice for a contract and period.
type CreateInvoiceRequest struct {
	ContractID string                `json:"contractId" validate:"required"`
	Month      int                   `json:"month" validate:"min=1,max=12"`
	Year       int                   `json:"year" validate:"min=2000"`
	DueDate    time.Time             `json:"dueDate" validate:"required"`
	Items      []billing.InvoiceItem `json:"items" validate:"required,min=1,dive"`
	Notes      string                `json:"note,omitempty"`
}

// UpdateInvoiceRequest replaces the editable fields of an invoice.
type UpdateInvoiceRequest struct {
	DueDate *time.Time            `json:"dueDate,omitempty"`
	Items   []billing.InvoiceItem `json:"items,omitempty" validate:"omitempty,dive"`
	Notes   *string               `json:"note,omitempty"`
}

// ConfirmPaymentRequest is sent by the tenant after paying.
type ConfirmPaymentRequest struct {
	PaymentMethod string     `json:"paymentMethod" validate:"required"`
	PaymentDate   *time.Time `json:"paymentDate,omitempty"`
	Note          string     `json:"note,omitempty"`
}

// MarkPaidRequest is sent by the landlord to close an invoice.
type MarkPaidRequest struct {
	PaymentMethod string     `json:"paymentMethod" validate:"required"`
	PaidAmount    float64    `json:"paidAmount,omitempty" validate:"gte=0"`
	PaymentDate   *time.Time `json:"paymentDate,omitempty"`
}

// UpdateItemsRequest replaces the invoice items.
type UpdateItemsRequest struct {
	Items []billing.InvoiceItem `json:"items" validate:"required,min=1,dive"`
}

// SaveTemplateRequest stores an invoice as a template.
type SaveTemplateRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// ApplyTemplateRequest stamps a template into a new invoice.
type ApplyTemplateRequest struct {
	ContractID  string    `json:"contractId" validate:"required"`
	Month       int       `json:"month" validate:"min=1,max=12"`
	Year        int       `json:"year" validate:"min=2000"`
	PeriodStart time.Time `json:"periodStart" validate:"required"`
	DueDate     time.Time `json:"dueDate" validate:"required,gtfield=PeriodStart"`
}

func withAmounts(items []billing.InvoiceItem) []billing.InvoiceItem {
	if items == nil {
		return nil
	}
	out := make([]billing.InvoiceItem, len(items))
	for i, it := range items {
		out[i] = it.WithAmount()
	}
	return out
}
