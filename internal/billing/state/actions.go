package state

import (
	"github.com/roomio/roomio/internal/billing"
	"github.com/roomio/roomio/internal/shared"
)

// Action is a state change request handled by Reduce.
type Action interface {
	isAction()
}

// Started marks op as in flight.
type Started struct{ Op Op }

// Succeeded applies Result and marks op fulfilled.
type Succeeded struct {
	Op     Op
	Result Result
}

// Failed marks op rejected with a user message.
type Failed struct {
	Op      Op
	Message string
}

// Reset returns op to idle.
type Reset struct{ Op Op }

// ResetAll returns every op to idle.
type ResetAll struct{}

// Select points the selected slot at an invoice.
type Select struct{ Invoice billing.Invoice }

// ClearSelected empties the selected slot.
type ClearSelected struct{}

// ClearRoommate empties the roommate slot.
type ClearRoommate struct{}

func (Started) isAction()       {}
func (Succeeded) isAction()     {}
func (Failed) isAction()        {}
func (Reset) isAction()         {}
func (ResetAll) isAction()      {}
func (Select) isAction()        {}
func (ClearSelected) isAction() {}
func (ClearRoommate) isAction() {}

// Result is the data carried by a fulfilled operation.
type Result interface {
	apply(s *State)
}

// InvoicesPage is one fetched page of the invoice list.
type InvoicesPage struct {
	// Page is the page that was requested. Zero falls back to Pagination.Page.
	Page       int
	Invoices   []billing.Invoice
	Pagination shared.Pagination
}

// RoommateInvoices is the fresh set of invoices shared with the caller.
type RoommateInvoices struct {
	Invoices []billing.Invoice
}

// InvoiceDetail is a fetched invoice for the detail view.
type InvoiceDetail struct {
	Invoice billing.Invoice
}

// RoommateDetail is a fetched invoice for the roommate slot.
type RoommateDetail struct {
	Invoice billing.Invoice
}

// InvoiceMutated is the server copy after an edit or a status change.
// Payment also refreshes the roommate slot.
type InvoiceMutated struct {
	Invoice billing.Invoice
	Payment bool
}

// InvoiceCreated is a new invoice from create or apply-template.
type InvoiceCreated struct {
	Invoice billing.Invoice
}

// InvoiceDeleted removes an invoice.
type InvoiceDeleted struct {
	ID string
}

// TemplatesLoaded replaces the template list.
type TemplatesLoaded struct {
	Templates []billing.InvoiceTemplate
}

// TemplateSaved adds or replaces a template.
type TemplateSaved struct {
	Template billing.InvoiceTemplate
}

// TemplateDeleted removes a template.
type TemplateDeleted struct {
	ID string
}
