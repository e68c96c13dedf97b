package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/roomio/roomio/internal/billing"
)

const (
	pathInvoices         = "/billing/invoices"
	pathInvoice          = "/billing/invoices/{id}"
	pathRoommateInvoices = "/billing/invoices/roommate"
	pathRoommateInvoice  = "/billing/invoices/roommate/{id}"
	pathConfirmPayment   = "/billing/invoices/{id}/confirm-payment"
	pathMarkPaid         = "/billing/invoices/{id}/mark-paid"
	pathFinalize         = "/billing/invoices/{id}/finalize"
	pathItems            = "/billing/invoices/{id}/items"
	pathItem             = "/billing/invoices/{id}/items/{index}"
	pathSaveTemplate     = "/billing/invoices/{id}/save-template"
)

// ListInvoices fetches one page of invoices.
func (c *Client) ListInvoices(ctx context.Context, params ListParams) (InvoicePage, error) {
	query := map[string]string{}
	if params.Page > 0 {
		query["page"] = strconv.Itoa(params.Page)
	}
	if params.Limit > 0 {
		query["limit"] = strconv.Itoa(params.Limit)
	}
	if params.Status != "" {
		query["status"] = string(params.Status)
	}
	if params.ContractID != "" {
		query["contractId"] = params.ContractID
	}
	env, err := c.do(ctx, call{endpoint: "list_invoices", method: http.MethodGet, path: pathInvoices, query: query})
	if err != nil {
		return InvoicePage{}, err
	}
	return c.decodeInvoices(env, "list_invoices")
}

// ListRoommateInvoices fetches the invoices shared with the caller as a co-tenant.
func (c *Client) ListRoommateInvoices(ctx context.Context) ([]billing.Invoice, error) {
	env, err := c.do(ctx, call{endpoint: "list_roommate_invoices", method: http.MethodGet, path: pathRoommateInvoices})
	if err != nil {
		return nil, err
	}
	page, err := c.decodeInvoices(env, "list_roommate_invoices")
	if err != nil {
		return nil, err
	}
	return page.Invoices, nil
}

// GetRoommateInvoice fetches one invoice from the co-tenant view.
func (c *Client) GetRoommateInvoice(ctx context.Context, id string) (billing.Invoice, error) {
	return c.invoiceCall(ctx, call{endpoint: "get_roommate_invoice", method: http.MethodGet, path: pathRoommateInvoice, params: idParam(id)})
}

// GetInvoice fetches invoice details.
func (c *Client) GetInvoice(ctx context.Context, id string) (billing.Invoice, error) {
	return c.invoiceCall(ctx, call{endpoint: "get_invoice", method: http.MethodGet, path: pathInvoice, params: idParam(id)})
}

// CreateInvoice creates a draft invoice.
func (c *Client) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (billing.Invoice, error) {
	if err := c.check(req); err != nil {
		return billing.Invoice{}, err
	}
	req.Items = withAmounts(req.Items)
	return c.invoiceCall(ctx, call{endpoint: "create_invoice", method: http.MethodPost, path: pathInvoices, body: req})
}

// UpdateInvoice edits an invoice.
func (c *Client) UpdateInvoice(ctx context.Context, id string, req UpdateInvoiceRequest) (billing.Invoice, error) {
	if err := c.check(req); err != nil {
		return billing.Invoice{}, err
	}
	req.Items = withAmounts(req.Items)
	return c.invoiceCall(ctx, call{endpoint: "update_invoice", method: http.MethodPut, path: pathInvoice, params: idParam(id), body: req})
}

// DeleteInvoice removes an invoice.
func (c *Client) DeleteInvoice(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{endpoint: "delete_invoice", method: http.MethodDelete, path: pathInvoice, params: idParam(id)})
	return err
}

// ConfirmPayment records the tenant's payment claim.
func (c *Client) ConfirmPayment(ctx context.Context, id string, req ConfirmPaymentRequest) (billing.Invoice, error) {
	if err := c.check(req); err != nil {
		return billing.Invoice{}, err
	}
	return c.invoiceCall(ctx, call{endpoint: "confirm_payment", method: http.MethodPost, path: pathConfirmPayment, params: idParam(id), body: req})
}

// MarkPaid closes an invoice as paid.
func (c *Client) MarkPaid(ctx context.Context, id string, req MarkPaidRequest) (billing.Invoice, error) {
	if err := c.check(req); err != nil {
		return billing.Invoice{}, err
	}
	return c.invoiceCall(ctx, call{endpoint: "mark_paid", method: http.MethodPost, path: pathMarkPaid, params: idParam(id), body: req})
}

// FinalizeInvoice issues a draft invoice.
func (c *Client) FinalizeInvoice(ctx context.Context, id string) (billing.Invoice, error) {
	return c.invoiceCall(ctx, call{endpoint: "finalize_invoice", method: http.MethodPost, path: pathFinalize, params: idParam(id)})
}

// AddItem appends an item to an invoice.
func (c *Client) AddItem(ctx context.Context, id string, item billing.InvoiceItem) (billing.Invoice, error) {
	if err := c.check(item); err != nil {
		return billing.Invoice{}, err
	}
	return c.invoiceCall(ctx, call{endpoint: "add_item", method: http.MethodPost, path: pathItems, params: idParam(id), body: item.WithAmount()})
}

// UpdateItems replaces all invoice items.
func (c *Client) UpdateItems(ctx context.Context, id string, req UpdateItemsRequest) (billing.Invoice, error) {
	if err := c.check(req); err != nil {
		return billing.Invoice{}, err
	}
	req.Items = withAmounts(req.Items)
	return c.invoiceCall(ctx, call{endpoint: "update_items", method: http.MethodPut, path: pathItems, params: idParam(id), body: req})
}

// DeleteItem removes the item at index.
func (c *Client) DeleteItem(ctx context.Context, id string, index int) (billing.Invoice, error) {
	if index < 0 {
		return billing.Invoice{}, &Error{Kind: KindInvalid, Message: MsgInvalid}
	}
	params := map[string]string{"id": id, "index": strconv.Itoa(index)}
	return c.invoiceCall(ctx, call{endpoint: "delete_item", method: http.MethodDelete, path: pathItem, params: params})
}

// SaveAsTemplate stores the invoice shape as a named template.
func (c *Client) SaveAsTemplate(ctx context.Context, id string, req SaveTemplateRequest) (billing.InvoiceTemplate, error) {
	if err := c.check(req); err != nil {
		return billing.InvoiceTemplate{}, err
	}
	env, err := c.do(ctx, call{endpoint: "save_template", method: http.MethodPost, path: pathSaveTemplate, params: idParam(id), body: req})
	if err != nil {
		return billing.InvoiceTemplate{}, err
	}
	return c.decodeTemplate(env.Data, "save_template")
}

func (c *Client) invoiceCall(ctx context.Context, cl call) (billing.Invoice, error) {
	env, err := c.do(ctx, cl)
	if err != nil {
		return billing.Invoice{}, err
	}
	return c.decodeInvoice(env.Data, cl.endpoint)
}

func idParam(id string) map[string]string {
	return map[string]string{"id": id}
}
