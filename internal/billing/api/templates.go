package api

import (
	"context"
	"net/http"

	"github.com/roomio/roomio/internal/billing"
)

const (
	pathTemplates     = "/billing/templates"
	pathTemplate      = "/billing/templates/{id}"
	pathApplyTemplate = "/billing/templates/{id}/apply"
)

// ListTemplates fetches the caller's invoice templates.
func (c *Client) ListTemplates(ctx context.Context) ([]billing.InvoiceTemplate, error) {
	env, err := c.do(ctx, call{endpoint: "list_templates", method: http.MethodGet, path: pathTemplates})
	if err != nil {
		return nil, err
	}
	return c.decodeTemplates(env.Data, "list_templates")
}

// ApplyTemplate creates an invoice from a template. A 409 means an invoice
// already exists for the contract and period.
func (c *Client) ApplyTemplate(ctx context.Context, templateID string, req ApplyTemplateRequest) (billing.Invoice, error) {
	if err := c.check(req); err != nil {
		return billing.Invoice{}, err
	}
	return c.invoiceCall(ctx, call{endpoint: "apply_template", method: http.MethodPost, path: pathApplyTemplate, params: idParam(templateID), body: req})
}

// DeleteTemplate removes a template.
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{endpoint: "delete_template", method: http.MethodDelete, path: pathTemplate, params: idParam(id)})
	return err
}
