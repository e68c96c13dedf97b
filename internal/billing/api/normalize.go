package api

import (
	"bytes"
	"encoding/json"
	"log/slog"

	"github.com/roomio/roomio/internal/billing"
	"github.com/roomio/roomio/internal/shared"
)

// The backend is inconsistent about wrapping: data may be the document itself
// or an object keyed by the resource name. These helpers accept both.

func unwrap(data json.RawMessage, key string) json.RawMessage {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return data
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return data
	}
	if _, hasID := wrapper["_id"]; hasID {
		return data
	}
	if inner, ok := wrapper[key]; ok {
		return inner
	}
	return data
}

func (c *Client) decodeInvoice(data json.RawMessage, endpoint string) (billing.Invoice, error) {
	var inv billing.Invoice
	if err := json.Unmarshal(unwrap(data, "invoice"), &inv); err != nil {
		return billing.Invoice{}, &Error{Kind: KindMalformed, Message: MsgMalformed, Err: err}
	}
	if inv.ID == "" {
		c.logger.Warn("invoice without _id in response", slog.String("endpoint", endpoint))
		return billing.Invoice{}, &Error{Kind: KindMalformed, Message: MsgMalformed}
	}
	return normalizeInvoice(inv), nil
}

func (c *Client) decodeInvoices(env envelope, endpoint string) (InvoicePage, error) {
	raw := bytes.TrimSpace(env.Data)
	var body struct {
		Invoices   []json.RawMessage `json:"invoices"`
		Pagination shared.Pagination `json:"pagination"`
	}
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &body.Invoices); err != nil {
			return InvoicePage{}, &Error{Kind: KindMalformed, Message: MsgMalformed, Err: err}
		}
	} else if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if err := json.Unmarshal(raw, &body); err != nil {
			return InvoicePage{}, &Error{Kind: KindMalformed, Message: MsgMalformed, Err: err}
		}
	}
	out := make([]billing.Invoice, 0, len(body.Invoices))
	for i, entry := range body.Invoices {
		var inv billing.Invoice
		if err := json.Unmarshal(entry, &inv); err != nil {
			c.logger.Warn("dropping malformed invoice",
				slog.String("endpoint", endpoint), slog.Int("index", i), slog.Any("error", err))
			continue
		}
		if inv.ID == "" {
			c.logger.Warn("dropping invoice without _id", slog.String("endpoint", endpoint), slog.Int("index", i))
			continue
		}
		out = append(out, normalizeInvoice(inv))
	}
	pagination := body.Pagination
	if env.Pagination != nil {
		pagination = *env.Pagination
	}
	// Page stays zero when the server does not echo it; the caller knows
	// which page it asked for.
	if pagination == (shared.Pagination{}) {
		pagination = shared.Pagination{PerPage: len(out), Total: len(out)}
	}
	return InvoicePage{Invoices: out, Pagination: pagination}, nil
}

func (c *Client) decodeTemplate(data json.RawMessage, endpoint string) (billing.InvoiceTemplate, error) {
	var tpl billing.InvoiceTemplate
	if err := json.Unmarshal(unwrap(data, "template"), &tpl); err != nil {
		return billing.InvoiceTemplate{}, &Error{Kind: KindMalformed, Message: MsgMalformed, Err: err}
	}
	if tpl.ID == "" {
		c.logger.Warn("template without _id in response", slog.String("endpoint", endpoint))
		return billing.InvoiceTemplate{}, &Error{Kind: KindMalformed, Message: MsgMalformed}
	}
	tpl.Items = normalizeItems(tpl.Items)
	return tpl, nil
}

func (c *Client) decodeTemplates(data json.RawMessage, endpoint string) ([]billing.InvoiceTemplate, error) {
	var list []json.RawMessage
	raw := unwrap(data, "templates")
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, &Error{Kind: KindMalformed, Message: MsgMalformed, Err: err}
		}
	}
	out := make([]billing.InvoiceTemplate, 0, len(list))
	for i, entry := range list {
		var tpl billing.InvoiceTemplate
		if err := json.Unmarshal(entry, &tpl); err != nil {
			c.logger.Warn("dropping malformed template",
				slog.String("endpoint", endpoint), slog.Int("index", i), slog.Any("error", err))
			continue
		}
		if tpl.ID == "" {
			c.logger.Warn("dropping template without _id", slog.String("endpoint", endpoint))
			continue
		}
		tpl.Items = normalizeItems(tpl.Items)
		out = append(out, tpl)
	}
	return out, nil
}

func normalizeInvoice(inv billing.Invoice) billing.Invoice {
	inv.Items = normalizeItems(inv.Items)
	if inv.TotalAmount == 0 {
		inv.TotalAmount = billing.SumItems(inv.Items)
	}
	if inv.Tenant.IsZero() {
		if contract, ok := inv.Contract.Value(); ok {
			inv.Tenant = contract.Tenant
		}
	}
	if inv.Room.IsZero() {
		if contract, ok := inv.Contract.Value(); ok {
			inv.Room = contract.Room
		}
	}
	return inv
}

func normalizeItems(items []billing.InvoiceItem) []billing.InvoiceItem {
	out := make([]billing.InvoiceItem, len(items))
	for i, it := range items {
		if it.Amount == 0 {
			it = it.WithAmount()
		}
		if it.Category == "" {
			it.Category = billing.CategoryOther
		}
		out[i] = it
	}
	return out
}
