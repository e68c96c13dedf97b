package state

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roomio/roomio/internal/billing"
	"github.com/roomio/roomio/internal/billing/api"
)

// Service is the billing backend as seen by the operations.
type Service interface {
	ListInvoices(ctx context.Context, params api.ListParams) (api.InvoicePage, error)
	ListRoommateInvoices(ctx context.Context) ([]billing.Invoice, error)
	GetInvoice(ctx context.Context, id string) (billing.Invoice, error)
	GetRoommateInvoice(ctx context.Context, id string) (billing.Invoice, error)
	CreateInvoice(ctx context.Context, req api.CreateInvoiceRequest) (billing.Invoice, error)
	UpdateInvoice(ctx context.Context, id string, req api.UpdateInvoiceRequest) (billing.Invoice, error)
	DeleteInvoice(ctx context.Context, id string) error
	ConfirmPayment(ctx context.Context, id string, req api.ConfirmPaymentRequest) (billing.Invoice, error)
	MarkPaid(ctx context.Context, id string, req api.MarkPaidRequest) (billing.Invoice, error)
	FinalizeInvoice(ctx context.Context, id string) (billing.Invoice, error)
	AddItem(ctx context.Context, id string, item billing.InvoiceItem) (billing.Invoice, error)
	UpdateItems(ctx context.Context, id string, req api.UpdateItemsRequest) (billing.Invoice, error)
	DeleteItem(ctx context.Context, id string, index int) (billing.Invoice, error)
	SaveAsTemplate(ctx context.Context, id string, req api.SaveTemplateRequest) (billing.InvoiceTemplate, error)
	ListTemplates(ctx context.Context) ([]billing.InvoiceTemplate, error)
	ApplyTemplate(ctx context.Context, templateID string, req api.ApplyTemplateRequest) (billing.Invoice, error)
	DeleteTemplate(ctx context.Context, id string) error
}

// Operations run billing calls and record their lifecycle in a Store. Every
// method dispatches Started, then Succeeded or Failed.
type Operations struct {
	store    *Store
	svc      Service
	logger   *slog.Logger
	pageSize int
}

// NewOperations wires operations to a store and a backend.
func NewOperations(store *Store, svc Service, logger *slog.Logger, pageSize int) *Operations {
	if logger == nil {
		logger = slog.Default()
	}
	return &Operations{store: store, svc: svc, logger: logger, pageSize: pageSize}
}

// Store returns the store the operations write to.
func (o *Operations) Store() *Store { return o.store }

func run[T any](ctx context.Context, o *Operations, op Op, call func(context.Context) (T, Result, error)) (T, error) {
	o.store.Dispatch(Started{Op: op})
	value, result, err := call(ctx)
	if err != nil {
		o.store.Dispatch(Failed{Op: op, Message: api.Message(err)})
		o.logger.Warn("billing operation failed", slog.String("op", string(op)), slog.Any("error", err))
		var zero T
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	o.store.Dispatch(Succeeded{Op: op, Result: result})
	return value, nil
}

func mutation(payment bool, call func() (billing.Invoice, error)) func(context.Context) (billing.Invoice, Result, error) {
	return func(context.Context) (billing.Invoice, Result, error) {
		inv, err := call()
		if err != nil {
			return billing.Invoice{}, nil, err
		}
		return inv, InvoiceMutated{Invoice: inv, Payment: payment}, nil
	}
}

// FetchInvoices loads one page of the list. Page 1 replaces the list and
// later pages append.
func (o *Operations) FetchInvoices(ctx context.Context, params api.ListParams) (api.InvoicePage, error) {
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Limit <= 0 {
		params.Limit = o.pageSize
	}
	return run(ctx, o, OpFetch, func(ctx context.Context) (api.InvoicePage, Result, error) {
		page, err := o.svc.ListInvoices(ctx, params)
		if err != nil {
			return api.InvoicePage{}, nil, err
		}
		if page.Pagination.Page == 0 {
			page.Pagination.Page = params.Page
			if page.Pagination.TotalPages < params.Page {
				page.Pagination.TotalPages = params.Page
			}
		}
		return page, InvoicesPage{Page: params.Page, Invoices: page.Invoices, Pagination: page.Pagination}, nil
	})
}

// FetchInvoiceDetail loads an invoice into the selected slot.
func (o *Operations) FetchInvoiceDetail(ctx context.Context, id string) (billing.Invoice, error) {
	return run(ctx, o, OpFetchDetail, func(ctx context.Context) (billing.Invoice, Result, error) {
		inv, err := o.svc.GetInvoice(ctx, id)
		if err != nil {
			return billing.Invoice{}, nil, err
		}
		return inv, InvoiceDetail{Invoice: inv}, nil
	})
}

// FetchRoommateInvoices merges the invoices shared with the caller into the list.
func (o *Operations) FetchRoommateInvoices(ctx context.Context) ([]billing.Invoice, error) {
	return run(ctx, o, OpFetchRoommate, func(ctx context.Context) ([]billing.Invoice, Result, error) {
		list, err := o.svc.ListRoommateInvoices(ctx)
		if err != nil {
			return nil, nil, err
		}
		return list, RoommateInvoices{Invoices: list}, nil
	})
}

// FetchRoommateInvoice loads an invoice into the roommate slot.
func (o *Operations) FetchRoommateInvoice(ctx context.Context, id string) (billing.Invoice, error) {
	return run(ctx, o, OpFetchRoommate, func(ctx context.Context) (billing.Invoice, Result, error) {
		inv, err := o.svc.GetRoommateInvoice(ctx, id)
		if err != nil {
			return billing.Invoice{}, nil, err
		}
		return inv, RoommateDetail{Invoice: inv}, nil
	})
}

// CreateInvoice creates an invoice and prepends it to the list.
func (o *Operations) CreateInvoice(ctx context.Context, req api.CreateInvoiceRequest) (billing.Invoice, error) {
	return run(ctx, o, OpCreate, func(ctx context.Context) (billing.Invoice, Result, error) {
		inv, err := o.svc.CreateInvoice(ctx, req)
		if err != nil {
			return billing.Invoice{}, nil, err
		}
		return inv, InvoiceCreated{Invoice: inv}, nil
	})
}

// UpdateInvoice edits an invoice.
func (o *Operations) UpdateInvoice(ctx context.Context, id string, req api.UpdateInvoiceRequest) (billing.Invoice, error) {
	return run(ctx, o, OpUpdate, mutation(false, func() (billing.Invoice, error) {
		return o.svc.UpdateInvoice(ctx, id, req)
	}))
}

// DeleteInvoice removes an invoice from the backend and the state.
func (o *Operations) DeleteInvoice(ctx context.Context, id string) error {
	_, err := run(ctx, o, OpDelete, func(ctx context.Context) (struct{}, Result, error) {
		if err := o.svc.DeleteInvoice(ctx, id); err != nil {
			return struct{}{}, nil, err
		}
		return struct{}{}, InvoiceDeleted{ID: id}, nil
	})
	return err
}

// ConfirmPayment records the tenant's payment claim.
func (o *Operations) ConfirmPayment(ctx context.Context, id string, req api.ConfirmPaymentRequest) (billing.Invoice, error) {
	return run(ctx, o, OpConfirmPayment, mutation(true, func() (billing.Invoice, error) {
		return o.svc.ConfirmPayment(ctx, id, req)
	}))
}

// MarkPaid closes an invoice as paid.
func (o *Operations) MarkPaid(ctx context.Context, id string, req api.MarkPaidRequest) (billing.Invoice, error) {
	return run(ctx, o, OpMarkPaid, mutation(true, func() (billing.Invoice, error) {
		return o.svc.MarkPaid(ctx, id, req)
	}))
}

// CompleteInvoice finalizes a draft.
func (o *Operations) CompleteInvoice(ctx context.Context, id string) (billing.Invoice, error) {
	return run(ctx, o, OpComplete, mutation(true, func() (billing.Invoice, error) {
		return o.svc.FinalizeInvoice(ctx, id)
	}))
}

// AddItem appends an item.
func (o *Operations) AddItem(ctx context.Context, id string, item billing.InvoiceItem) (billing.Invoice, error) {
	return run(ctx, o, OpAddItem, mutation(false, func() (billing.Invoice, error) {
		return o.svc.AddItem(ctx, id, item)
	}))
}

// UpdateItems replaces the items.
func (o *Operations) UpdateItems(ctx context.Context, id string, req api.UpdateItemsRequest) (billing.Invoice, error) {
	return run(ctx, o, OpUpdateItems, mutation(false, func() (billing.Invoice, error) {
		return o.svc.UpdateItems(ctx, id, req)
	}))
}

// DeleteItem removes the item at index.
func (o *Operations) DeleteItem(ctx context.Context, id string, index int) (billing.Invoice, error) {
	return run(ctx, o, OpDeleteItem, mutation(false, func() (billing.Invoice, error) {
		return o.svc.DeleteItem(ctx, id, index)
	}))
}

// SaveTemplate stores an invoice as a template.
func (o *Operations) SaveTemplate(ctx context.Context, id string, req api.SaveTemplateRequest) (billing.InvoiceTemplate, error) {
	return run(ctx, o, OpSaveTemplate, func(ctx context.Context) (billing.InvoiceTemplate, Result, error) {
		tpl, err := o.svc.SaveAsTemplate(ctx, id, req)
		if err != nil {
			return billing.InvoiceTemplate{}, nil, err
		}
		return tpl, TemplateSaved{Template: tpl}, nil
	})
}

// FetchTemplates loads the template list. A failure leaves it empty.
func (o *Operations) FetchTemplates(ctx context.Context) ([]billing.InvoiceTemplate, error) {
	return run(ctx, o, OpFetchTemplates, func(ctx context.Context) ([]billing.InvoiceTemplate, Result, error) {
		list, err := o.svc.ListTemplates(ctx)
		if err != nil {
			return nil, nil, err
		}
		return list, TemplatesLoaded{Templates: list}, nil
	})
}

// ApplyTemplate creates an invoice from a template. Callers validate the
// request first; see the templates package.
func (o *Operations) ApplyTemplate(ctx context.Context, templateID string, req api.ApplyTemplateRequest) (billing.Invoice, error) {
	return run(ctx, o, OpApplyTemplate, func(ctx context.Context) (billing.Invoice, Result, error) {
		inv, err := o.svc.ApplyTemplate(ctx, templateID, req)
		if err != nil {
			return billing.Invoice{}, nil, err
		}
		return inv, InvoiceCreated{Invoice: inv}, nil
	})
}

// DeleteTemplate removes a template.
func (o *Operations) DeleteTemplate(ctx context.Context, id string) error {
	_, err := run(ctx, o, OpDeleteTemplate, func(ctx context.Context) (struct{}, Result, error) {
		if err := o.svc.DeleteTemplate(ctx, id); err != nil {
			return struct{}{}, nil, err
		}
		return struct{}{}, TemplateDeleted{ID: id}, nil
	})
	return err
}

// Select points the selected slot at a listed invoice.
func (o *Operations) Select(id string) (billing.Invoice, bool) {
	inv, ok := o.store.State().Invoice(id)
	if !ok {
		return billing.Invoice{}, false
	}
	o.store.Dispatch(Select{Invoice: inv})
	return inv, true
}

// Reset returns op to idle.
func (o *Operations) Reset(op Op) State {
	return o.store.Dispatch(Reset{Op: op})
}
