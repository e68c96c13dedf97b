package templates

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roomio/roomio/internal/billing"
	"github.com/roomio/roomio/internal/shared"
)

// ContractSource fetches contracts; api.Client implements it.
type ContractSource interface {
	GetContract(ctx context.Context, id string) (billing.Contract, error)
}

// TemplateSource fetches templates; state.Operations implements it so the
// list lands in the store.
type TemplateSource interface {
	FetchTemplates(ctx context.Context) ([]billing.InvoiceTemplate, error)
}

// Loader gathers what the apply form needs.
type Loader struct {
	contracts ContractSource
	templates TemplateSource
	now       func() time.Time
}

// NewLoader builds a Loader. now defaults to time.Now.
func NewLoader(contracts ContractSource, templates TemplateSource, now func() time.Time) *Loader {
	if now == nil {
		now = time.Now
	}
	return &Loader{contracts: contracts, templates: templates, now: now}
}

// FormData is the contract and the templates available for it.
type FormData struct {
	Contract  billing.Contract
	Templates []billing.InvoiceTemplate
}

// Load fetches the contract and the templates concurrently.
func (l *Loader) Load(ctx context.Context, contractID string) (FormData, error) {
	var data FormData

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		contract, err := l.contracts.GetContract(ctx, contractID)
		if err != nil {
			return fmt.Errorf("load contract: %w", err)
		}
		data.Contract = contract
		return nil
	})

	g.Go(func() error {
		list, err := l.templates.FetchTemplates(ctx)
		if err != nil {
			return fmt.Errorf("load templates: %w", err)
		}
		data.Templates = list
		return nil
	})

	if err := g.Wait(); err != nil {
		return FormData{}, err
	}
	return data, nil
}

// Form loads the data and opens a form for templateID.
func (l *Loader) Form(ctx context.Context, templateID, contractID string) (*ApplyForm, error) {
	data, err := l.Load(ctx, contractID)
	if err != nil {
		return nil, err
	}
	for _, tpl := range data.Templates {
		if tpl.ID == templateID {
			return NewApplyForm(tpl, data.Contract, l.now()), nil
		}
	}
	return nil, fmt.Errorf("template %s: %w", templateID, shared.ErrNotFound)
}

// Find returns templateID from cached, refetching through src only when the
// template is not already known.
func Find(ctx context.Context, cached []billing.InvoiceTemplate, src TemplateSource, templateID string) (billing.InvoiceTemplate, error) {
	for _, tpl := range cached {
		if tpl.ID == templateID {
			return tpl, nil
		}
	}
	list, err := src.FetchTemplates(ctx)
	if err != nil {
		return billing.InvoiceTemplate{}, fmt.Errorf("load templates: %w", err)
	}
	for _, tpl := range list {
		if tpl.ID == templateID {
			return tpl, nil
		}
	}
	return billing.InvoiceTemplate{}, fmt.Errorf("template %s: %w", templateID, shared.ErrNotFound)
}
